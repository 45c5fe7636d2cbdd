package logger

import "strings"

// GinLogWriter routes gin's own text output (route table, debug warnings) into a module logger
type GinLogWriter struct {
	log *CtxZapLogger
}

func NewGinLogWriter(log *CtxZapLogger) *GinLogWriter {
	return &GinLogWriter{log: log}
}

func (w *GinLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	switch {
	case strings.Contains(msg, "[GIN-debug]"):
		w.log.Debug(msg)
	case strings.Contains(msg, "[WARNING]"), strings.Contains(msg, "[Recovery]"):
		w.log.Warn(msg)
	default:
		w.log.Info(msg)
	}
	return len(p), nil
}
