package logger

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

// ManagerConfig global logger configuration (shared by all modules)
type ManagerConfig struct {
	BaseLogDir    string `mapstructure:"base_log_dir"` // log root directory (default logs/)
	AppName       string `mapstructure:"app_name"`     // injected into every entry, empty values included
	Level         string `mapstructure:"level"`
	Encoding      string `mapstructure:"encoding"` // json or console
	EnableConsole bool   `mapstructure:"enable_console"`
	EnableFile    bool   `mapstructure:"enable_file"`
	EnableCaller  bool   `mapstructure:"enable_caller"`

	// lumberjack rotation
	MaxSize    int  `mapstructure:"max_size"`    // MB per file
	MaxBackups int  `mapstructure:"max_backups"` // old files kept
	MaxAge     int  `mapstructure:"max_age"`     // days kept
	Compress   bool `mapstructure:"compress"`

	EnableTraceID    bool   `mapstructure:"enable_trace_id"`
	TraceIDFieldName string `mapstructure:"trace_id_field_name"` // default "trace_id"
}

// DefaultManagerConfig returns the default manager configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BaseLogDir:       "logs",
		Level:            "info",
		Encoding:         "json",
		EnableConsole:    true,
		EnableFile:       false,
		EnableCaller:     true,
		MaxSize:          100,
		MaxBackups:       3,
		MaxAge:           28,
		Compress:         true,
		EnableTraceID:    true,
		TraceIDFieldName: "trace_id",
	}
}

// ApplyDefaults fills zero-valued fields in place.
// Booleans cannot be told apart from "unset" and are left alone.
func (c *ManagerConfig) ApplyDefaults() {
	defaults := DefaultManagerConfig()

	if c.BaseLogDir == "" {
		c.BaseLogDir = defaults.BaseLogDir
	}
	if c.Level == "" {
		c.Level = defaults.Level
	}
	if c.Encoding == "" {
		c.Encoding = defaults.Encoding
	}
	if c.TraceIDFieldName == "" {
		c.TraceIDFieldName = defaults.TraceIDFieldName
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaults.MaxSize
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = defaults.MaxBackups
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaults.MaxAge
	}
}

// Validate checks the manager configuration
func (c ManagerConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, c.Level) {
		return fmt.Errorf("invalid log level: %s (valid values: %v)", c.Level, validLevels)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, c.Encoding) {
		return fmt.Errorf("invalid log encoding: %s (valid values: %v)", c.Encoding, validEncodings)
	}

	if c.EnableFile {
		if c.BaseLogDir == "" {
			return fmt.Errorf("base_log_dir cannot be empty when file output is enabled")
		}
		if c.MaxSize < 1 || c.MaxSize > 10000 {
			return fmt.Errorf("max_size must be between 1-10000 MB, current: %d", c.MaxSize)
		}
		if c.MaxBackups < 0 || c.MaxBackups > 1000 {
			return fmt.Errorf("max_backups must be between 0-1000, current: %d", c.MaxBackups)
		}
		if c.MaxAge < 0 || c.MaxAge > 3650 {
			return fmt.Errorf("max_age must be between 0-3650 days, current: %d", c.MaxAge)
		}
	}

	return nil
}

// ParseLevel parse log level string, unknown values fall back to info
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// filePath returns logs/<module>/<module>-<level>.log
func (c ManagerConfig) filePath(module, level string) string {
	return filepath.Join(c.BaseLogDir, module, module+"-"+level+".log")
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
