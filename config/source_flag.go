package config

import "github.com/spf13/pflag"

// FlagSource maps explicitly changed command-line flags onto config keys
type FlagSource struct {
	flags    *pflag.FlagSet
	bindings map[string]string // flag name -> config key
	priority int
}

// NewFlagSource binds flags, e.g. {"listen": "http.addr"}
func NewFlagSource(flags *pflag.FlagSet, bindings map[string]string, priority int) *FlagSource {
	return &FlagSource{flags: flags, bindings: bindings, priority: priority}
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return s.priority }

// Load 只读取用户显式设置的参数，避免默认值覆盖配置文件
func (s *FlagSource) Load(map[string]any) (map[string]any, error) {
	result := make(map[string]any)
	if s.flags == nil {
		return result, nil
	}

	for name, key := range s.bindings {
		f := s.flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		result[key] = f.Value.String()
	}
	return result, nil
}
