package config

import (
	"os"
	"strings"
)

// EnvSource overrides known keys from environment variables.
// Key "session.max_refresh_usage" with prefix TOKENAUTH maps to TOKENAUTH_SESSION_MAX_REFRESH_USAGE.
type EnvSource struct {
	prefix   string
	priority int
	lookup   func(string) (string, bool)
}

func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{prefix: prefix, priority: priority, lookup: os.LookupEnv}
}

func (s *EnvSource) Name() string  { return "env:" + s.prefix }
func (s *EnvSource) Priority() int { return s.priority }

func (s *EnvSource) Load(known map[string]any) (map[string]any, error) {
	result := make(map[string]any)
	for key := range known {
		if value, ok := s.lookup(EnvName(s.prefix, key)); ok {
			result[key] = value
		}
	}
	return result, nil
}

// EnvName returns the variable name bound to a config key
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}
