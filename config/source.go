package config

// ConfigSource is one layer of configuration (defaults, files, env, flags)
type ConfigSource interface {
	// Name identifies the source in errors and logs
	Name() string

	// Priority orders merging; higher values override lower ones.
	// Conventional values: defaults 1, config.yaml 10, <env>.yaml 20, env vars 50, flags 100.
	Priority() int

	// Load returns dot-separated keys such as "session.max_refresh_usage".
	// known holds every key merged so far from lower-priority sources.
	Load(known map[string]any) (map[string]any, error)
}

// MapSource serves a fixed flat map, typically compiled-in defaults
type MapSource struct {
	name     string
	data     map[string]any
	priority int
}

// NewMapSource creates a static source. Nested maps are flattened.
func NewMapSource(name string, data map[string]any, priority int) *MapSource {
	return &MapSource{name: name, data: flattenMap("", data), priority: priority}
}

func (s *MapSource) Name() string  { return "map:" + s.name }
func (s *MapSource) Priority() int { return s.priority }

func (s *MapSource) Load(map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}
