package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader merges layered sources and decodes the result with viper
type Loader struct {
	sources     []ConfigSource
	merged      map[string]any
	v           *viper.Viper
	loadedFiles []string
}

func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]any),
		v:      viper.New(),
	}
}

// AddSource appends a data source
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load merges all sources from lowest to highest priority
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]any)
	l.loadedFiles = nil
	for _, source := range l.sources {
		data, err := source.Load(l.merged)
		if err != nil {
			return fmt.Errorf("load source %s: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fs.path)
		}
		for k, v := range data {
			l.merged[strings.ToLower(k)] = v
		}
	}

	l.v = viper.New()
	for key, value := range l.merged {
		l.v.Set(key, value)
	}
	return nil
}

// Unmarshal decodes into a struct using mapstructure tags.
// String values from env and flags are converted by viper's weak decoding.
func (l *Loader) Unmarshal(out any) error {
	return l.v.Unmarshal(out)
}

// UnmarshalKey decodes one sub-tree, e.g. "redis"
func (l *Loader) UnmarshalKey(key string, out any) error {
	return l.v.UnmarshalKey(key, out)
}

func (l *Loader) Get(key string) any          { return l.v.Get(key) }
func (l *Loader) GetString(key string) string { return l.v.GetString(key) }
func (l *Loader) GetInt(key string) int       { return l.v.GetInt(key) }
func (l *Loader) GetBool(key string) bool     { return l.v.GetBool(key) }
func (l *Loader) IsSet(key string) bool       { return l.v.IsSet(key) }

// LoadedFiles lists files that contributed at least one key
func (l *Loader) LoadedFiles() []string {
	return l.loadedFiles
}
