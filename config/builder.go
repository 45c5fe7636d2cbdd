package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// LoaderBuilder assembles the standard source stack
type LoaderBuilder struct {
	configFile   string
	configDir    string
	envPrefix    string
	defaults     map[string]any
	flags        *pflag.FlagSet
	flagBindings map[string]string
}

func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithDefaults sets the lowest-priority layer; env overrides only apply to keys present somewhere
func (b *LoaderBuilder) WithDefaults(defaults map[string]any) *LoaderBuilder {
	b.defaults = defaults
	return b
}

// WithConfigFile uses one explicit file instead of the directory convention
func (b *LoaderBuilder) WithConfigFile(path string) *LoaderBuilder {
	b.configFile = path
	return b
}

// WithConfigDir loads <dir>/config.yaml then <dir>/<APP_ENV>.yaml
func (b *LoaderBuilder) WithConfigDir(dir string) *LoaderBuilder {
	b.configDir = dir
	return b
}

func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

func (b *LoaderBuilder) WithFlags(flags *pflag.FlagSet, bindings map[string]string) *LoaderBuilder {
	b.flags = flags
	b.flagBindings = bindings
	return b
}

func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.defaults != nil {
		loader.AddSource(NewMapSource("defaults", b.defaults, 1))
	}
	if b.configFile != "" {
		loader.AddSource(NewFileSource(b.configFile, 10))
	}
	if b.configDir != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configDir, "config.yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configDir, env+".yaml"), 20))
		}
	}
	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}
	if b.flags != nil {
		loader.AddSource(NewFlagSource(b.flags, b.flagBindings, 100))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv 优先级：APP_ENV > ENV > dev
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
