package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config OpenTelemetry 配置
type Config struct {
	Enabled        bool           `mapstructure:"enabled"`
	ServiceName    string         `mapstructure:"service_name"`
	ServiceVersion string         `mapstructure:"service_version"`
	Exporter       ExporterConfig `mapstructure:"exporter"`
	Sampler        SamplerConfig  `mapstructure:"sampler"`
	Metrics        MetricsConfig  `mapstructure:"metrics"`

	// ResourceAttrs extra resource attributes; nested maps flatten to dotted keys
	ResourceAttrs map[string]any `mapstructure:"resource_attributes"`
}

// ExporterConfig shared by traces and metrics
type ExporterConfig struct {
	Type     string            `mapstructure:"type"`     // otlp, stdout
	Endpoint string            `mapstructure:"endpoint"` // otlp gRPC endpoint
	Insecure bool              `mapstructure:"insecure"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Headers  map[string]string `mapstructure:"headers"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"` // always_on, always_off, trace_id_ratio, parent_based_always_on
	Ratio float64 `mapstructure:"ratio"`
}

type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
}

// DefaultConfig telemetry is off unless enabled explicitly
func DefaultConfig() Config {
	return Config{
		ServiceName:    "tokenauthd",
		ServiceVersion: "dev",
		Exporter: ExporterConfig{
			Type:     "otlp",
			Endpoint: "localhost:4317",
			Insecure: true,
			Timeout:  10 * time.Second,
		},
		Sampler: SamplerConfig{
			Type:  "parent_based_always_on",
			Ratio: 1.0,
		},
		Metrics: MetricsConfig{
			ExportInterval: 15 * time.Second,
		},
	}
}

func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.ServiceName == "" {
		c.ServiceName = def.ServiceName
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = def.ServiceVersion
	}
	if c.Exporter.Type == "" {
		c.Exporter.Type = def.Exporter.Type
	}
	if c.Exporter.Type == "otlp" && c.Exporter.Endpoint == "" {
		c.Exporter.Endpoint = def.Exporter.Endpoint
	}
	if c.Exporter.Timeout == 0 {
		c.Exporter.Timeout = def.Exporter.Timeout
	}
	if c.Sampler.Type == "" {
		c.Sampler = def.Sampler
	}
	if c.Metrics.ExportInterval == 0 {
		c.Metrics.ExportInterval = def.Metrics.ExportInterval
	}
}

// Validate 未启用时不校验
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Exporter, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Exporter,
				validation.Field(&c.Exporter.Type, validation.Required, validation.In("otlp", "stdout")),
				validation.Field(&c.Exporter.Endpoint, validation.When(c.Exporter.Type == "otlp", validation.Required)),
			)
		})),
		validation.Field(&c.Sampler, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Sampler,
				validation.Field(&c.Sampler.Type, validation.In("always_on", "always_off", "trace_id_ratio", "parent_based_always_on")),
				validation.Field(&c.Sampler.Ratio, validation.Min(0.0), validation.Max(1.0)),
			)
		})),
	)
}
