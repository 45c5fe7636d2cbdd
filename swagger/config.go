package swagger

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config Swagger UI 与 spec 路由
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// UIPath gin 通配路由，必须以 /*any 结尾
	UIPath   string `mapstructure:"ui_path"`
	SpecPath string `mapstructure:"spec_path"`

	DeepLinking          bool `mapstructure:"deep_linking"`
	PersistAuthorization bool `mapstructure:"persist_authorization"`
}

// DefaultConfig 默认关闭，生产环境按需打开
func DefaultConfig() Config {
	return Config{
		Enabled:              false,
		UIPath:               "/swagger/*any",
		SpecPath:             "/openapi.json",
		DeepLinking:          true,
		PersistAuthorization: true,
	}
}

func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.UIPath == "" {
		c.UIPath = def.UIPath
	}
	if c.SpecPath == "" {
		c.SpecPath = def.SpecPath
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.UIPath,
			validation.When(c.Enabled, validation.Required, validation.By(wildcardPath))),
		validation.Field(&c.SpecPath,
			validation.When(c.Enabled, validation.By(absolutePath))),
	)
}

func wildcardPath(v any) error {
	s, _ := v.(string)
	if !strings.HasPrefix(s, "/") || !strings.HasSuffix(s, "/*any") {
		return validation.NewError("validation_swagger_ui_path", "must look like /prefix/*any")
	}
	return nil
}

func absolutePath(v any) error {
	s, _ := v.(string)
	if s != "" && !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_swagger_spec_path", "must start with /")
	}
	return nil
}
