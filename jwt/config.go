package jwt

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 签名配置（进程生命周期内密钥不变）
type Config struct {
	Algorithm string `mapstructure:"algorithm"` // HS256, HS384, HS512
	Secret    string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"` // 为空则不写入也不校验 iss
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "HS256"
	}
	if c.Issuer == "" {
		c.Issuer = "tokenauthd"
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Secret == "" {
		return ErrSecretEmpty
	}
	if _, ok := signingMethods[c.Algorithm]; !ok {
		return ErrAlgorithmNotSupported
	}
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Secret, validation.Length(32, 0).Error("must be at least 32 bytes")),
	)
	if err != nil {
		return errors.Join(errors.New("jwt: invalid config"), err)
	}
	return nil
}
