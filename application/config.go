package application

import (
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/breaker"
	"github.com/KOMKZ/go-yogan-tokenauth/config"
	"github.com/KOMKZ/go-yogan-tokenauth/database"
	"github.com/KOMKZ/go-yogan-tokenauth/health"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/middleware"
	"github.com/KOMKZ/go-yogan-tokenauth/redis"
	"github.com/KOMKZ/go-yogan-tokenauth/session"
	"github.com/KOMKZ/go-yogan-tokenauth/swagger"
	"github.com/KOMKZ/go-yogan-tokenauth/telemetry"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/pflag"
)

// EnvPrefix e.g. TOKENAUTH_JWT_SECRET overrides jwt.secret
const EnvPrefix = "TOKENAUTH"

// AppConfig everything tokenauthd reads at startup
type AppConfig struct {
	HTTP      HTTPConfig            `mapstructure:"http"`
	Logger    logger.ManagerConfig  `mapstructure:"logger"`
	Redis     redis.Config          `mapstructure:"redis"`
	Breaker   breaker.Config        `mapstructure:"breaker"`
	Database  database.Config       `mapstructure:"database"`
	JWT       jwt.Config            `mapstructure:"jwt"`
	Session   session.Config        `mapstructure:"session"`
	Sweeper   session.SweeperConfig `mapstructure:"sweeper"`
	Auth      auth.Config           `mapstructure:"auth"`
	Health    health.Config         `mapstructure:"health"`
	Telemetry telemetry.Config      `mapstructure:"telemetry"`
	Swagger   swagger.Config        `mapstructure:"swagger"`
}

// HTTPConfig API server
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`

	CORS         middleware.CORSConfig    `mapstructure:"cors"`
	ErrorLogging httpx.ErrorLoggingConfig `mapstructure:"error_logging"`
	RequestLog   RequestLogConfig         `mapstructure:"request_log"`
}

type RequestLogConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	SkipPaths []string `mapstructure:"skip_paths"`
}

func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:            ":8080",
		Mode:            "release",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Metrics:         true,
		CORS:            middleware.DefaultCORSConfig(),
		ErrorLogging:    httpx.DefaultErrorLoggingConfig(),
		RequestLog: RequestLogConfig{
			Enabled:   true,
			SkipPaths: []string{"/healthz", "/livez"},
		},
	}
}

func (c *HTTPConfig) ApplyDefaults() {
	def := DefaultHTTPConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	c.CORS.ApplyDefaults()
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.Mode, validation.In("debug", "release", "test")),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Second)),
	)
}

// ApplyDefaults fills every section
func (c *AppConfig) ApplyDefaults() {
	c.HTTP.ApplyDefaults()
	c.Logger.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Breaker.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.JWT.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Sweeper.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Health.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	c.Swagger.ApplyDefaults()
}

// Validate stops at the first invalid section and names it
func (c AppConfig) Validate() error {
	sections := []struct {
		name string
		v    config.Validator
	}{
		{"http", c.HTTP},
		{"logger", c.Logger},
		{"redis", c.Redis},
		{"breaker", c.Breaker},
		{"database", c.Database},
		{"jwt", c.JWT},
		{"session", c.Session},
		{"sweeper", c.Sweeper},
		{"auth", c.Auth},
		{"health", c.Health},
		{"telemetry", c.Telemetry},
		{"swagger", c.Swagger},
	}
	for _, s := range sections {
		if err := config.ValidateAll(s.v); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// DefaultValues is the lowest config layer. Env overrides only apply to keys listed here
// or present in the config file, so every tunable appears even when empty.
func DefaultValues() map[string]any {
	h := DefaultHTTPConfig()
	lg := logger.DefaultManagerConfig()
	br := breaker.DefaultConfig()
	db := database.DefaultConfig()
	ss := session.DefaultConfig()
	sw := session.DefaultSweeperConfig()
	au := auth.DefaultConfig()
	hc := health.DefaultConfig()
	tc := telemetry.DefaultConfig()
	sg := swagger.DefaultConfig()

	return map[string]any{
		"http": map[string]any{
			"addr":             h.Addr,
			"mode":             h.Mode,
			"read_timeout":     h.ReadTimeout,
			"write_timeout":    h.WriteTimeout,
			"shutdown_timeout": h.ShutdownTimeout,
			"metrics":          h.Metrics,
			"cors": map[string]any{
				"enabled":       h.CORS.Enabled,
				"allow_origins": h.CORS.AllowOrigins,
				"allow_methods": h.CORS.AllowMethods,
				"allow_headers": h.CORS.AllowHeaders,
				"max_age":       h.CORS.MaxAge,
			},
			"error_logging": map[string]any{
				"enable":             h.ErrorLogging.Enable,
				"ignore_http_status": h.ErrorLogging.IgnoreHTTPStatus,
				"full_error_chain":   h.ErrorLogging.FullErrorChain,
				"log_level":          h.ErrorLogging.LogLevel,
			},
			"request_log": map[string]any{
				"enabled":    h.RequestLog.Enabled,
				"skip_paths": h.RequestLog.SkipPaths,
			},
		},
		"logger": map[string]any{
			"base_log_dir":        lg.BaseLogDir,
			"app_name":            "tokenauthd",
			"level":               lg.Level,
			"encoding":            lg.Encoding,
			"enable_console":      lg.EnableConsole,
			"enable_file":         lg.EnableFile,
			"enable_caller":       lg.EnableCaller,
			"max_size":            lg.MaxSize,
			"max_backups":         lg.MaxBackups,
			"max_age":             lg.MaxAge,
			"compress":            lg.Compress,
			"enable_trace_id":     lg.EnableTraceID,
			"trace_id_field_name": lg.TraceIDFieldName,
		},
		"redis": map[string]any{
			"addr":              "127.0.0.1:6379",
			"password":          "",
			"db":                0,
			"pool_size":         10,
			"operation_timeout": 500 * time.Millisecond,
			"connect_attempts":  3,
			"key_prefix":        "",
		},
		"breaker": map[string]any{
			"enabled":              br.Enabled,
			"strategy":             br.Strategy,
			"consecutive_failures": br.ConsecutiveFailures,
			"min_requests":         br.MinRequests,
			"error_rate_threshold": br.ErrorRateThreshold,
			"window_size":          br.WindowSize,
			"bucket_size":          br.BucketSize,
			"timeout":              br.Timeout,
			"half_open_requests":   br.HalfOpenRequests,
		},
		"database": map[string]any{
			"driver":         db.Driver,
			"dsn":            db.DSN,
			"max_open_conns": db.MaxOpenConns,
			"max_idle_conns": db.MaxIdleConns,
			"enable_tracing": db.EnableTracing,
			"trace_sql":      db.TraceSQL,
		},
		"jwt": map[string]any{
			"algorithm": "HS256",
			"secret":    "",
			"issuer":    "tokenauthd",
		},
		"session": map[string]any{
			"access_ttl":        ss.AccessTTL,
			"refresh_ttl":       ss.RefreshTTL,
			"max_refresh_usage": ss.MaxRefreshUsage,
			"chain_limit":       ss.ChainLimit,
		},
		"sweeper": map[string]any{
			"enabled":  sw.Enabled,
			"interval": sw.Interval,
		},
		"auth": map[string]any{
			"password": map[string]any{
				"bcrypt_cost": au.Password.BcryptCost,
			},
			"login_attempt": map[string]any{
				"enabled":          au.LoginAttempt.Enabled,
				"max_attempts":     au.LoginAttempt.MaxAttempts,
				"lockout_duration": au.LoginAttempt.LockoutDuration,
			},
		},
		"health": map[string]any{
			"enabled": hc.Enabled,
			"timeout": hc.Timeout,
		},
		"telemetry": map[string]any{
			"enabled":         tc.Enabled,
			"service_name":    tc.ServiceName,
			"service_version": tc.ServiceVersion,
			"exporter": map[string]any{
				"type":     tc.Exporter.Type,
				"endpoint": tc.Exporter.Endpoint,
				"insecure": tc.Exporter.Insecure,
			},
			"metrics": map[string]any{
				"enabled": tc.Metrics.Enabled,
			},
		},
		"swagger": map[string]any{
			"enabled":               sg.Enabled,
			"ui_path":               sg.UIPath,
			"spec_path":             sg.SpecPath,
			"deep_linking":          sg.DeepLinking,
			"persist_authorization": sg.PersistAuthorization,
		},
	}
}

// FlagBindings maps command-line flags onto config keys
var FlagBindings = map[string]string{
	"addr":      "http.addr",
	"log-level": "logger.level",
	"redis":     "redis.addr",
	"db-driver": "database.driver",
	"db-dsn":    "database.dsn",
}

// BindFlags declares the flags listed in FlagBindings
func BindFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "HTTP listen address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("redis", "", "redis address host:port")
	fs.String("db-driver", "", "database driver (sqlite, mysql, postgres)")
	fs.String("db-dsn", "", "database DSN")
}

// LoadConfig layers defaults < file < TOKENAUTH_* env < flags, then applies defaults and validates.
// file and flags may be empty/nil.
func LoadConfig(file string, flags *pflag.FlagSet) (*AppConfig, error) {
	builder := config.NewLoaderBuilder().
		WithDefaults(DefaultValues()).
		WithEnvPrefix(EnvPrefix)
	if file != "" {
		builder = builder.WithConfigFile(file)
	}
	if flags != nil {
		builder = builder.WithFlags(flags, FlagBindings)
	}

	loader, err := builder.Build()
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := loader.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
