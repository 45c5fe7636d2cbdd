package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-tokenauth/api"
	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/breaker"
	"github.com/KOMKZ/go-yogan-tokenauth/database"
	_ "github.com/KOMKZ/go-yogan-tokenauth/docs"
	"github.com/KOMKZ/go-yogan-tokenauth/health"
	"github.com/KOMKZ/go-yogan-tokenauth/jwt"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/redis"
	"github.com/KOMKZ/go-yogan-tokenauth/revocation"
	"github.com/KOMKZ/go-yogan-tokenauth/session"
	"github.com/KOMKZ/go-yogan-tokenauth/swagger"
	"github.com/KOMKZ/go-yogan-tokenauth/telemetry"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

// newContainer registers every service lazily; nothing dials out until first Invoke.
// Services with a Shutdown method (telemetry, database, session, http) are closed by injector.Shutdown.
func newContainer(cfg *AppConfig) *do.RootScope {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.Provide(i, provideTelemetry)
	do.Provide(i, provideRedis)
	do.Provide(i, provideRevocationStore)
	do.Provide(i, provideCodec)
	do.Provide(i, provideSessionMetrics)
	do.Provide(i, provideSessionManager)
	do.Provide(i, provideSweeper)
	do.Provide(i, provideDatabase)
	do.Provide(i, provideAuthService)
	do.Provide(i, provideHealth)
	do.Provide(i, provideSwagger)
	do.Provide(i, provideHTTPServer)

	return i
}

func provideTelemetry(i do.Injector) (*telemetry.Manager, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	m := telemetry.NewManager(cfg.Telemetry, logger.GetLogger("telemetry"))
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

func provideRedis(i do.Injector) (*goredis.Client, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	tm := do.MustInvoke[*telemetry.Manager](i)

	metrics := redis.NewMetrics()
	if err := metrics.RegisterMetrics(tm.Meter("tokenauthd/redis")); err != nil {
		return nil, fmt.Errorf("register redis metrics: %w", err)
	}
	return redis.NewClient(context.Background(), cfg.Redis, metrics, logger.GetLogger("redis"))
}

func provideRevocationStore(i do.Injector) (revocation.Store, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	client := do.MustInvoke[*goredis.Client](i)
	store := revocation.NewRedisStore(client, cfg.Redis.OperationTimeout, logger.GetLogger("revocation"))
	if !cfg.Breaker.Enabled {
		return store, nil
	}

	tm := do.MustInvoke[*telemetry.Manager](i)
	metrics := breaker.NewMetrics()
	if err := metrics.RegisterMetrics(tm.Meter("tokenauthd/breaker")); err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}
	cb := breaker.New("revocation-store", cfg.Breaker, logger.GetLogger("breaker"),
		breaker.WithMetrics(metrics),
		breaker.WithIsFailure(revocation.IsOutage),
	)
	return revocation.NewGuardedStore(store, cb), nil
}

func provideCodec(i do.Injector) (*jwt.Codec, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return jwt.NewCodec(cfg.JWT)
}

func provideSessionMetrics(i do.Injector) (*session.Metrics, error) {
	tm := do.MustInvoke[*telemetry.Manager](i)
	metrics := session.NewMetrics()
	if err := metrics.RegisterMetrics(tm.Meter("tokenauthd/session")); err != nil {
		return nil, fmt.Errorf("register session metrics: %w", err)
	}
	return metrics, nil
}

func provideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return session.NewManager(
		cfg.Session,
		do.MustInvoke[*jwt.Codec](i),
		do.MustInvoke[revocation.Store](i),
		logger.GetLogger("session"),
		session.WithMetrics(do.MustInvoke[*session.Metrics](i)),
		session.WithKeys(revocation.Keys{Prefix: cfg.Redis.KeyPrefix}),
	)
}

func provideSweeper(i do.Injector) (*session.IndexSweeper, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return session.NewIndexSweeper(
		cfg.Sweeper,
		do.MustInvoke[revocation.Store](i),
		revocation.Keys{Prefix: cfg.Redis.KeyPrefix},
		do.MustInvoke[*session.Metrics](i),
		logger.GetLogger("session"),
	), nil
}

func provideDatabase(i do.Injector) (*database.DB, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	// the otel plugin picks up the global tracer provider, so telemetry starts first
	do.MustInvoke[*telemetry.Manager](i)
	return database.Open(cfg.Database, logger.GetLogger("database"))
}

func provideAuthService(i do.Injector) (*auth.Service, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	tm := do.MustInvoke[*telemetry.Manager](i)
	db := do.MustInvoke[*database.DB](i)
	client := do.MustInvoke[*goredis.Client](i)

	metrics := auth.NewAuthMetrics()
	if err := metrics.RegisterMetrics(tm.Meter("tokenauthd/auth")); err != nil {
		return nil, fmt.Errorf("register auth metrics: %w", err)
	}

	var attempts auth.LoginAttemptStore
	if cfg.Auth.LoginAttempt.Enabled {
		attempts = auth.NewRedisLoginAttemptStore(client, cfg.Redis.KeyPrefix+cfg.Auth.LoginAttempt.KeyPrefix)
	}

	return auth.NewService(
		auth.NewGormUserRepository(db.Gorm()),
		auth.NewPasswordService(cfg.Auth.Password, metrics),
		do.MustInvoke[*session.Manager](i),
		attempts,
		cfg.Auth.LoginAttempt,
		metrics,
		logger.GetLogger("auth"),
	), nil
}

func provideHealth(i do.Injector) (*health.Aggregator, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	agg := health.NewAggregator(cfg.Health.Timeout)
	agg.Register(
		redis.NewHealthChecker(do.MustInvoke[*goredis.Client](i)),
		database.NewHealthChecker(do.MustInvoke[*database.DB](i)),
	)
	agg.SetMetadata("service", cfg.Telemetry.ServiceName)
	agg.SetMetadata("version", cfg.Telemetry.ServiceVersion)
	return agg, nil
}

func provideSwagger(i do.Injector) (*swagger.Manager, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	return swagger.NewManager(cfg.Swagger, logger.GetLogger("swagger")), nil
}

func provideHTTPServer(i do.Injector) (*HTTPServer, error) {
	cfg := do.MustInvoke[*AppConfig](i)
	tm := do.MustInvoke[*telemetry.Manager](i)
	sessions := do.MustInvoke[*session.Manager](i)
	handler := api.NewHandler(do.MustInvoke[*auth.Service](i))

	var agg *health.Aggregator
	if cfg.Health.Enabled {
		agg = do.MustInvoke[*health.Aggregator](i)
	}

	return NewHTTPServer(cfg.HTTP, HTTPServerDeps{
		Logger:    logger.GetLogger("http"),
		Telemetry: tm,
		Health:    agg,
		Swagger:   do.MustInvoke[*swagger.Manager](i),
		Routes: func(r gin.IRouter) {
			api.Register(r, handler, sessions)
		},
	})
}
