package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/KOMKZ/go-yogan-tokenauth/health"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/KOMKZ/go-yogan-tokenauth/middleware"
	"github.com/KOMKZ/go-yogan-tokenauth/swagger"
	"github.com/KOMKZ/go-yogan-tokenauth/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPServerDeps collaborators of the API server. Everything except Logger may be nil.
type HTTPServerDeps struct {
	Logger    *logger.CtxZapLogger
	Telemetry *telemetry.Manager
	Health    *health.Aggregator
	Swagger   *swagger.Manager
	Routes    func(r gin.IRouter)
}

// HTTPServer gin engine plus its net/http server
type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	cfg    HTTPConfig
	logger *logger.CtxZapLogger

	mu   sync.Mutex
	addr net.Addr
}

// NewHTTPServer builds the engine. Middleware order matters:
// otelgin opens the span and TraceID reads it; Recovery sits innermost so a panic
// still shows up in the request log and the metrics as a 500.
func NewHTTPServer(cfg HTTPConfig, deps HTTPServerDeps) (*HTTPServer, error) {
	cfg.ApplyDefaults()
	log := deps.Logger
	if log == nil {
		log = logger.GetLogger("http")
	}

	// 接管 gin 自身的输出（路由注册、debug 警告）
	gin.DefaultWriter = logger.NewGinLogWriter(log)
	gin.DefaultErrorWriter = logger.NewGinLogWriter(log)
	gin.SetMode(cfg.Mode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	if cfg.CORS.Enabled {
		engine.Use(middleware.CORS(cfg.CORS))
	}

	if deps.Telemetry != nil && deps.Telemetry.IsEnabled() {
		engine.Use(otelgin.Middleware(deps.Telemetry.ServiceName(),
			otelgin.WithTracerProvider(deps.Telemetry.TracerProvider())))
	}

	engine.Use(middleware.TraceID())

	if cfg.RequestLog.Enabled {
		engine.Use(middleware.RequestLog(log, cfg.RequestLog.SkipPaths...))
	}
	if cfg.ErrorLogging.Enable {
		engine.Use(httpx.ErrorLoggingMiddleware(cfg.ErrorLogging))
	}

	if cfg.Metrics {
		var meter metric.Meter
		if deps.Telemetry != nil {
			meter = deps.Telemetry.Meter("tokenauthd/http")
		}
		httpMetrics, err := middleware.NewHTTPMetrics(meter)
		if err != nil {
			return nil, fmt.Errorf("create http metrics: %w", err)
		}
		engine.Use(httpMetrics.Handler())
	}

	engine.Use(middleware.Recovery(log))

	engine.NoRoute(httpx.NoRouteHandler())
	engine.NoMethod(httpx.NoMethodHandler())

	engine.GET("/livez", middleware.LivenessHandler())
	if deps.Health != nil {
		engine.GET("/healthz", middleware.HealthHandler(deps.Health))
	}
	if deps.Swagger != nil {
		deps.Swagger.RegisterRoutes(engine)
	}
	if deps.Routes != nil {
		deps.Routes(engine)
	}

	return &HTTPServer{
		engine: engine,
		cfg:    cfg,
		logger: log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}, nil
}

// Engine exposes the router, e.g. for httptest
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

// Addr is the bound address once Serve has started listening, nil before
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe binds cfg.Addr and blocks until Shutdown. A clean shutdown returns nil.
func (s *HTTPServer) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("端口 %s 不可用: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

func (s *HTTPServer) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("HTTP server listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("mode", s.cfg.Mode))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP 服务异常退出: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires. Safe to call more than once.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP Server 关闭失败: %w", err)
	}
	s.logger.Debug("HTTP server closed")
	return nil
}
