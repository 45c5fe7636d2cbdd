// Package swagger serves the generated OpenAPI document and Swagger UI.
package swagger

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// InstanceName docs 包注册到 swag 时使用的名字
const InstanceName = "swagger"

// Manager 挂载 Swagger 路由
// 文档本身来自 docs 包（swag init 生成），调用方需要 import _ 该包
type Manager struct {
	config Config
	logger *logger.CtxZapLogger
}

func NewManager(cfg Config, log *logger.CtxZapLogger) *Manager {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.GetLogger("swagger")
	}
	return &Manager{config: cfg, logger: log}
}

func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// RegisterRoutes 关闭时什么都不做
func (m *Manager) RegisterRoutes(r gin.IRoutes) {
	if !m.config.Enabled {
		m.logger.Debug("Swagger is disabled, skipping route registration")
		return
	}
	if swag.GetSwagger(InstanceName) == nil {
		m.logger.Warn("swagger doc not registered, UI will show an error", zap.String("instance", InstanceName))
	}

	r.GET(m.config.UIPath, ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(InstanceName),
		ginSwagger.DeepLinking(m.config.DeepLinking),
		ginSwagger.PersistAuthorization(m.config.PersistAuthorization),
		ginSwagger.DocExpansion("list"),
	))
	if m.config.SpecPath != "" {
		r.GET(m.config.SpecPath, m.serveSpec)
	}

	m.logger.Info("Swagger routes registered",
		zap.String("ui_path", m.config.UIPath),
		zap.String("spec_path", m.config.SpecPath))
}

func (m *Manager) serveSpec(c *gin.Context) {
	doc, err := swag.ReadDoc(InstanceName)
	if err != nil {
		httpx.HandleError(c, ErrDocNotFound.Wrap(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
