package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/KOMKZ/go-yogan-tokenauth/docs"
	"github.com/KOMKZ/go-yogan-tokenauth/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled, "默认应禁用 Swagger")
	assert.Equal(t, "/swagger/*any", cfg.UIPath)
	assert.Equal(t, "/openapi.json", cfg.SpecPath)
	assert.True(t, cfg.DeepLinking)
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{UIPath: "/docs/*any"}
	cfg.ApplyDefaults()
	assert.Equal(t, "/docs/*any", cfg.UIPath)
	assert.Equal(t, "/openapi.json", cfg.SpecPath)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled ignores paths", Config{UIPath: "bad"}, false},
		{"enabled ok", Config{Enabled: true, UIPath: "/swagger/*any", SpecPath: "/openapi.json"}, false},
		{"ui path without wildcard", Config{Enabled: true, UIPath: "/swagger"}, true},
		{"relative spec path", Config{Enabled: true, UIPath: "/swagger/*any", SpecPath: "openapi.json"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManager_Disabled(t *testing.T) {
	log, logs := logger.NewObservedLogger("swagger")
	m := NewManager(DefaultConfig(), log)
	assert.False(t, m.IsEnabled())

	r := gin.New()
	m.RegisterRoutes(r)

	assert.Equal(t, http.StatusNotFound, get(r, "/openapi.json").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/swagger/index.html").Code)
	assert.Equal(t, 1, logs.FilterMessage("Swagger is disabled, skipping route registration").Len())
}

func TestManager_ServesSpecAndUI(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	log, logs := logger.NewObservedLogger("swagger")
	m := NewManager(cfg, log)

	r := gin.New()
	m.RegisterRoutes(r)
	require.Equal(t, 1, logs.FilterMessage("Swagger routes registered").Len())

	w := get(r, "/openapi.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	body := w.Body.String()
	assert.Contains(t, body, `"swagger": "2.0"`)
	assert.Contains(t, body, "/auth/refresh-token/usage")
	assert.Contains(t, body, "BearerAuth")

	w = get(r, "/swagger/index.html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-ui")
}
