package api

import (
	"github.com/KOMKZ/go-yogan-tokenauth/auth"
	"github.com/KOMKZ/go-yogan-tokenauth/httpx"
	"github.com/KOMKZ/go-yogan-tokenauth/middleware"
	"github.com/gin-gonic/gin"
)

// Register mounts every route. Protected groups authenticate through v.
func Register(r gin.IRouter, h *Handler, v middleware.TokenValidator) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", httpx.Wrap(h.Register))
		authGroup.POST("/login", httpx.Wrap(h.Login))
		authGroup.POST("/refresh", httpx.Wrap(h.Refresh))
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/refresh-token/usage", httpx.Wrap(h.RefreshUsage))
	}

	users := r.Group("/users", middleware.Auth(v))
	{
		users.GET("/me", httpx.Wrap(h.Me))
		users.PUT("/me/password", httpx.Wrap(h.ChangePassword))
	}

	admin := r.Group("/admin", middleware.Auth(v), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/users/:id/ban", httpx.Wrap(h.BanUser))
		admin.POST("/users/:id/unban", httpx.Wrap(h.UnbanUser))
		admin.POST("/users/:id/sessions/revoke", httpx.Wrap(h.RevokeSessions))
	}
}
