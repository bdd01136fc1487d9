package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/langbridge/internal/interface/http"
	"github.com/oksasatya/langbridge/internal/interface/middleware"
)

// AuthModule wires account routes.
// Public: POST /auth/signup, /auth/login, /auth/refresh
// Protected: POST /auth/logout, /auth/onboarding, GET /auth/me
type AuthModule struct {
	Handler *handlers.AuthHandler
	Guard   gin.HandlerFunc
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, guard gin.HandlerFunc, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Guard: guard, Redis: rdb}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/signup", middleware.RateLimit(m.Redis, signupLimit, nil), m.Handler.Signup)
	a.POST("/login", middleware.RateLimit(m.Redis, loginLimit, nil), m.Handler.Login)
	a.POST("/refresh", middleware.RateLimit(m.Redis, refreshLimit, nil), m.Handler.Refresh)

	auth := a.Group("/")
	auth.Use(m.Guard, middleware.RateLimit(m.Redis, userLimit, nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/onboarding", m.Handler.Onboarding)
		auth.GET("/me", m.Handler.Me)
	}
}
