package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/langbridge/internal/interface/http"
	"github.com/oksasatya/langbridge/internal/interface/middleware"
)

// UserModule wires profile extras: search, avatar upload and chat tokens.
type UserModule struct {
	Handler *handlers.UserHandler
	Guard   gin.HandlerFunc
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, guard gin.HandlerFunc, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Guard: guard, Redis: rdb}
}

func (m *UserModule) Name() string { return "users" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	perUser := middleware.RateLimit(m.Redis, userLimit, nil)
	uploadLimiter := middleware.RateLimit(m.Redis, uploadLimit, nil)

	rg.GET("/users/search", m.Guard, perUser, m.Handler.Search)
	rg.POST("/users/me/avatar", m.Guard, uploadLimiter, m.Handler.UploadAvatar)
	rg.GET("/chat/token", m.Guard, perUser, m.Handler.ChatToken)
}
