package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/langbridge/internal/interface/http"
	"github.com/oksasatya/langbridge/internal/interface/middleware"
)

// FriendModule wires the friend request lifecycle, friend lists,
// recommendations and the notification feed. Every route requires auth.
type FriendModule struct {
	Handler *handlers.FriendHandler
	Guard   gin.HandlerFunc
	Redis   *redis.Client
}

func NewFriendModule(h *handlers.FriendHandler, guard gin.HandlerFunc, rdb *redis.Client) *FriendModule {
	return &FriendModule{Handler: h, Guard: guard, Redis: rdb}
}

func (m *FriendModule) Name() string { return "friends" }

func (m *FriendModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(
		m.Guard,
		middleware.RateLimit(m.Redis, socialLimit, nil),
		middleware.RateLimit(m.Redis, userLimit, nil),
	)

	// Sending is the one write a client could spam.
	users.POST("/friend-request/:id", middleware.RateLimit(m.Redis, sendLimit, nil), m.Handler.SendRequest)
	users.PUT("/friend-request/:id/accept", m.Handler.AcceptRequest)
	users.PUT("/friend-request/:id/accept-now", m.Handler.AcceptNow)
	users.PUT("/friend-request/:id/reject", m.Handler.RejectRequest)

	users.GET("/friend-requests", m.Handler.FriendRequests)
	users.GET("/outgoing-friend-requests", m.Handler.FriendRequests)
	users.GET("/rejected-friend-requests", m.Handler.RejectedRequests)
	users.GET("/friends", m.Handler.Friends)
	users.GET("/recommends", m.Handler.Recommends)
	users.GET("/notifications", m.Handler.Notifications)
}
