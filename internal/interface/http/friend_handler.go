package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/notification"
	"github.com/oksasatya/langbridge/pkg/response"
	"github.com/oksasatya/langbridge/pkg/validation"
)

type FriendHandler struct {
	Svc            *application.FriendService
	Logger         *logrus.Logger
	RecommendLimit int
}

func NewFriendHandler(svc *application.FriendService, logger *logrus.Logger, recommendLimit int) *FriendHandler {
	return &FriendHandler{Svc: svc, Logger: logger, RecommendLimit: recommendLimit}
}

type recommendQuery struct {
	Limit int `form:"limit" binding:"gte=0,lte=50"`
}

// SendRequest POST /api/users/friend-request/:id
func (h *FriendHandler) SendRequest(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	fr, err := h.Svc.Send(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, fr, "friend request sent", nil)
}

type transitionFunc func(ctx context.Context, auth entity.AuthContext, requestID string) (*entity.FriendRequest, error)

func (h *FriendHandler) transition(c *gin.Context, message string, fn transitionFunc) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	fr, err := fn(c.Request.Context(), auth, c.Param("id"))
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, fr, message, nil)
}

// AcceptRequest PUT /api/users/friend-request/:id/accept
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	h.transition(c, "friend request accepted", h.Svc.Accept)
}

// AcceptNow PUT /api/users/friend-request/:id/accept-now
func (h *FriendHandler) AcceptNow(c *gin.Context) {
	h.transition(c, "friend request accepted", h.Svc.AcceptRejected)
}

// RejectRequest PUT /api/users/friend-request/:id/reject
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	h.transition(c, "friend request rejected", h.Svc.Reject)
}

// FriendRequests GET /api/users/friend-requests and /api/users/outgoing-friend-requests
func (h *FriendHandler) FriendRequests(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	b, err := h.Svc.ListForUser(c.Request.Context(), auth)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, b, "friend requests", nil)
}

// RejectedRequests GET /api/users/rejected-friend-requests
func (h *FriendHandler) RejectedRequests(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	view, err := h.Svc.Rejected(c.Request.Context(), auth)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, view, "rejected friend requests", nil)
}

// Friends GET /api/users/friends
func (h *FriendHandler) Friends(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	users, err := h.Svc.Friends(c.Request.Context(), auth)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, summaries(users), "friends", nil)
}

// Recommends GET /api/users/recommends?limit=
func (h *FriendHandler) Recommends(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	var q recommendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	if q.Limit == 0 {
		q.Limit = h.RecommendLimit
	}
	users, err := h.Svc.Recommend(c.Request.Context(), auth, q.Limit)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":                u.ID,
			"full_name":         u.FullName,
			"profile_pic":       u.ProfilePic,
			"bio":               u.Bio,
			"native_language":   u.NativeLanguage,
			"learning_language": u.LearningLanguage,
			"location":          u.Location,
		})
	}
	response.Success(c, http.StatusOK, out, "recommended users", gin.H{"count": len(out)})
}

// Notifications GET /api/users/notifications?seen=id1,id2
func (h *FriendHandler) Notifications(c *gin.Context) {
	auth, ok := caller(c)
	if !ok {
		return
	}
	seen := notification.ParseSeenSet(strings.Join(c.QueryArray("seen"), ","))
	feed, err := h.Svc.Notifications(c.Request.Context(), auth, seen)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, feed, "notifications", gin.H{"unread": feed.Unread})
}

func summaries(users []*entity.User) []*entity.UserSummary {
	out := make([]*entity.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}
