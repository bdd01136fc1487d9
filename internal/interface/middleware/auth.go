package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/langbridge/internal/application"
	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/domain/repository"
	"github.com/oksasatya/langbridge/pkg/helpers"
	"github.com/oksasatya/langbridge/pkg/response"
)

const (
	CtxAuthKey   = "auth"
	CtxUserIDKey = "userID"
)

// Auth validates the access token (cookie first, then Bearer header), checks
// that it belongs to the user's current session and that the user still exists.
// On success the request carries an entity.AuthContext.
func Auth(jwt *helpers.JWTManager, sessions application.SessionStore, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "Unauthorized - No token provided", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "Unauthorized - Invalid token", nil)
			return
		}
		ctx := c.Request.Context()

		if sessions != nil {
			sid, err := sessions.SessionID(ctx, claims.UserID)
			if err != nil || sid == "" || sid != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "Unauthorized - Session expired", nil)
				return
			}
		}

		if _, err := users.GetByID(ctx, claims.UserID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				response.Abort(c, http.StatusNotFound, "User not found", nil)
				return
			}
			response.Abort(c, http.StatusInternalServerError, "Internal Server Error", nil)
			return
		}

		c.Set(CtxAuthKey, entity.AuthContext{UserID: claims.UserID, SessionID: claims.SessionID})
		c.Set(CtxUserIDKey, claims.UserID) // rate limit key
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AuthFrom returns the caller set by Auth.
func AuthFrom(c *gin.Context) (entity.AuthContext, bool) {
	v, ok := c.Get(CtxAuthKey)
	if !ok {
		return entity.AuthContext{}, false
	}
	auth, ok := v.(entity.AuthContext)
	return auth, ok
}
