package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/langbridge/internal/domain/entity"
	"github.com/oksasatya/langbridge/internal/infrastructure/memory"
	"github.com/oksasatya/langbridge/pkg/helpers"
)

func authEngine(t *testing.T) (*gin.Engine, *memory.Store, *helpers.JWTManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	jwt := helpers.NewJWTManager("a", "r", time.Hour, time.Hour)

	r := gin.New()
	r.GET("/me", Auth(jwt, store.Sessions(), store.Users()), func(c *gin.Context) {
		auth, ok := AuthFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"uid": auth.UserID, "rl": c.GetString(CtxUserIDKey)})
	})
	return r, store, jwt
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r, store, jwt := authEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "u1", Email: "u1@example.com"}))
	require.NoError(t, store.Sessions().Save(ctx, "u1", map[string]any{"sid": "s1"}))

	good, _, err := jwt.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	stale, _, err := jwt.GenerateAccessToken("u1", "s0")
	require.NoError(t, err)
	ghost, _, err := jwt.GenerateAccessToken("ghost", "s1")
	require.NoError(t, err)
	require.NoError(t, store.Sessions().Save(ctx, "ghost", map[string]any{"sid": "s1"}))

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+good) }, http.StatusOK},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: good})
		}, http.StatusOK},
		{"replaced session", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+stale) }, http.StatusUnauthorized},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+ghost) }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"uid":"u1","rl":"u1"}`, w.Body.String())
			}
		})
	}
}

func TestAuth_LoggedOut(t *testing.T) {
	r, store, jwt := authEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "u1", Email: "u1@example.com"}))
	require.NoError(t, store.Sessions().Save(ctx, "u1", map[string]any{"sid": "s1"}))
	tok, _, err := jwt.GenerateAccessToken("u1", "s1")
	require.NoError(t, err)
	require.NoError(t, store.Sessions().Delete(ctx, "u1"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	incoming := "3f1c1f9e-9c55-4f4e-8c8b-0a6f5d1f2b7a"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	w := serve(r, req)
	assert.Equal(t, incoming, w.Body.String())
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = serve(r, req)
	assert.NotEqual(t, "not-a-uuid", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRealIPKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "198.51.100.2", serve(r, req).Body.String())
}

func TestRateLimit_NoRedisPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RateLimit(nil, Limit{Name: "t", Max: 1, Window: time.Minute, Key: KeyByIP()}, nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestAllowPrivateIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"10.1.2.3": true, "127.0.0.1": true, "8.8.8.8": false, "::1": true, "junk": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set(CtxRealIPKey, ip)
		assert.Equal(t, want, allow(c), ip)
	}
}
