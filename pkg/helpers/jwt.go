package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "langbridge"
	clockLeeway = 30 * time.Second
	audAccess   = "access"
	audRefresh  = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims bind a token to a user and the login session it was issued for.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type tokenKind struct {
	audience string
	secret   []byte
	ttl      time.Duration
}

// JWTManager signs and verifies HS256 access and refresh tokens. The two kinds
// carry different audiences, so one never verifies as the other even when the
// secrets are equal.
type JWTManager struct {
	access  tokenKind
	refresh tokenKind
	now     func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		access:  tokenKind{audience: audAccess, secret: []byte(accessSecret), ttl: accessTTL},
		refresh: tokenKind{audience: audRefresh, secret: []byte(refreshSecret), ttl: refreshTTL},
		now:     time.Now,
	}
}

func (m *JWTManager) AccessTTL() time.Duration  { return m.access.ttl }
func (m *JWTManager) RefreshTTL() time.Duration { return m.refresh.ttl }

func (m *JWTManager) GenerateAccessToken(userID, sessionID string) (string, time.Time, error) {
	return m.sign(m.access, userID, sessionID)
}

func (m *JWTManager) GenerateRefreshToken(userID, sessionID string) (string, time.Time, error) {
	return m.sign(m.refresh, userID, sessionID)
}

func (m *JWTManager) ParseAccessToken(token string) (*Claims, error) {
	return m.parse(m.access, token)
}

func (m *JWTManager) ParseRefreshToken(token string) (*Claims, error) {
	return m.parse(m.refresh, token)
}

func (m *JWTManager) sign(k tokenKind, userID, sessionID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(k.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{k.audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	s, err := t.SignedString(k.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", k.audience, err)
	}
	return s, exp, nil
}

func (m *JWTManager) parse(k tokenKind, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return k.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(k.audience),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing subject or session", ErrInvalidToken)
	}
	return claims, nil
}
