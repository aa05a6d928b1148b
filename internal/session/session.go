// Package session issues and verifies the signed session tokens that replace
// the legacy unsigned identity cookie. Tokens are HS256 JWTs; logout places
// the token ID on a redis denylist until the token would have expired.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Xstatic72/alphasis/internal/apperr"
	"github.com/Xstatic72/alphasis/internal/model"
)

const denylistPrefix = "session:revoked:"

// Claims is the session payload: who is acting and as which role.
type Claims struct {
	UserID string     `json:"userId"`
	Role   model.Role `json:"role"`
	Name   string     `json:"name"`
	jwt.RegisteredClaims
}

// Manager signs, parses and revokes session tokens.
type Manager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	redis  *redis.Client
}

// NewManager builds a manager. The redis client may be nil, in which case
// revocation checks are skipped (tests, dev without redis).
func NewManager(key, issuer string, ttl time.Duration, rdb *redis.Client) *Manager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{key: []byte(key), issuer: issuer, ttl: ttl, redis: rdb}
}

// TTL reports the configured session lifetime, used for cookie max-age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a session token for the given identity.
func (m *Manager) Issue(userID string, role model.Role, name string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Parse validates a token's signature, issuer and expiry, and rejects tokens
// whose ID has been revoked.
func (m *Manager) Parse(ctx context.Context, tokenStr string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.key, nil
	})
	if err != nil {
		return Claims{}, apperr.Unauthorizedf("invalid session token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, apperr.Unauthorizedf("invalid session token")
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return Claims{}, apperr.Unauthorizedf("session issuer mismatch")
	}
	if m.redis != nil {
		revoked, err := m.redis.Exists(ctx, denylistPrefix+claims.ID).Result()
		if err == nil && revoked > 0 {
			return Claims{}, apperr.Unauthorizedf("session revoked")
		}
	}
	return *claims, nil
}

// Revoke denylists the token until its expiry. A nil redis client makes this
// a no-op so the cookie removal on the client is still honored.
func (m *Manager) Revoke(ctx context.Context, claims Claims) error {
	if m.redis == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, denylistPrefix+claims.ID, "1", ttl).Err()
}
