// Package auth is the authentication collaborator: it resolves a login
// against the fixed roster and hands the lifecycle code a trusted identity.
// Credential checking is plain-text against the seeded roster.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lockvest/investment-engine/internal/domain"
	"github.com/lockvest/investment-engine/internal/repository"
	apperrors "github.com/lockvest/investment-engine/pkg/errors"
	"github.com/lockvest/investment-engine/pkg/response"
)

type contextKey struct{}

var userKey contextKey

// Claims carries the roster identity inside the token.
type Claims struct {
	UserID        int64  `json:"uid"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	WalletAddress string `json:"wallet"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(users repository.UserRepository, secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Login resolves the credentials against the roster and issues a signed token
// carrying (userId, displayName, role, walletRef).
func (m *TokenManager) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := m.users.GetByCredentials(ctx, req.Username, req.Password, req.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapUserNotFound(req.Username)
	}
	if err != nil {
		return nil, apperrors.WrapStorageError(err)
	}

	now := time.Now()
	claims := &Claims{
		UserID:        user.ID,
		Username:      user.Username,
		Name:          user.Name,
		Role:          user.Role,
		WalletAddress: user.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResponse{Token: token, User: user}, nil
}

// Parse validates a token and reconstructs the identity it carries.
func (m *TokenManager) Parse(tokenString string) (*domain.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return &domain.User{
		ID:            claims.UserID,
		Username:      claims.Username,
		Name:          claims.Name,
		Role:          claims.Role,
		WalletAddress: claims.WalletAddress,
	}, nil
}

// Middleware extracts the bearer token and injects the identity into the
// request context. Downstream code trusts it without further verification.
func (m *TokenManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(w, "missing bearer token")
			return
		}

		user, err := m.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireRole guards a subtree for one role tag.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user.Role != role {
				response.Forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userKey).(*domain.User)
	return user, ok
}
