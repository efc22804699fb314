package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Role is what a session may do
type Role string

// Session roles
const (
	RoleUser     Role = "user"
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
)

type contextKey string

const (
	// PrincipalKey is the key for the authenticated principal in the request context
	PrincipalKey contextKey = "principal"
	// Authentication-related constants
	jwtExpirationTime = 24 * time.Hour
	authCookieName    = "auth_token"
	bearerSchema      = "Bearer "
)

// Principal is the authenticated caller. ID is a user id for RoleUser and a
// business id for RoleBusiness.
type Principal struct {
	ID   int64
	Role Role
}

// JWTClaims represents JWT claims
type JWTClaims struct {
	SubjectID int64 `json:"sid"`
	Role      Role  `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken generates a session token for a principal
func GenerateToken(p Principal, key []byte) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		SubjectID: p.ID,
		Role:      p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpirationTime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// AuthMiddleware creates middleware that checks if the caller is authenticated
func AuthMiddleware(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header or cookie
			tokenString := extractToken(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims := &JWTClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || !token.Valid || claims.SubjectID <= 0 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{ID: claims.SubjectID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only principals holding one of roles
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// extractToken extracts JWT token from Authorization header or cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, bearerSchema) {
		return strings.TrimPrefix(authHeader, bearerSchema)
	}

	cookie, err := r.Cookie(authCookieName)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal extracts the principal from request context
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}
