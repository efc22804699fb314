package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func protected(roles ...Role) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Principal", string(p.Role))
		w.WriteHeader(http.StatusNoContent)
	})
	return AuthMiddleware(testKey)(RequireRole(roles...)(final))
}

func TestAuthMiddleware(t *testing.T) {
	token, err := GenerateToken(Principal{ID: 5, Role: RoleBusiness}, testKey)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		cookie string
		roles  []Role
		want   int
	}{
		{"no token", "", "", []Role{RoleBusiness}, http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", []Role{RoleBusiness}, http.StatusUnauthorized},
		{"bearer", "Bearer " + token, "", []Role{RoleBusiness}, http.StatusNoContent},
		{"cookie", "", token, []Role{RoleBusiness}, http.StatusNoContent},
		{"wrong role", "Bearer " + token, "", []Role{RoleAdmin}, http.StatusForbidden},
		{"any of roles", "Bearer " + token, "", []Role{RoleAdmin, RoleBusiness}, http.StatusNoContent},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			if c.cookie != "" {
				req.AddCookie(&http.Cookie{Name: authCookieName, Value: c.cookie})
			}
			rec := httptest.NewRecorder()
			protected(c.roles...).ServeHTTP(rec, req)
			assert.Equal(t, c.want, rec.Code)
		})
	}
}

func TestAuthMiddlewareRejectsForeignKey(t *testing.T) {
	token, err := GenerateToken(Principal{ID: 5, Role: RoleAdmin}, []byte("another key"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(RoleAdmin).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareRejectsExpired(t *testing.T) {
	claims := JWTClaims{
		SubjectID: 5,
		Role:      RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(RoleAdmin).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
