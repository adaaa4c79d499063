package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/vetlink/internal/config"
	"github.com/vetlink/vetlink/internal/domain"
	"github.com/vetlink/vetlink/pkg/auth"
)

func testRouter(t *testing.T, jwt *auth.JWTManager, roles ...domain.Role) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	handlers := []gin.HandlerFunc{Authenticate(jwt)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"username": claims.Username})
	})
	r.GET("/protected", handlers...)
	return r
}

func newTestJWT() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "middleware-test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "vetlink-test",
	})
}

func tokenFor(t *testing.T, jwt *auth.JWTManager, role domain.Role) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(&domain.Claims{
		UserID:   uuid.New(),
		Username: "petowner",
		Email:    "owner@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return pair.AccessToken
}

func get(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	jwt := newTestJWT()
	r := testRouter(t, jwt)

	w := get(r, "Bearer "+tokenFor(t, jwt, domain.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "petowner")
}

func TestAuthenticateRejections(t *testing.T) {
	jwt := newTestJWT()
	r := testRouter(t, jwt)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code, "missing header")
	assert.Equal(t, http.StatusUnauthorized, get(r, "Basic dXNlcjpwYXNz").Code, "wrong scheme")
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer not-a-token").Code, "garbage token")

	other := auth.NewJWTManager(config.JWTConfig{
		Secret:          "another-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Issuer:          "vetlink-test",
	})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+tokenFor(t, other, domain.RoleUser)).Code, "foreign signature")
}

func TestAuthenticateAcceptsLowercaseScheme(t *testing.T) {
	jwt := newTestJWT()
	r := testRouter(t, jwt)

	w := get(r, "bearer "+tokenFor(t, jwt, domain.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	jwt := newTestJWT()
	r := testRouter(t, jwt, domain.RoleSuperAdmin, domain.RoleVeterinarian)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+tokenFor(t, jwt, domain.RoleVeterinarian)).Code)
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+tokenFor(t, jwt, domain.RoleSuperAdmin)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "Bearer "+tokenFor(t, jwt, domain.RoleUser)).Code)
}
