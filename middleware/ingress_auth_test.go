package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdata-backend/config"
)

func setupIngressRouter(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig
	config.AppConfig = &config.Config{IngressSecret: secret}
	t.Cleanup(func() { config.AppConfig = prev })

	router := gin.New()
	router.POST("/ingress", IngressAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	claims := IngressClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
		Source: "quote-provider",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func postWithAuth(router *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ingress", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngressAuthPassThroughWithoutSecret(t *testing.T) {
	router := setupIngressRouter(t, "")

	w := postWithAuth(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngressAuthValidToken(t *testing.T) {
	router := setupIngressRouter(t, "test-secret")

	token := signToken(t, "test-secret", time.Hour)
	w := postWithAuth(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIngressAuthMissingHeader(t *testing.T) {
	router := setupIngressRouter(t, "test-secret")

	w := postWithAuth(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngressAuthBadFormat(t *testing.T) {
	router := setupIngressRouter(t, "test-secret")

	w := postWithAuth(router, "Token abc123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngressAuthWrongSecret(t *testing.T) {
	router := setupIngressRouter(t, "test-secret")

	token := signToken(t, "other-secret", time.Hour)
	w := postWithAuth(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngressAuthExpiredToken(t *testing.T) {
	router := setupIngressRouter(t, "test-secret")

	token := signToken(t, "test-secret", -time.Hour)
	w := postWithAuth(router, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
