package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stockdata-backend/services"
)

func setupSubscriptionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sc := NewSubscriptionController(services.NewSubscriptionRegistry(stubGateway{}))

	router := gin.New()
	router.POST("/api/stock/subscription/:ticker/subscribe", sc.Subscribe)
	router.POST("/api/stock/subscription/:ticker/unsubscribe", sc.Unsubscribe)
	router.GET("/api/stock/subscription/:ticker/status", sc.GetStatus)
	router.GET("/api/stock/subscription/active", sc.GetActiveCount)
	return router
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubscribeLifecycle(t *testing.T) {
	router := setupSubscriptionRouter(t)

	w := do(router, http.MethodPost, "/api/stock/subscription/005930/subscribe")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribers":1`)

	w = do(router, http.MethodPost, "/api/stock/subscription/005930/subscribe")
	assert.Contains(t, w.Body.String(), `"subscribers":2`)

	w = do(router, http.MethodGet, "/api/stock/subscription/005930/status")
	assert.Contains(t, w.Body.String(), `"active":true`)

	w = do(router, http.MethodGet, "/api/stock/subscription/active")
	assert.Contains(t, w.Body.String(), `"active_instruments":1`)

	do(router, http.MethodPost, "/api/stock/subscription/005930/unsubscribe")
	w = do(router, http.MethodPost, "/api/stock/subscription/005930/unsubscribe")
	assert.Contains(t, w.Body.String(), `"subscribers":0`)

	w = do(router, http.MethodGet, "/api/stock/subscription/005930/status")
	assert.Contains(t, w.Body.String(), `"active":false`)
}
