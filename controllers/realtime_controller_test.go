package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"stockdata-backend/models"
	"stockdata-backend/services"
)

type stubGateway struct{}

func (stubGateway) Start(ticker string) error { return nil }
func (stubGateway) Stop(ticker string) error  { return nil }
func (stubGateway) Fetch(ticker, resolution string, period int) ([]models.Candle, error) {
	return nil, nil
}
func (stubGateway) FetchInfo(ticker string) (*models.StockInfo, error) { return nil, nil }

func setupRealtimeRouter(t *testing.T) (*gin.Engine, *services.SubscriptionRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := services.NewSubscriptionRegistry(stubGateway{})
	hub := services.NewHub()
	t.Cleanup(hub.Shutdown)
	broadcaster := services.NewBroadcaster(registry, hub)

	rc := NewRealtimeController(broadcaster, nil, nil, hub)

	router := gin.New()
	router.POST("/api/stock/realtime/summary", rc.IngestSummary)
	router.POST("/api/stock/realtime/detail", rc.IngestDetail)
	router.POST("/api/stock/realtime/execution", rc.IngestExecution)
	router.GET("/api/stock/realtime/snapshot/:ticker", rc.GetSnapshot)
	router.GET("/api/stock/realtime/status", rc.GetHubStatus)
	return router, registry
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIngestSummaryPublished(t *testing.T) {
	router, _ := setupRealtimeRouter(t)

	w := postJSON(router, "/api/stock/realtime/summary", `{"ticker":"005930","price":71000}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "published")
}

func TestIngestSummaryMissingTickerDropped(t *testing.T) {
	router, _ := setupRealtimeRouter(t)

	w := postJSON(router, "/api/stock/realtime/summary", `{"price":71000}`)

	// Ingress is fire-and-forget: bad events are acknowledged, not retried
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dropped")
}

func TestIngestSummaryMalformedBodyDropped(t *testing.T) {
	router, _ := setupRealtimeRouter(t)

	w := postJSON(router, "/api/stock/realtime/summary", `{not json`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dropped")
}

func TestIngestDetailGatedOnSubscription(t *testing.T) {
	router, registry := setupRealtimeRouter(t)

	body := `{"ticker":"005930","price":71000}`

	w := postJSON(router, "/api/stock/realtime/detail", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dropped")

	registry.Subscribe("005930")

	w = postJSON(router, "/api/stock/realtime/detail", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "published")
}

func TestIngestExecutionGatedOnSubscription(t *testing.T) {
	router, registry := setupRealtimeRouter(t)
	registry.Subscribe("005930")

	w := postJSON(router, "/api/stock/realtime/execution", `{"ticker":"005930","price":71000,"volume":10}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "published")

	w = postJSON(router, "/api/stock/realtime/execution", `{"ticker":"000660","price":100000,"volume":5}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dropped")
}

func TestGetSnapshotUnavailableWithoutStore(t *testing.T) {
	router, _ := setupRealtimeRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/realtime/snapshot/005930", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetHubStatus(t *testing.T) {
	router, _ := setupRealtimeRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stock/realtime/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "connected_clients")
}
