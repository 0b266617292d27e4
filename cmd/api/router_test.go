package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/learning-intel-api/internal/service"
	"github.com/noah-isme/learning-intel-api/pkg/classifier"
	"github.com/noah-isme/learning-intel-api/pkg/config"
)

func testRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	predictor := service.NewPredictor(classifier.MustDefault())
	metrics := service.NewMetricsService()
	history := service.NewHistoryService(nil, nil, nil, predictor, nil)
	return newRouter(cfg, zap.NewNop(), routerDeps{
		predictions: service.NewPredictionService(nil, predictor, history, metrics, nil, nil),
		history:     history,
		metrics:     metrics,
	})
}

func TestRouterRoutes(t *testing.T) {
	cfg := &config.Config{APIPrefix: "/api/v1", Metrics: config.MetricsConfig{Enabled: true}}
	r := testRouter(t, cfg)

	cases := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/insights/C1", http.StatusOK},
		{http.MethodGet, "/api/v1/insights/C1/runs", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/v1/predict", http.StatusBadRequest},
		{http.MethodGet, "/docs/index.html", http.StatusNotFound},
		{http.MethodGet, "/predict", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterRootPrefixAndDocs(t *testing.T) {
	cfg := &config.Config{Docs: config.DocsConfig{Enabled: true}}
	r := testRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/insights/C9", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Load sample data to get insights")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Learning Intelligence API")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
