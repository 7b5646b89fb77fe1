package api_gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/corridor-ledger/internal/api_gateway/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	r := gin.New()
	setupRouter(logger, r,
		handler.NewWalletHandler(logger, nil, nil),
		handler.NewFxHandler(logger, nil),
		handler.NewTransferHandler(logger, nil),
	)
	return r
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	t.Run("HealthNeedsNoCaller", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	})

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/wallets"},
		{http.MethodGet, "/api/v1/wallets/NGN/balance"},
		{http.MethodGet, "/api/v1/wallets/NGN/ledger"},
		{http.MethodPost, "/api/v1/ledger/top-up"},
		{http.MethodGet, "/api/v1/fx/rate"},
		{http.MethodPost, "/api/v1/fx/quote"},
		{http.MethodPost, "/api/v1/transfers"},
		{http.MethodGet, "/api/v1/transfers"},
		{http.MethodPost, "/api/v1/transfers/abc/confirm"},
	}
	for _, rt := range routes {
		t.Run("RejectsAnonymous "+rt.method+" "+rt.path, func(t *testing.T) {
			req, _ := http.NewRequest(rt.method, rt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}

	t.Run("UnknownRoute", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/api/v2/wallets", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
