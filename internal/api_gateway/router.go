package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/corridor-ledger/internal/api_gateway/handler"
	"github.com/corridor-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	fxHandler *handler.FxHandler,
	transferHandler *handler.TransferHandler,
) {
	// Recovery sits inside Logger so a panicked request still gets its 500 access line
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))

	// API v1 endpoints, all scoped to the calling business
	v1 := r.Group("/api/v1", middleware.Caller())
	{
		wallets := v1.Group("/wallets")
		{
			wallets.GET("", walletHandler.List)
			wallets.GET("/:currency/balance", walletHandler.Balance)
			wallets.GET("/:currency/ledger", walletHandler.Statement)
		}

		v1.POST("/ledger/top-up", walletHandler.TopUp)

		fx := v1.Group("/fx")
		{
			fx.GET("/rate", fxHandler.LatestRate)
			fx.POST("/quote", fxHandler.CreateQuote)
			fx.GET("/quotes/:id", fxHandler.GetQuote)
		}

		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandler.Create)
			transfers.GET("", transferHandler.List)
			transfers.GET("/:id", transferHandler.GetByID)
			transfers.POST("/:id/confirm", transferHandler.Confirm)
		}
	}

	// Health check endpoint for monitoring
	r.GET(middleware.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
