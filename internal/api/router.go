package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/topup-store/internal/handlers"
	"github.com/akylbek/payment-system/topup-store/internal/middleware"
	"github.com/akylbek/payment-system/topup-store/internal/service"
	"github.com/akylbek/payment-system/topup-store/internal/telemetry"
)

type Services struct {
	Catalog   *service.Catalog
	Ledger    *service.Ledger
	Payments  *service.PaymentSimulator
	JWTSecret string
}

func NewRouter(s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.RequestIDMiddleware())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health-check", handlers.HealthCheck(nil))

	// Public catalog
	catalog := handlers.NewCatalogHandler(s.Catalog)
	r.GET("/", catalog.Home)
	r.GET("/games", catalog.ListGames)
	r.GET("/games/:slug", catalog.GetGame)
	r.GET("/vouchers", catalog.ListVouchers)
	r.GET("/vouchers/:slug", catalog.GetVoucher)

	auth := r.Group("/", middleware.Auth(s.JWTSecret))

	transactions := handlers.NewTransactionHandler(s.Ledger)
	auth.GET("/transactions", transactions.List)
	auth.POST("/transactions", transactions.Create)
	auth.GET("/transactions/:id", transactions.Get)

	payments := handlers.NewPaymentHandler(s.Payments)
	auth.GET("/payments/:id", payments.Show)
	auth.POST("/payments/:id", payments.Pay)
	auth.GET("/payment-success/:id", payments.Receipt)

	admin := handlers.NewAdminGameHandler(s.Catalog)
	adminGames := auth.Group("/admin/games")
	adminGames.GET("", admin.List)
	adminGames.POST("", admin.Create)
	adminGames.GET("/:id", admin.Show)
	adminGames.PUT("/:id", admin.Update)
	adminGames.PATCH("/:id", admin.Update)
	adminGames.DELETE("/:id", admin.Delete)

	return r
}
