package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/app"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/config"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/handlers"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/metrics"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/middleware"
	"github.com/ArowuTest/lottery-ticketing-backend/pkg/jwt"
)

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, svc *app.Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedHosts))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(metrics.GinMiddleware())

	roundHandler := handlers.NewRoundHandler(svc.Rounds, svc.Tickets, svc.Announcement)
	orderHandler := handlers.NewOrderHandler(svc.Checkout, svc.Settlement, svc.Orders)
	adminHandler := handlers.NewAdminHandler(svc.Expiry)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		public.GET("/rounds", roundHandler.ListRounds)
		public.GET("/rounds/:id", roundHandler.GetRound)
		public.GET("/rounds/:id/tickets", roundHandler.ListTickets)
		public.GET("/rounds/:id/check/:number", roundHandler.CheckNumber)
	}

	auth := middleware.JWTAuthMiddleware([]byte(cfg.JWT.Secret))

	// Buyer routes
	buyer := router.Group("/api/v1")
	buyer.Use(auth, middleware.RequireRole(jwt.RoleBuyer, jwt.RoleAdmin))
	{
		buyer.POST("/checkout", orderHandler.Checkout)
		buyer.GET("/orders", orderHandler.ListOrders)
		buyer.GET("/orders/:id", orderHandler.GetOrder)
	}

	// Payment gateway callback
	gateway := router.Group("/api/v1/payments")
	gateway.Use(auth, middleware.RequireRole(jwt.RoleGateway))
	{
		gateway.POST("/confirm", orderHandler.ConfirmPayment)
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(auth, middleware.RequireRole(jwt.RoleAdmin))
	{
		admin.POST("/rounds", roundHandler.CreateRound)
		admin.POST("/rounds/:id/close", roundHandler.CloseRound)
		admin.POST("/rounds/:id/announce", roundHandler.Announce)
		admin.POST("/rounds/:id/tickets", roundHandler.UploadTickets)
		admin.DELETE("/tickets/:id", roundHandler.DeleteTicket)
		admin.POST("/orders/:id/cancel", orderHandler.CancelOrder)
		admin.POST("/reaper/run", adminHandler.RunReaper)
	}

	return router
}
