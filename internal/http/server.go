// README: API gateway; registers gin routes per actor and delegates to module services.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"gazflow/internal/http/handlers"
	"gazflow/internal/http/middleware"
	"gazflow/internal/infra"
	"gazflow/internal/modules/relay"
	"gazflow/internal/types"
)

type ServerDeps struct {
	Verifier infra.TokenVerifier
	Profiles interface {
		middleware.ProfileResolver
		handlers.ProfileService
	}
	Orders   handlers.OrderService
	Dispatch handlers.DispatchService
	Tracking handlers.TrackingService
	Wallet   handlers.WalletService
	Catalog  handlers.CatalogService
	Insights handlers.InsightsService
	Hub      relay.Hub

	RequestTimeout time.Duration
	// PresenceRate bounds presence writes per driver; zero uses 1/s with burst 5.
	PresenceRate rate.Limit
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	if deps.PresenceRate == 0 {
		deps.PresenceRate = 1
	}
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	d := s.deps
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	auth := middleware.Auth(d.Verifier, d.Profiles)
	timeout := middleware.Timeout(d.RequestTimeout)

	orderHandler := handlers.NewOrderHandler(d.Orders, d.Dispatch, d.Tracking)
	driverHandler := handlers.NewDriverHandler(d.Orders, d.Dispatch, d.Profiles, d.Wallet)
	profileHandler := handlers.NewProfileHandler(d.Profiles, d.Catalog)
	adminHandler := handlers.NewAdminHandler(handlers.AdminDeps{
		Orders:   d.Orders,
		Dispatch: d.Dispatch,
		Tracking: d.Tracking,
		Profiles: d.Profiles,
		Wallet:   d.Wallet,
		Insights: d.Insights,
	})
	streamHandler := handlers.NewStreamHandler(d.Hub)

	api := r.Group("/api", auth, timeout)
	api.GET("/me", profileHandler.Me)
	api.GET("/catalog", profileHandler.Catalog)
	api.GET("/orders/active", orderHandler.Active)
	api.GET("/orders/history", orderHandler.History)
	api.POST("/orders", orderHandler.Create)
	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/tracking", orderHandler.Tracking)
	api.POST("/orders/:id/confirm", orderHandler.Confirm)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)
	api.POST("/orders/:id/transition", orderHandler.Transition)

	driver := api.Group("/driver", middleware.RequireRole(types.RoleDriver))
	driver.GET("/orders", driverHandler.ListOrders)
	driver.POST("/orders/:id/accept", driverHandler.Accept)
	driver.POST("/orders/:id/start", driverHandler.Start)
	driver.POST("/orders/:id/arrive", driverHandler.Arrive)
	driver.POST("/orders/:id/deliver", driverHandler.Deliver)
	driver.PUT("/presence", middleware.RateLimit(d.PresenceRate, 5), driverHandler.Presence)
	driver.GET("/wallet", driverHandler.Wallet)

	admin := api.Group("/admin", middleware.RequireRole(types.RoleAdmin))
	admin.GET("/orders", adminHandler.Orders)
	admin.POST("/orders/:id/assign", adminHandler.Assign)
	admin.POST("/orders/:id/cancel", orderHandler.Cancel)
	admin.GET("/drivers", adminHandler.Drivers)
	admin.GET("/drivers/:id/wallet", adminHandler.DriverWallet)
	admin.GET("/board", adminHandler.Board)
	admin.GET("/users", adminHandler.Users)
	admin.PUT("/users/:id/role", adminHandler.SetRole)
	admin.PUT("/users/:id/kyc", adminHandler.SetKYC)
	admin.GET("/dashboard", adminHandler.Dashboard)

	// Streams stay open; they get auth but no request timeout.
	r.GET("/api/stream/:topic", auth, streamHandler.Stream)

	return r
}
