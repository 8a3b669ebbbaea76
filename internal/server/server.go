package server

import (
	"context"
	"net/http"
	"time"

	"huletfish/internal/auth"
	"huletfish/internal/booking"
	"huletfish/internal/config"
	"huletfish/internal/offering"
	"huletfish/internal/user"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Users     *user.Handler
	Offerings *offering.Handler
	Bookings  *booking.Handler
}

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

// New wires the HTTP API. checks are reported by /health, keyed by
// dependency name.
func New(cfg *config.Config, h Handlers, checks map[string]Check) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware(cfg.CORSOrigins))

	router.GET("/health", Health(checks))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	api := router.Group("/", limiter.Middleware())

	public := api.Group("/auth")
	{
		public.POST("/register", h.Users.Register)
		public.POST("/login", h.Users.Login)
		public.POST("/refresh", h.Users.RefreshToken)
	}

	api.GET("/offerings", h.Offerings.List)
	api.GET("/offerings/:offeringID", h.Offerings.Get)
	api.GET("/offerings/:offeringID/availability", h.Bookings.Availability)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := api.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", h.Users.GetMe)
		protected.POST("/bookings", h.Bookings.Create)
		protected.GET("/bookings", h.Bookings.ListMine)
		protected.GET("/bookings/:bookingID", h.Bookings.Get)
		protected.POST("/bookings/:bookingID/respond", h.Bookings.Respond)
		protected.POST("/bookings/:bookingID/cancel", h.Bookings.Cancel)
	}

	hosts := api.Group("/host")
	hosts.Use(authMiddleware, auth.RequireRole(auth.RoleHost))
	{
		hosts.GET("/offerings", h.Offerings.ListMine)
		hosts.POST("/offerings", h.Offerings.Create)
		hosts.PUT("/offerings/:offeringID", h.Offerings.Update)
		hosts.DELETE("/offerings/:offeringID", h.Offerings.Deactivate)
		hosts.GET("/bookings", h.Bookings.ListHosted)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/hosts/:userID/approve", h.Users.ApproveHost)
		admin.POST("/offerings/:offeringID/approve", h.Offerings.Approve)
		admin.POST("/offerings/:offeringID/reject", h.Offerings.Reject)
		admin.GET("/offerings/:offeringID/bookings", h.Bookings.ListForOffering)
		admin.POST("/bookings/:bookingID/complete", h.Bookings.Complete)
		admin.POST("/bookings/:bookingID/cancel", h.Bookings.Cancel)
		admin.GET("/analytics/bookings", h.Bookings.Stats)
	}

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}
