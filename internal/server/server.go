// Package server exposes the settlement services over HTTP. Guests join a
// check by QR token and get a bearer token scoped to that check; staff log
// in with shared venue credentials and see every check.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/live"
	"github.com/skeebs10/settlr/internal/service"
)

// Server wires the HTTP routes to the application services.
type Server struct {
	engine   *gin.Engine
	tabs     *service.TabService
	sessions *service.SessionService
	payments *service.PaymentService
	jwt      *auth.JWTManager
	hub      *live.Hub
}

// New creates a Server with all routes registered.
func New(tabs *service.TabService, sessions *service.SessionService, payments *service.PaymentService, jwt *auth.JWTManager, hub *live.Hub) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(), MetricsMiddleware(), ErrorHandlingMiddleware())

	s := &Server{
		engine:   engine,
		tabs:     tabs,
		sessions: sessions,
		payments: payments,
		jwt:      jwt,
		hub:      hub,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST("/session/join", s.Join)
	api.POST("/staff/login", s.StaffLogin)

	checks := api.Group("/checks", s.AuthRequired(), s.RequireCheckAccess())
	checks.GET("/:id", s.GetCheck)
	checks.GET("/:id/ws", s.CheckUpdates)
	checks.POST("/:id/claims", s.ClaimItem)
	checks.DELETE("/:id/claims/:claimID", s.RemoveClaim)
	checks.PUT("/:id/tip", s.SetTip)
	checks.POST("/:id/received", s.MarkReceived)

	payments := api.Group("/payments", s.AuthRequired())
	payments.POST("/intent", s.CreatePaymentIntent)
	payments.POST("/confirm", s.ConfirmPayment)

	staff := api.Group("/staff", s.AuthRequired(), s.RequireStaff())
	staff.GET("/checks", s.ListChecks)
	staff.POST("/checks/:id/nudge", s.Nudge)
	staff.POST("/checks/:id/close", s.CloseCheck)
	staff.POST("/checks/:id/reopen", s.ReopenCheck)
	staff.POST("/checks/:id/received", s.StaffMarkReceived)
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
