// Package api exposes the inventory store as the REST API consumed by the bot.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/techretail/retailbot/internal/auth"
	"github.com/techretail/retailbot/internal/config"
	"github.com/techretail/retailbot/internal/database"
	"github.com/techretail/retailbot/internal/logger"
)

// Server serves the /api routes.
type Server struct {
	cfg    config.APIConfig
	store  database.Store
	logger *slog.Logger
	engine *gin.Engine
}

// NewServer builds the gin engine and registers every route.
func NewServer(cfg config.APIConfig, store database.Store, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), logger.GinMiddleware(log))
	if len(cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", logger.RequestIDHeader},
			ExposeHeaders: []string{"Content-Length", logger.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: log.With("component", "api"),
		engine: engine,
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	api := s.engine.Group("/api")
	if s.cfg.AuthSecret != "" {
		api.Use(s.requireToken())
	}

	api.GET("/products/", s.listProducts)
	api.GET("/products/:id/", s.getProduct)
	api.POST("/products/:id/reserve/", s.reserveProduct)
	api.GET("/faqs/", s.listFAQs)

	api.GET("/users/", s.listUsers)
	api.POST("/users/", s.upsertUser)
	api.PATCH("/users/:id/", s.updateUser)

	api.GET("/conversations/", s.listConversations)
	api.POST("/conversations/", s.openConversation)
	api.GET("/conversations/:id/", s.getConversation)
	api.POST("/conversations/:id/close/", s.closeConversation)

	api.GET("/messages/", s.listMessages)
	api.POST("/messages/", s.createMessage)

	api.GET("/orders/by_user/", s.ordersByUser)
	api.GET("/orders/:id/", s.getOrder)
	api.PATCH("/orders/:id/", s.updateOrder)
	api.DELETE("/orders/:id/", s.deleteOrder)
	api.POST("/orders/:id/cancel/", s.cancelOrder)
	api.DELETE("/orders/:id/cancel/", s.cancelOrder)

	api.DELETE("/order-items/:id/", s.removeItem)
}

// requireToken rejects requests without a valid service token.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var subject string
			subject, err = auth.Verify(s.cfg.AuthSecret, token)
			c.Set("subject", subject)
		}
		if err != nil {
			s.logger.WarnContext(c.Request.Context(), "Rejected request", "path", c.Request.URL.Path, "error", err)
			s.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.InfoContext(ctx, "API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// wantsNewestFirst interprets DRF style ordering parameters such as "-timestamp".
func wantsNewestFirst(ordering string) bool {
	return strings.HasPrefix(strings.TrimSpace(ordering), "-")
}
