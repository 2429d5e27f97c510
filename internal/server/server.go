// Package server exposes the tracker over HTTP and pushes live views to
// websocket clients.
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilstricker/regnemetoden/internal/tracker"
)

// TrackerFactory returns a tracker acting for userID.
type TrackerFactory func(userID string) *tracker.Tracker

// Options configures a Server.
type Options struct {
	Addr           string
	JWTSecret      string
	AllowedOrigins []string
	// DefaultUser is used for every request when JWTSecret is empty.
	DefaultUser    string
	Logger         *log.Logger
}

// Server is the HTTP API.
type Server struct {
	engine     *gin.Engine
	opts       Options
	logger     *log.Logger
	newTracker TrackerFactory

	mu       sync.Mutex
	trackers map[string]*tracker.Tracker
	clients  map[string]string
}

// New wires handlers and middleware.
func New(opts Options, newTracker TrackerFactory) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	s := &Server{
		engine:     engine,
		opts:       opts,
		logger:     opts.Logger,
		newTracker: newTracker,
		trackers:   make(map[string]*tracker.Tracker),
		clients:    make(map[string]string),
	}
	s.registerRoutes()
	return s
}

func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	return config
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api", s.authenticate())
	{
		api.GET("/today", s.getToday)
		api.POST("/setup", s.postSetup)
		api.POST("/weight", s.postWeight)
		api.POST("/food", s.postFood)
		api.DELETE("/food/:index", s.deleteFood)
		api.POST("/dayzero/weight", s.postDayZeroWeight)
		api.POST("/dayzero/start-weight", s.postDayZeroStartWeight)
		api.POST("/dayzero/back", s.postDayZeroBack)
		api.POST("/reset", s.postReset)
		api.GET("/report", s.getReport)
		api.GET("/ws", s.serveWS)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("listening on %s", s.opts.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// tracker returns the cached tracker for userID, creating it on first use.
func (s *Server) tracker(userID string) *tracker.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trackers[userID]
	if !ok {
		t = s.newTracker(userID)
		s.trackers[userID] = t
	}
	return t
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
