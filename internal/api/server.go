// Package api serves the webhook endpoint and the small observability
// surface around it: recent events, the last push analysis, and health.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Tejaswini-002/repo-agent/internal/dispatch"
	"github.com/Tejaswini-002/repo-agent/internal/events"
	"github.com/Tejaswini-002/repo-agent/internal/push"
	"github.com/Tejaswini-002/repo-agent/internal/review"
)

// Options configures the server.
type Options struct {
	Port          int
	WebhookSecret string
	AutoReview    bool
	ReplyEnabled  bool
	// PushSync answers the webhook with the push analysis inline instead
	// of dispatching it to the background.
	PushSync bool
}

// Server wires the webhook intake to the review and push services.
type Server struct {
	echo    *echo.Echo
	opts    Options
	reviews *review.Service
	pushes  *push.Service
	ring    *events.Ring
	pool    *dispatch.Pool

	mu           sync.Mutex
	lastAnalysis *push.Analysis
}

// NewServer builds the HTTP server and registers routes.
func NewServer(opts Options, reviews *review.Service, pushes *push.Service, ring *events.Ring, pool *dispatch.Pool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{echo: e, opts: opts, reviews: reviews, pushes: pushes, ring: ring, pool: pool}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.POST("/webhook", s.handleWebhook)
	s.echo.GET("/", s.handleIndex)
	s.echo.GET("/api/events", s.handleEvents)
	s.echo.GET("/api/events/last", s.handleLastEvent)
	s.echo.GET("/api/push-analysis", s.handlePushAnalysis)
	s.echo.GET("/api/health", s.handleHealth)
}

// Start serves until SIGINT, then shuts down the HTTP listener and drains
// the dispatch pool.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.opts.Port)
		log.Info().Str("addr", addr).Msg("starting webhook server")
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.pool.Shutdown(ctx)
	return nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleEvents(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": s.ring.Recent(50),
		"count":  s.ring.Len(),
	})
}

func (s *Server) handleLastEvent(c echo.Context) error {
	last, ok := s.ring.Last()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no events received yet"})
	}
	return c.JSON(http.StatusOK, last)
}

func (s *Server) handlePushAnalysis(c echo.Context) error {
	s.mu.Lock()
	analysis := s.lastAnalysis
	s.mu.Unlock()
	if analysis == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no push analysis yet"})
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) setLastAnalysis(analysis *push.Analysis) {
	s.mu.Lock()
	s.lastAnalysis = analysis
	s.mu.Unlock()
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>repo-agent</title></head>
<body>
<h1>repo-agent</h1>
<p>Webhook endpoint: POST /webhook</p>
<ul>
<li><a href="/api/events">Recent events</a></li>
<li><a href="/api/events/last">Last event</a></li>
<li><a href="/api/push-analysis">Last push analysis</a></li>
<li><a href="/api/health">Health</a></li>
</ul>
</body>
</html>`

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, indexPage)
}
