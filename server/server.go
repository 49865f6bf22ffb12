// Package server is the control shell around the core: start, stop,
// status, a server-sent-event progress stream, and Prometheus metrics.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/metrics"
	"github.com/aluiziolira/go-sitemirror/run"
)

// Server wires the run controller to HTTP handlers.
type Server struct {
	cfg       *config.Config
	ctrl      *run.Controller
	metrics   *metrics.Metrics
	transport http.RoundTripper
	engine    *gin.Engine
}

// New builds the server. cfg acts as the template every run's
// configuration is derived from. A nil transport keeps default HTTP
// transports; tests inject a mock.
func New(cfg *config.Config, ctrl *run.Controller, m *metrics.Metrics, transport http.RoundTripper) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:       cfg,
		ctrl:      ctrl,
		metrics:   m,
		transport: transport,
		engine:    engine,
	}

	api := engine.Group("/api")
	api.POST("/start", s.handleStart)
	api.POST("/stop", s.handleStop)
	api.GET("/status", s.handleStatus)
	api.GET("/stream", s.handleStream)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	return s
}

// Handler exposes the router for an http.Server or test harness.
func (s *Server) Handler() http.Handler {
	return s.engine
}
