package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-sitemirror/config"
	"github.com/aluiziolira/go-sitemirror/fetch"
	"github.com/aluiziolira/go-sitemirror/mirror"
	"github.com/aluiziolira/go-sitemirror/run"
	"github.com/aluiziolira/go-sitemirror/sitemap"
)

type startRequest struct {
	URL      string `json:"url" binding:"required"`
	MaxPages int    `json:"max_pages"`
	Mode     string `json:"mode"`
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	baseURL, err := config.NormalizeBaseURL(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	runCfg := *s.cfg
	runCfg.BaseURL = baseURL
	if req.MaxPages != 0 {
		runCfg.MaxPages = req.MaxPages
	}
	if req.Mode != "" {
		runCfg.Mode = config.Mode(req.Mode)
	}
	if err := runCfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	r, err := s.ctrl.Start(s.jobFor(&runCfg))
	if errors.Is(err, run.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "a run is already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}

	go func() {
		r.Wait()
		if outcome, ok := r.Outcome(); ok {
			s.metrics.IncRun(string(outcome))
		}
	}()

	c.JSON(http.StatusOK, gin.H{"status": "started", "run_id": r.ID})
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.ctrl.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": "no run is in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, runID := s.ctrl.Status()
	c.JSON(http.StatusOK, gin.H{"status": status, "run_id": runID})
}

// handleStream relays the current run's feed as server-sent events. The
// stream ends with a "done" event carrying the run outcome; while the
// feed is quiet, heartbeats keep the connection alive.
func (s *Server) handleStream(c *gin.Context) {
	current := s.ctrl.Current()
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no run has been started"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events := current.Events()
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()
	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				outcome, _ := current.Outcome()
				c.SSEvent("done", gin.H{"outcome": outcome})
				return false
			}
			if event.Final {
				c.SSEvent("done", event)
				return false
			}
			c.SSEvent("message", event)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-clientGone:
			return false
		}
	})
}

func (s *Server) jobFor(cfg *config.Config) run.Job {
	return func(ctx context.Context, feed *run.Feed) error {
		switch cfg.Mode {
		case config.ModeSitemaps:
			client, err := fetch.New(cfg, s.metrics, s.transport)
			if err != nil {
				return err
			}
			return sitemap.Archive(ctx, cfg, client, s.metrics, feed)
		default:
			return mirror.Mirror(ctx, cfg, s.metrics, feed, s.transport)
		}
	}
}
