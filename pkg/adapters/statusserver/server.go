// Package statusserver serves run status and Prometheus metrics over HTTP.
package statusserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/framehost/pkg/orchestrator"
	"github.com/user/framehost/pkg/ports"
)

// StatusProvider reports the streams of the current run.
type StatusProvider interface {
	Status() []orchestrator.StreamStatus
	RunID() string
}

// Server wraps the HTTP server with its dependencies.
type Server struct {
	router   *gin.Engine
	status   StatusProvider
	gatherer prometheus.Gatherer
	logger   ports.Logger
	started  time.Time

	srv *http.Server
}

// New creates a status server. gatherer backs /metrics.
func New(status StatusProvider, gatherer prometheus.Gatherer, log ports.Logger) *Server {
	s := &Server{
		status:   status,
		gatherer: gatherer,
		logger:   log.WithComponent("status"),
		started:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.logRequests)

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	router.GET("/streams", s.handleListStreams)
	router.GET("/streams/:id", s.handleGetStream)

	s.router = router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and serves in the background. It returns the
// bound address, which differs from addr when addr has port 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	s.srv = &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server stopped: %v", err)
		}
	}()
	s.logger.Info("Status server listening on %s", ln.Addr())
	return ln.Addr().String(), nil
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("HTTP %s %s %d (%d ms)", c.Request.Method, c.Request.URL.Path,
		c.Writer.Status(), time.Since(start).Milliseconds())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleListStreams(c *gin.Context) {
	streams := s.status.Status()
	c.JSON(http.StatusOK, gin.H{
		"run_id":  s.status.RunID(),
		"streams": streams,
		"total":   len(streams),
	})
}

func (s *Server) handleGetStream(c *gin.Context) {
	id := c.Param("id")
	for _, st := range s.status.Status() {
		if st.ID == id {
			c.JSON(http.StatusOK, st)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
}
