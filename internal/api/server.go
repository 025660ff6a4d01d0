// internal/api/server.go
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/titovskiy/NeptunSmart/internal/history"
	"github.com/titovskiy/NeptunSmart/internal/snapshot"
	"github.com/titovskiy/NeptunSmart/internal/status"
)

// Controller is the device surface served over HTTP. The session implements it.
type Controller interface {
	Current() *snapshot.Snapshot
	SetSwitch(ctx context.Context, key string, on bool) error
	SelectOption(ctx context.Context, key, label string) error
	WriteCounterStep(ctx context.Context, index, step int) error
	WriteCounterCalibration(ctx context.Context, index int, m3 float64) error
	RequestRefresh()
}

// StatusSource reports device health.
type StatusSource interface {
	Snapshot() status.Snapshot
}

// HistorySource serves stored counter readings.
type HistorySource interface {
	History(ctx context.Context, counter, limit int) ([]history.Reading, error)
}

// Deps are the collaborators of the server. Status, History and Metrics are optional.
type Deps struct {
	Controller Controller
	Status     StatusSource
	History    HistorySource
	Metrics    http.Handler
}

// Server is the HTTP surface.
type Server struct {
	deps   Deps
	log    zerolog.Logger
	engine *gin.Engine
}

func New(deps Deps, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		deps: deps,
		log:  logger.With().Str("component", "http").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	a := r.Group("/api")
	a.GET("/snapshot", s.getSnapshot)
	a.GET("/status", s.getStatus)
	a.GET("/devices", s.getDevices)
	a.GET("/switches", s.getSwitches)
	a.GET("/selects", s.getSelects)
	a.GET("/counters/:index/history", s.getCounterHistory)

	a.PUT("/switches/:key", s.putSwitch)
	a.PUT("/selects/:key", s.putSelect)
	a.PUT("/counters/:index/step", s.putCounterStep)
	a.PUT("/counters/:index/calibration", s.putCounterCalibration)
	a.POST("/refresh", s.postRefresh)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	s.engine = r
	return s
}

// Handler exposes the router (tests, embedding).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("listen", addr).Msg("http server started")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
