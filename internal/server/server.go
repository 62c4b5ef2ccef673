// Package server exposes CareerOS over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/careeros/internal/assist"
	"github.com/spigell/careeros/internal/feedback"
	"github.com/spigell/careeros/internal/matching"
	"github.com/spigell/careeros/internal/profile"
	"github.com/spigell/careeros/internal/roadmap"
)

const (
	ServiceName = "CareerOS"

	DefaultAddress      = ":8080"
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 5 * time.Minute

	shutdownTimeout = 10 * time.Second
	maxResumeBytes  = 1 << 20
)

type RoadmapService interface {
	Generate(ctx context.Context, req roadmap.Request) (*roadmap.Result, error)
}

type Assistant interface {
	PostMortem(ctx context.Context, req assist.PostMortemRequest) (assist.PostMortem, error)
	Tailor(ctx context.Context, req assist.TailorRequest) (assist.Tailored, error)
	Audit(ctx context.Context, req assist.AuditRequest) (assist.Audit, error)
}

type ProfileStore interface {
	SaveProfile(ctx context.Context, p *profile.Profile) error
}

type MatchFinder interface {
	Find(ctx context.Context, profileID string) ([]matching.Match, error)
}

type FeedbackProcessor interface {
	Process(ctx context.Context, req feedback.Request) (*feedback.Result, error)
}

// Deps aggregates everything the handlers call into.
type Deps struct {
	Roadmap   RoadmapService
	Assistant Assistant
	Profiles  ProfileStore
	Matches   MatchFinder
	Feedback  FeedbackProcessor
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

type Config struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
}

type Server struct {
	echo *echo.Echo
	deps Deps
	log  *zap.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, deps: deps, log: deps.Logger}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			s.log.Info("http request", fields...)
			return nil
		},
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api/v1")
	api.POST("/roadmap", s.roadmap)
	api.POST("/profile", s.profile)
	api.GET("/matches/:profile_id", s.matches)
	api.POST("/feedback", s.feedback)
	api.POST("/post-mortem", s.postMortem)
	api.POST("/tailor", s.tailor)
	api.POST("/audit", s.audit)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      s.echo,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errs := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("address", cfg.Address))
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		s.log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
