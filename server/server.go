// Package server serves the dashboard pages, their JSON APIs and chart
// images over gin.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sartorproj/brickcast/config"
	"github.com/sartorproj/brickcast/dataset"
	"github.com/sartorproj/brickcast/notify"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Options carries the collaborators of a Server. Zero fields get defaults
// derived from the configuration.
type Options struct {
	Logger   *slog.Logger
	Cache    *dataset.Cache
	Notifier *notify.Client
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	logger   *slog.Logger
	cache    *dataset.Cache
	notifier *notify.Client
	pages    *template.Template
	http     *http.Server
}

// New builds the server and its routes.
func New(cfg *config.AppConfig, opts Options) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Cache == nil {
		opts.Cache = dataset.NewCache(nil)
	}
	if opts.Notifier == nil {
		timeout := time.Duration(cfg.Notify.TimeoutSeconds) * time.Second
		opts.Notifier = notify.NewClient(cfg.Notify.WebhookURL, timeout)
	}

	pages, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		router:   gin.New(),
		logger:   opts.Logger,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		pages:    pages,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	s.router.GET("/", s.HomePage)
	s.router.GET("/themes", s.ThemesPage)
	s.router.GET("/forecast", s.ForecastPage)

	api := s.router.Group("/api")
	{
		api.GET("/overview", s.Overview)
		api.GET("/sets", s.Sets)
		api.GET("/sets.xlsx", s.SetsExport)
		api.GET("/themes", s.Themes)
		api.GET("/themes/hierarchy", s.ThemeHierarchy)
		api.GET("/parts", s.Parts)
		api.GET("/forecast", s.Forecast)
		api.GET("/forecast/suggest", s.ForecastSuggest)
		api.GET("/forecast/series.csv", s.ForecastSeries)
		api.POST("/notify", s.Notify)
		api.POST("/reload", s.Reload)
	}

	s.router.GET("/charts/:name", s.Chart)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
