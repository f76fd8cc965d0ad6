package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Darthmonkey/tunefetcherai/internal/catalog"
	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	"github.com/Darthmonkey/tunefetcherai/internal/metrics"
	"github.com/Darthmonkey/tunefetcherai/internal/report"
	"github.com/Darthmonkey/tunefetcherai/internal/resolve"
)

// ShutdownTimeout bounds how long in-flight requests may run after the
// server is asked to stop.
const ShutdownTimeout = 30 * time.Second

// Options are the collaborators a Server routes to. Manager is required;
// the others default from the settings.
type Options struct {
	Manager  *download.Manager
	Reporter *report.Reporter
	Catalog  *catalog.Client
	Resolver *resolve.Resolver
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Server is the HTTP API in front of the download manager.
type Server struct {
	settings *config.Settings
	manager  *download.Manager
	reporter *report.Reporter
	catalog  *catalog.Client
	resolver *resolve.Resolver
	metrics  *metrics.Collector
	logger   *slog.Logger

	handler http.Handler
}

// New creates a server and builds its routes.
func New(settings *config.Settings, opts Options) *Server {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = report.NewReporter(report.NewArchiveStore(log), log)
	}

	cat := opts.Catalog
	if cat == nil {
		cat = catalog.NewClient(nil, settings.MusicBrainzURL).WithLogger(log)
	}
	res := opts.Resolver
	if res == nil {
		res = resolve.NewResolver(nil, settings.YouTubeSearchURL)
	}

	s := &Server{
		settings: settings,
		manager:  opts.Manager,
		reporter: reporter,
		catalog:  cat,
		resolver: res,
		metrics:  opts.Metrics,
		logger:   log,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/download", s.Download)
	mux.HandleFunc("POST /api/download-batch", s.DownloadBatch)
	mux.HandleFunc("GET /api/archive/{ref}", s.Archive)
	mux.HandleFunc("GET /api/search", s.Search)
	mux.HandleFunc("GET /api/musicbrainz-search", s.MusicBrainzSearch)

	mux.HandleFunc("GET /healthz", s.Healthz)
	mux.Handle("GET /metrics", s.metrics.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: settings.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
	})

	s.handler = c.Handler(RequestID(log)(mux))
	return s
}

// Handler returns the root handler with CORS and request ids applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.settings.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.settings.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. Archives never retrieved and leftover workspaces are
// released before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting api server", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	return errors.Join(err, s.cleanup())
}

func (s *Server) cleanup() error {
	var errs []error
	if err := s.reporter.Store().Close(); err != nil {
		errs = append(errs, err)
	}
	if s.manager != nil {
		if err := s.manager.Workspaces().ReleaseAll(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
