package server

import (
	"embed"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aryannaik/embedding-compare/internal/compare"
	"github.com/aryannaik/embedding-compare/internal/observability"
)

//go:embed templates static
var assets embed.FS

// Options configure the HTTP server. Metrics and Logger are optional.
type Options struct {
	Host string
	Port string
	// StaticDir, when set, serves /static/ from disk instead of the embedded files.
	StaticDir string
	Session   *compare.Session
	Metrics   observability.Metrics
	Logger    *zap.Logger
}

func New(opts Options) (*http.Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handlers, err := NewHandlers(opts.Session, logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", handlers.HandleIndex)
	r.Post("/", handlers.HandleSubmit)
	r.Post("/api/compare", handlers.HandleCompare)
	r.Get("/api/status", handlers.HandleStatus)
	r.Get("/healthz", handlers.HandleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	static, err := staticFS(opts.StaticDir)
	if err != nil {
		return nil, err
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static)))

	return &http.Server{
		Addr:              net.JoinHostPort(opts.Host, opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func staticFS(dir string) (http.FileSystem, error) {
	if dir != "" {
		return http.Dir(dir), nil
	}
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
