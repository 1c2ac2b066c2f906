// Package httpserver exposes the accounts, article and upload operations
// over HTTP/JSON.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"contentBackend/internal/auth"
	"contentBackend/internal/logging"
	"contentBackend/internal/service"
)

// Deps bundles what the handlers need.
type Deps struct {
	Accounts *service.Accounts
	Articles *service.Articles
	Uploads  *service.Uploads
	Issuer   *auth.Issuer
	Logger   *slog.Logger

	CORSAllowedOrigins []string
	MaxUploadBytes     int64
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if len(d.CORSAllowedOrigins) == 0 {
		d.CORSAllowedOrigins = []string{"*"}
	}
	h := &handlers{Deps: d}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(d.Issuer.Middleware)
		r.Post("/upload", h.upload)
		r.Get("/protected", h.protected)
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.listArticles)
		r.Post("/", h.createArticle)
		r.Get("/{id}", h.getArticle)
		r.Put("/{id}", h.updateArticle)
		r.Delete("/{id}", h.deleteArticle)
	})

	if d.Uploads != nil {
		files := http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Uploads.Dir())))
		r.Get("/uploads/*", noListing(files))
	}
	return r
}

// noListing hides directory indexes; only files are served.
func noListing(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// Start serves h on addr and returns a shutdown function.
func Start(addr string, h http.Handler, logger *slog.Logger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":3000"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()
	return srv.Shutdown, nil
}
