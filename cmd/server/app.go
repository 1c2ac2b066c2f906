package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"contentBackend/internal/auth"
	"contentBackend/internal/config"
	"contentBackend/internal/db"
	"contentBackend/internal/httpserver"
	"contentBackend/internal/service"
	"contentBackend/internal/store"
	"contentBackend/repository"
)

// app holds the wired services shared by the HTTP and gRPC surfaces.
type app struct {
	issuer   *auth.Issuer
	accounts *service.Accounts
	articles *service.Articles
	uploads  *service.Uploads
	logger   *slog.Logger
}

func newApp(cfg *config.Config, st store.Store, logger *slog.Logger) (*app, error) {
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	uploads, err := service.NewUploads(cfg.Store.UploadsDir, cfg.HTTP.UploadURLPrefix, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		issuer:   issuer,
		accounts: service.NewAccounts(repository.NewUserRepository(st), issuer, cfg.Auth.BcryptCost, logger),
		articles: service.NewArticles(repository.NewArticleRepository(st), logger),
		uploads:  uploads,
		logger:   logger,
	}, nil
}

func (a *app) router(cfg *config.Config) http.Handler {
	return httpserver.NewRouter(httpserver.Deps{
		Accounts:           a.accounts,
		Articles:           a.articles,
		Uploads:            a.uploads,
		Issuer:             a.issuer,
		Logger:             a.logger,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		MaxUploadBytes:     cfg.HTTP.MaxUploadBytes,
	})
}

// openStore returns the configured backend and a function releasing it.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		d, err := openDB(cfg.Store.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store.NewSQLiteStore(d), func() { _ = d.Close() }, nil
	default:
		fs, err := store.NewFileStore(cfg.Store.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return d, nil
}

// withDB opens the configured SQLite database for the duration of fn.
func withDB(cmd *cobra.Command, fn func(*sql.DB) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := openDB(cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(d)
}
