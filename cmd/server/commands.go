package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"contentBackend/internal/config"
	"contentBackend/internal/db"
	grpcserver "contentBackend/internal/grpc"
	"contentBackend/internal/httpserver"
	"contentBackend/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "content-backend",
		Short:        "Article content backend with user accounts and uploads",
		SilenceUsage: true,
	}
	fs := root.PersistentFlags()
	fs.Bool("dev", false, "fall back to a development JWT secret when JWT_SECRET is unset")
	fs.String("store", "", "store backend: file or sqlite (overrides STORE_BACKEND)")
	fs.String("data-dir", "", "directory holding users.json and articles.json (overrides DATA_DIR)")
	fs.String("db-path", "", "SQLite database path (overrides DB_PATH)")
	fs.String("log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(newServeCmd(), newAddUserCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, unless disabled, the gRPC API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("http-address", "", "HTTP listen address (overrides HTTP_ADDRESS)")
	cmd.Flags().String("grpc-address", "", "gRPC listen address (overrides GRPC_ADDRESS)")
	cmd.Flags().Bool("grpc", true, "serve the gRPC API (overrides GRPC_ENABLED)")
	return cmd
}

func newAddUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adduser <username>",
		Short: "Register a user directly in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			password, _ := cmd.Flags().GetString("password")
			admin, _ := cmd.Flags().GetBool("admin")

			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			a, err := newApp(cfg, st, logger)
			if err != nil {
				return err
			}
			if _, err := a.accounts.Register(cmd.Context(), args[0], password, admin); err != nil {
				return fmt.Errorf("register %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s registered\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("password", "", "password for the new user")
	cmd.Flags().Bool("admin", false, "mark the user as an administrator")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back the SQLite schema",
	}
	status := &cobra.Command{
		Use:   "status",
		Short: "List applied migration versions (applies pending ones first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(d *sql.DB) error {
				versions, err := db.AppliedVersions(d)
				if err != nil {
					return err
				}
				for _, v := range versions {
					fmt.Fprintf(cmd.OutOrStdout(), "%04d\n", v)
				}
				return nil
			})
		},
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(d *sql.DB) error {
				if err := db.RollbackLast(d); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "rolled back")
				return nil
			})
		},
	}
	cmd.AddCommand(status, down)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	a, err := newApp(cfg, st, logger)
	if err != nil {
		return err
	}

	shutdownHTTP, err := httpserver.Start(cfg.HTTP.Address, a.router(cfg), logger)
	if err != nil {
		return fmt.Errorf("start http: %w", err)
	}
	logger.Info("http server listening", "address", cfg.HTTP.Address)

	var shutdownGRPC func(context.Context) error
	if cfg.GRPC.Enabled {
		srv := grpcserver.NewServer(a.issuer, a.accounts, a.articles, logger)
		shutdownGRPC, err = grpcserver.Start(cfg.GRPC.Address, srv, logger)
		if err != nil {
			_ = shutdownHTTP(context.Background())
			return fmt.Errorf("start grpc: %w", err)
		}
		logger.Info("grpc server listening", "address", cfg.GRPC.Address)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var errs []error
	if err := shutdownHTTP(sctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if shutdownGRPC != nil {
		if err := shutdownGRPC(sctx); err != nil {
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// loadConfig reads the environment and applies any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	load := config.Load
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		load = config.LoadWithDefaults
	}
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over the environment values.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) {
	str := func(name string, dst *string) {
		if fs.Lookup(name) != nil && fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	str("store", &cfg.Store.Backend)
	str("data-dir", &cfg.Store.DataDir)
	str("db-path", &cfg.Store.DBPath)
	str("log-level", &cfg.Log.Level)
	str("http-address", &cfg.HTTP.Address)
	str("grpc-address", &cfg.GRPC.Address)
	if fs.Lookup("grpc") != nil && fs.Changed("grpc") {
		cfg.GRPC.Enabled, _ = fs.GetBool("grpc")
	}
}
