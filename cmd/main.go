package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"user_accounts/internal/config"
	"user_accounts/internal/handlers"
	"user_accounts/internal/logger"
	"user_accounts/internal/repository"
	"user_accounts/internal/repository/db"
	"user_accounts/internal/server"
	"user_accounts/internal/service"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// @title        User Accounts API
// @version      1.0
// @description  Registration, login and logout with JWT access and refresh tokens.
// @BasePath     /api/v1/users
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "accounts",
		Short:         "User accounts service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default configs/config.yml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context(), configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context(), configPath)
			},
		},
	)
	return root
}

func loadConfig(path string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Get().Errorw("error reading config", "err", err)
		return nil, nil, err
	}
	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Format), nil
}

func migrate(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Open applies migrations before returning
	conn, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Errorw("migration failed", "driver", cfg.DB.Driver, "err", err)
		return err
	}
	log.Infow("migrations applied", "driver", cfg.DB.Driver)
	return conn.Close()
}

func serve(ctx context.Context, configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Errorw("failed to open database", "driver", cfg.DB.Driver, "err", err)
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, cfg.DB.Driver)
	services := service.NewService(repos, service.Options{
		Tokens: service.TokenConfig{
			AccessSecret:  cfg.Auth.AccessTokenSecret,
			RefreshSecret: cfg.Auth.RefreshTokenSecret,
			AccessTTL:     cfg.Auth.AccessTokenTTL,
			RefreshTTL:    cfg.Auth.RefreshTokenTTL,
		},
		BcryptCost:  cfg.Auth.BcryptCost,
		LegacyLogin: cfg.Auth.LegacyLogin,
	})
	apiHandler := handlers.NewHandler(services, log, handlers.Options{
		BasePath: cfg.HTTP.BasePath,
		Cookies: handlers.CookieOptions{
			Secure: cfg.Cookie.Secure,
			Domain: cfg.Cookie.Domain,
			Path:   cfg.Cookie.Path,
		},
	})

	srv := server.New(cfg.Port, apiHandler.InitRoutes(), server.Options{
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server listening", "addr", srv.Addr(), "base_path", cfg.HTTP.BasePath, "legacy_login", cfg.Auth.LegacyLogin)
		errCh <- srv.Run()
	}()

	return waitForShutdown(srv, errCh, log)
}

// waitForShutdown blocks until a termination signal or a server failure,
// then drains in-flight requests.
func waitForShutdown(srv *server.Server, errCh <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("error starting server", "err", err)
		}
		return err
	case sig := <-quit:
		log.Infow("shutting down server...", "signal", sig.String())
	}

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
		return err
	}
	return <-errCh
}
