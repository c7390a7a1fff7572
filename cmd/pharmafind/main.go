package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/arihooper/Pharmfind/internal/api"
	"github.com/arihooper/Pharmfind/internal/auth"
	"github.com/arihooper/Pharmfind/internal/config"
	"github.com/arihooper/Pharmfind/internal/database"
	"github.com/arihooper/Pharmfind/internal/logging"
	"github.com/arihooper/Pharmfind/internal/migrations"
	"github.com/arihooper/Pharmfind/internal/seed"
	"github.com/arihooper/Pharmfind/internal/store"
)

func main() {
	fx.New(
		fx.Provide(
			context.Background,
			newConfig,
			newLogger,
			newDatabase,
			store.New,
			newAuthService,
			newHandler,
		),
		fx.WithLogger(func(l *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: l}
		}),
		fx.Invoke(
			prepareDatabase,
			startServer,
		),
	).Run()
}

func newConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// newDatabase connects at construction so a bad DSN aborts startup, and
// closes the pool after the server has drained.
func newDatabase(lc fx.Lifecycle, ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := database.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected", slog.String("driver", db.DriverName()))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}

func newAuthService(cfg *config.Config, logger *slog.Logger) (*auth.Service, error) {
	if cfg.UsesDevSecret() {
		logger.Warn("auth.secret is not set; signing tokens with the development secret",
			slog.String("env", cfg.Env))
	}
	return auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
}

func newHandler(st *store.Store, authSvc *auth.Service, logger *slog.Logger, cfg *config.Config) *api.Handler {
	return api.New(st, authSvc, logger, api.Options{
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		DefaultRadiusKm:   cfg.Search.DefaultRadiusKm,
		MaxRadiusKm:       cfg.Search.MaxRadiusKm,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
}

func prepareDatabase(ctx context.Context, db *sqlx.DB, cfg *config.Config, logger *slog.Logger) error {
	if err := migrations.Run(ctx, db); err != nil {
		return err
	}
	if cfg.Seed.MedicinesCSV == "" {
		return nil
	}
	_, err := seed.LoadMedicinesFile(ctx, db, cfg.Seed.MedicinesCSV, logger)
	return err
}

func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, logger *slog.Logger, h *api.Handler) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Router(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return errors.Wrapf(err, "listen on %s", srv.Addr)
			}
			logger.Info("PharmaFind API starting", slog.String("addr", srv.Addr), slog.String("env", cfg.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", slog.Any("error", err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return errors.WithStack(srv.Shutdown(shutdownCtx))
		},
	})
}
