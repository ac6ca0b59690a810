package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/seed"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	res, err := backend.NewFactory(logger).Create(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	accounts := services.NewAccountService(res.Repository)
	categories := services.NewCategoryService(res.Repository)
	transactions := services.NewTransactionService(res.Repository, res.Publisher)
	ident := identity.NewService(res.Repository, identity.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn))

	if cfg.SeedDemo {
		if _, err := seed.Demo(context.Background(), seed.Services{
			Identity:     ident,
			Users:        res.Repository,
			Accounts:     accounts,
			Categories:   categories,
			Transactions: transactions,
		}, logger, time.Now()); err != nil {
			logger.Error("Demo seed failed", log.FieldError, err.Error())
			_ = res.Cleanup()
			os.Exit(1)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Accounts:     accounts,
		Categories:   categories,
		Transactions: transactions,
		Identity:     ident,
		Health:       res.Repository,
	}, apphttp.Options{
		Logger:          logger,
		CORSOrigin:      cfg.CORSOrigin,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		SummaryCacheTTL: cfg.SummaryCacheTTL,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", res.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
