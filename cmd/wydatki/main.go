package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"wydatki/internal/amqp"
	"wydatki/internal/cache"
	"wydatki/internal/config"
	apphttp "wydatki/internal/http"
	applog "wydatki/internal/log"
	"wydatki/internal/services"
	ports "wydatki/internal/sheets"
	gsheet "wydatki/internal/sheets/google"
	mem "wydatki/internal/sheets/memory"
	"wydatki/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	kv, err := store.NewSQLite(cfg.CacheDBPath)
	if err != nil {
		logger.Error("Failed to open cache store", applog.FieldError, err, "path", cfg.CacheDBPath)
		os.Exit(1)
	}
	defer kv.Close()

	var (
		taxFetcher ports.TaxonomyFetcher
		dayFetcher ports.DayAmountsFetcher
		expWriter  ports.ExpenseWriter
		gridInv    ports.GridInvalidator
	)

	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			APIKey:        cfg.GoogleAPIKey,
			ScriptURL:     cfg.AppsScriptURL,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		taxFetcher, dayFetcher, expWriter, gridInv = cli, cli, cli, cli
		logger.Info("Initialized Google Sheets backend")
	default:
		gateway := mem.NewSeeded()
		taxFetcher, dayFetcher, expWriter, gridInv = gateway, gateway, gateway, gateway
		logger.Info("Initialized memory backend")
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP event publishing disabled - no AMQP_URL provided")
	}

	categories := cache.NewCategoryCache(kv, taxFetcher, cfg.CategoryTTL)
	dayAmounts := cache.NewDayAmountsCache(kv, dayFetcher, cfg.DayAmountsTTL)

	retry := services.DefaultRetryConfig()
	retry.MaxRetries = cfg.MaxRetries
	expenses := services.NewExpenseService(dayAmounts, expWriter, gridInv, events, retry)
	expenses.OnRetry = func(attempt, maxRetries int) {
		logger.Warn("Retrying expense write", applog.FieldAttempt, attempt, applog.FieldMaxRetries, maxRetries)
	}

	srv := apphttp.NewServer(":"+cfg.Port, categories, dayAmounts, expenses)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 90 * time.Second // remote writes retry with backoff
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting wydatki server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
