// wydatki-journal consumes recorded-expense events and writes them to the
// log, an append-only audit trail of everything the server committed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appamqp "wydatki/internal/amqp"
	"wydatki/internal/config"
	applog "wydatki/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentJournal,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the journal consumer")
		os.Exit(1)
	}

	client, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting wydatki-journal", "queue", cfg.AMQPQueue)

	err = client.ConsumeExpenseRecorded(ctx, func(msg *appamqp.ExpenseRecordedMessage) error {
		logger.Info("Expense recorded",
			applog.FieldCategory, msg.Category,
			applog.FieldMonth, msg.Month,
			applog.FieldDay, msg.Day,
			applog.FieldMode, string(msg.Mode),
			applog.FieldAmount, msg.Amount,
			"formula", msg.Formula,
			"recorded_at", msg.RecordedAt)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Journal stopped gracefully")
}
