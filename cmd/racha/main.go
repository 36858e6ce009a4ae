package main

import (
	"context"
	"errors"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"racha/internal/amqp"
	"racha/internal/bot"
	"racha/internal/chart"
	"racha/internal/cli"
	"racha/internal/intake"
	"racha/internal/log"
	"racha/internal/report"
	"racha/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadConfig(logger)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP is optional: without a broker expenses still commit, only the
	// sheet mirror lags.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", log.FieldError, err)
		os.Exit(1)
	}

	engine := report.New(repo, chart.NewRenderer(), logger)
	expenses := services.NewExpenseService(repo, amqpClient, engine)
	machine := intake.New(repo, expenses, logger)
	maintenance := services.NewMaintenanceService(repo, engine)

	b := bot.New(api, machine, engine, maintenance, logger)

	ctx, cancel := cli.ShutdownContext()
	defer cancel()

	logger.Info("Starting racha bot", "db", cfg.SQLiteDBPath)
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Bot stopped gracefully")
}
