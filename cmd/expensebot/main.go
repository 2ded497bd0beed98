package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"expensebot/internal/analysis"
	"expensebot/internal/bot"
	"expensebot/internal/config"
	"expensebot/internal/core"
	"expensebot/internal/ledger"
	"expensebot/internal/llm"
	applog "expensebot/internal/log"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		// Logger is not up yet; write straight to stderr.
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	client, err := ledger.NewClient(cfg, logger)
	if err != nil {
		logger.Error("Failed to build ledger client", applog.FieldError, err)
		os.Exit(1)
	}
	ops := ledger.NewOperations(client, cfg.AmountCeiling, logger)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		logger.Error("Failed to connect to Telegram", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Authorized on Telegram", "account", api.Self.UserName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	probeCtx, probeCancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	if ops.IsConnected(probeCtx) {
		logger.Info("Ledger webhook reachable")
	} else {
		// Not fatal: every handler re-checks before touching the ledger.
		logger.Warn("Ledger webhook unreachable at startup")
	}
	probeCancel()

	model := llm.New(cfg, logger)
	factory := func(ctx context.Context) (bot.Analyzer, error) {
		pingCtx, pingCancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
		defer pingCancel()
		if err := model.Ping(pingCtx); err != nil {
			return nil, err
		}
		logger.Info("AI analyzer ready", applog.FieldModel, model.Model())
		return analysis.New(model, ops, logger), nil
	}

	handlers := bot.New(api, bot.Options{
		Ops:     ops,
		Factory: factory,
		Report:  analysis.FormatReport,
		Summarize: func(result core.AnalysisResult) ledger.AnalysisSummary {
			return ledger.SummarizeAnalysis(result, time.Now())
		},
		Ceiling: cfg.AmountCeiling,
		Logger:  logger,
	})

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := api.GetUpdatesChan(updateCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return handlers.Run(gctx, updates)
	})
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			api.StopReceivingUpdates()
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	logger.Info("Starting expense bot",
		applog.FieldModel, cfg.OllamaModel,
		"webhook", cfg.WebAppURL)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bot stopped gracefully")
}
