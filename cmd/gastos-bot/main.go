package main

import (
	"time"

	"gastos/internal/backend"
	"gastos/internal/bot"
	"gastos/internal/cli"
	"gastos/internal/config"
	"gastos/internal/extraction"
	"gastos/internal/intent"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).Validate)

	loc, err := cfg.Location()
	if err != nil {
		cli.Fatal(logger, "Invalid ledger timezone", err)
	}
	clock := func() time.Time { return time.Now().In(loc) }

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting gastos-bot",
		"backend", cfg.DataBackend,
		"model", cfg.LLMModel,
		"timezone", loc.String(),
		"amqp_enabled", cfg.AMQPEnabled())

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Cleanup failed", applog.FieldError, err)
		}
	}()

	generator, err := extraction.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize model client", err)
	}
	extractor := extraction.NewService(generator,
		extraction.WithModel(cfg.LLMModel),
		extraction.WithTimeout(cfg.ExtractionTimeout),
		extraction.WithLogger(logger))

	recorderOpts := []services.RecorderOption{
		services.WithClock(clock),
		services.WithRecorderLogger(logger),
	}
	if result.Publisher != nil {
		recorderOpts = append(recorderOpts, services.WithPublisher(result.Publisher))
	}
	recorder := services.NewRecorder(intent.Default, extractor, result.Ledger, recorderOpts...)
	reporter := services.NewReporter(result.Ledger,
		services.WithReportClock(clock),
		services.WithReporterLogger(logger))

	api, err := bot.NewAPI(cfg.TelegramToken, bot.ProxyConfig{
		Server: cfg.TelegramProxy,
		User:   cfg.TelegramProxyUser,
		Pass:   cfg.TelegramProxyPass,
	}, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to connect to Telegram", err)
	}
	updates, err := bot.Updates(api)
	if err != nil {
		cli.Fatal(logger, "Failed to start polling", err)
	}

	b := bot.New(api, recorder, reporter,
		bot.WithRetries(cfg.ExtractionRetries),
		bot.WithRateLimit(cfg.BotRateLimit),
		bot.WithLogger(logger))

	if err := b.Run(ctx, updates); err != nil {
		logger.Error("Bot stopped with error", applog.FieldError, err)
	}
	logger.Info("gastos-bot stopped", applog.FieldOperation, applog.OpShutdown)
}
