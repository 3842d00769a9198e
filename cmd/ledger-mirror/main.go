package main

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/cli"
	"gastos/internal/config"
	applog "gastos/internal/log"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/worker"
)

const cleanupInterval = time.Hour

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadConfig((*config.Config).ValidateMirror)
	logger.Info("Starting ledger-mirror")

	ctx, stop := cli.SignalContext()
	defer stop()

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ExpensesSheet:      cfg.GoogleExpensesSheet,
		IncomesSheet:       cfg.GoogleIncomesSheet,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(sheetsClient, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeEntryRecorded(gctx, mirror.HandleEntryRecorded)
	})
	g.Go(func() error {
		return mirror.RunCleanup(gctx, cleanupInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cli.Fatal(logger, "ledger-mirror stopped with error", err)
	}
	logger.Info("ledger-mirror stopped", applog.FieldOperation, applog.OpShutdown)
}
