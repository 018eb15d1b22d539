package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"resaleflats/internal/cli"
	"resaleflats/internal/config"
	"resaleflats/internal/importer"
	"resaleflats/internal/log"
	"resaleflats/internal/source"
)

func main() {
	var (
		kind        = flag.String("source", "csv", "dataset source: csv, xlsx or sheets")
		file        = flag.String("file", "", "path of the CSV or XLSX file")
		sheet       = flag.String("sheet", "", "worksheet name (xlsx: defaults to the first sheet, sheets: defaults to GOOGLE_SHEET_NAME)")
		replace     = flag.Bool("replace", false, "clear the store before loading")
		skipInvalid = flag.Bool("skip-invalid", false, "log and skip rows that fail validation instead of aborting")
	)
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.SlogLevel())

	// Cancel the load on SIGINT/SIGTERM; committed batches are kept.
	ctx, _ := cli.GracefulShutdown(logger, 30*time.Second, nil)

	src, err := openSource(ctx, cfg, *kind, *file, *sheet)
	if err != nil {
		logger.Error("Failed to open source", log.FieldError, err, log.FieldSource, *kind)
		os.Exit(2)
	}

	store := cli.OpenStore(ctx, logger, cfg)

	im := importer.New(store, importer.Config{
		BatchSize:   cfg.ImportBatchSize,
		Replace:     *replace,
		SkipInvalid: *skipInvalid,
	}, logger)

	logger.Info("Starting import",
		log.FieldSource, src.Name(),
		log.FieldReplace, *replace,
		log.FieldBatch, cfg.ImportBatchSize)

	start := time.Now()
	stats, err := im.Run(ctx, src)
	store.Close()
	if err != nil {
		logger.Error("Import failed",
			log.FieldError, err,
			log.FieldSource, src.Name(),
			log.FieldImported, stats.Imported)
		os.Exit(1)
	}

	logger.Info("Import finished",
		log.FieldSource, src.Name(),
		log.FieldImported, stats.Imported,
		log.FieldSkipped, stats.Skipped,
		log.FieldDurationHuman, time.Since(start).Round(time.Millisecond).String())
}

func openSource(ctx context.Context, cfg *config.Config, kind, file, sheet string) (source.Source, error) {
	switch kind {
	case "csv":
		if file == "" {
			return nil, fmt.Errorf("-file is required for the csv source")
		}
		return source.NewCSVFile(file), nil
	case "xlsx":
		if file == "" {
			return nil, fmt.Errorf("-file is required for the xlsx source")
		}
		return source.NewXLSXFile(file, sheet), nil
	case "sheets":
		if sheet == "" {
			sheet = cfg.GoogleSheetName
		}
		return source.NewSheets(ctx, cfg.GoogleSpreadsheetID, sheet)
	default:
		return nil, fmt.Errorf("unknown source %q: must be csv, xlsx or sheets", kind)
	}
}
