// Package importer loads the resale dataset from a source into the store.
package importer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"resaleflats/internal/core"
	"resaleflats/internal/log"
	"resaleflats/internal/source"
)

// Store is the write side of the repository used by the loader.
type Store interface {
	Truncate(ctx context.Context) error
	ImportBatch(ctx context.Context, records []core.ResaleRecord) (int, error)
}

// Config holds loader options.
type Config struct {
	// BatchSize is the number of records committed per transaction (default: 500)
	BatchSize int

	// Replace clears the store before loading.
	Replace bool

	// SkipInvalid logs and skips rows that fail validation instead of
	// aborting the load.
	SkipInvalid bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{BatchSize: 500}
}

// Stats summarises a finished load.
type Stats struct {
	Read     int
	Imported int
	Skipped  int
	Batches  int
}

// Importer streams records from a source into the store in batches.
type Importer struct {
	store  Store
	config Config
	logger *log.Logger
	events *log.StructuredLogger
}

// New creates an importer. A non-positive batch size falls back to the default.
func New(store Store, config Config, logger *log.Logger) *Importer {
	if config.BatchSize < 1 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentImporter)
	return &Importer{
		store:  store,
		config: config,
		logger: logger,
		events: log.NewStructuredLogger(logger),
	}
}

// Run reads src to the end and writes its records. The first error from
// either side cancels the other. Batches committed before a failure stay
// committed.
func (im *Importer) Run(ctx context.Context, src source.Source) (Stats, error) {
	var stats Stats

	if im.config.Replace {
		im.logger.InfoContext(ctx, "Clearing store before load", log.FieldSource, src.Name())
		if err := im.store.Truncate(ctx); err != nil {
			return stats, fmt.Errorf("truncate before load: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	records := make(chan core.ResaleRecord, im.config.BatchSize)

	g.Go(func() error {
		defer close(records)
		return src.Each(gctx, func(row int, rec core.ResaleRecord, err error) error {
			if err != nil {
				var rowErr *source.RowError
				if !im.config.SkipInvalid || !errors.As(err, &rowErr) {
					return err
				}
				stats.Skipped++
				im.logger.WarnContext(gctx, "Skipping invalid row",
					log.FieldSource, src.Name(),
					log.FieldRow, row,
					log.FieldError, err.Error())
				return nil
			}
			stats.Read++
			select {
			case records <- rec:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	g.Go(func() error {
		batch := make([]core.ResaleRecord, 0, im.config.BatchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := im.store.ImportBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("import batch %d: %w", stats.Batches+1, err)
			}
			stats.Batches++
			stats.Imported += n
			im.events.LogImportBatch(gctx, src.Name(), stats.Batches, stats.Imported)
			batch = batch[:0]
			return nil
		}
		for rec := range records {
			batch = append(batch, rec)
			if len(batch) == im.config.BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		return flush()
	})

	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("load %s: %w", src.Name(), err)
	}

	im.logger.InfoContext(ctx, "Load complete",
		log.FieldSource, src.Name(),
		log.FieldImported, stats.Imported,
		log.FieldSkipped, stats.Skipped,
		log.FieldBatch, stats.Batches)
	return stats, nil
}
