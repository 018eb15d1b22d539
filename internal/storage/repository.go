package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"resaleflats/internal/core"
)

// Repository is the relational store behind every report. It is opened once
// at process start, shared by all requests and closed at shutdown.
type Repository struct {
	db *sql.DB
}

// Open connects to the store, verifies the connection and applies pending
// migrations. driverName is "sqlite" or "mysql".
func Open(ctx context.Context, driverName, dsn string) (*Repository, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// A single writer avoids SQLITE_BUSY during imports; reads are short.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(50)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(driverName, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTowns returns every town.
func (r *Repository) ListTowns(ctx context.Context) ([]core.Town, error) {
	rows, err := r.db.QueryContext(ctx, listTownsSQL)
	if err != nil {
		return nil, fmt.Errorf("query towns: %w", err)
	}
	defer rows.Close()

	towns := []core.Town{}
	for rows.Next() {
		var t core.Town
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan town: %w", err)
		}
		towns = append(towns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate towns: %w", err)
	}
	return towns, nil
}

// ListFlatTypes returns every flat type/model pair.
func (r *Repository) ListFlatTypes(ctx context.Context) ([]core.FlatType, error) {
	rows, err := r.db.QueryContext(ctx, listFlatTypesSQL)
	if err != nil {
		return nil, fmt.Errorf("query flat types: %w", err)
	}
	defer rows.Close()

	flats := []core.FlatType{}
	for rows.Next() {
		var f core.FlatType
		if err := rows.Scan(&f.ID, &f.FlatType, &f.FlatModel); err != nil {
			return nil, fmt.Errorf("scan flat type: %w", err)
		}
		flats = append(flats, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flat types: %w", err)
	}
	return flats, nil
}

// AveragePriceByTown returns the average resale price per town and month,
// from since onwards.
func (r *Repository) AveragePriceByTown(ctx context.Context, since core.Month) ([]core.GroupedValue, error) {
	rows, err := r.groupedAverages(ctx, averagePriceByTownSQL, since)
	if err != nil {
		return nil, fmt.Errorf("average price by town: %w", err)
	}
	return rows, nil
}

// AveragePriceByFlatType returns the average resale price per flat type and
// month, from since onwards.
func (r *Repository) AveragePriceByFlatType(ctx context.Context, since core.Month) ([]core.GroupedValue, error) {
	rows, err := r.groupedAverages(ctx, averagePriceByFlatTypeSQL, since)
	if err != nil {
		return nil, fmt.Errorf("average price by flat type: %w", err)
	}
	return rows, nil
}

func (r *Repository) groupedAverages(ctx context.Context, query string, since core.Month) ([]core.GroupedValue, error) {
	rows, err := r.db.QueryContext(ctx, query, string(since))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []core.GroupedValue{}
	for rows.Next() {
		var (
			group, month string
			avg          decimal.Decimal
		)
		if err := rows.Scan(&group, &month, &avg); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		m, err := core.ParseMonth(month)
		if err != nil {
			return nil, fmt.Errorf("row for %q: %w", group, err)
		}
		out = append(out, core.GroupedValue{
			Group: group,
			Month: m,
			Value: avg.Round(2).InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// TransactionVolume returns the number of transactions per month from since
// onwards.
func (r *Repository) TransactionVolume(ctx context.Context, since core.Month) ([]core.MonthlyCount, error) {
	rows, err := r.db.QueryContext(ctx, transactionVolumeSQL, string(since))
	if err != nil {
		return nil, fmt.Errorf("query transaction volume: %w", err)
	}
	defer rows.Close()

	out := []core.MonthlyCount{}
	for rows.Next() {
		var (
			month string
			count int64
		)
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("scan transaction volume: %w", err)
		}
		m, err := core.ParseMonth(month)
		if err != nil {
			return nil, fmt.Errorf("transaction volume: %w", err)
		}
		out = append(out, core.MonthlyCount{Month: m, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction volume: %w", err)
	}
	return out, nil
}

// CountTransactions returns the number of stored transactions.
func (r *Repository) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countTransactionsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// Truncate removes the whole dataset.
func (r *Repository) Truncate(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin truncate: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range truncateSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit truncate: %w", err)
	}
	slog.InfoContext(ctx, "Dataset truncated")
	return nil
}

type blockKey struct {
	townID        int64
	block, street string
}

type flatKey struct {
	flatType, flatModel string
}

// ImportBatch writes records in a single transaction, creating any town,
// block or flat type it has not seen. It returns the number of transactions
// inserted; on error nothing from the batch is kept.
func (r *Repository) ImportBatch(ctx context.Context, records []core.ResaleRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, insertTransactionSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	towns := map[string]int64{}
	blocks := map[blockKey]int64{}
	flats := map[flatKey]int64{}

	for i, rec := range records {
		townID, ok := towns[rec.Town]
		if !ok {
			townID, err = getOrCreate(ctx, tx, selectTownSQL, insertTownSQL, rec.Town)
			if err != nil {
				return 0, fmt.Errorf("record %d: town %q: %w", i, rec.Town, err)
			}
			towns[rec.Town] = townID
		}

		bk := blockKey{townID: townID, block: rec.Block, street: rec.StreetName}
		blockID, ok := blocks[bk]
		if !ok {
			blockID, err = getOrCreate(ctx, tx, selectBlockSQL, insertBlockSQL, townID, rec.Block, rec.StreetName)
			if err != nil {
				return 0, fmt.Errorf("record %d: block %q: %w", i, rec.Block, err)
			}
			blocks[bk] = blockID
		}

		fk := flatKey{flatType: rec.FlatType, flatModel: rec.FlatModel}
		flatID, ok := flats[fk]
		if !ok {
			flatID, err = getOrCreate(ctx, tx, selectFlatTypeSQL, insertFlatTypeSQL, rec.FlatType, rec.FlatModel)
			if err != nil {
				return 0, fmt.Errorf("record %d: flat type %q: %w", i, rec.FlatType, err)
			}
			flats[fk] = flatID
		}

		lease := sql.NullInt64{Int64: int64(rec.LeaseCommenceYear), Valid: rec.LeaseCommenceYear != 0}
		if _, err := insert.ExecContext(ctx,
			string(rec.Month), blockID, flatID, rec.StoreyRange, rec.FloorAreaSqm,
			lease, rec.RemainingLease, rec.ResalePrice,
		); err != nil {
			return 0, fmt.Errorf("record %d: insert transaction: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

func getOrCreate(ctx context.Context, tx *sql.Tx, selectSQL, insertSQL string, args ...any) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, selectSQL, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup: %w", err)
	}
	res, err := tx.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}
