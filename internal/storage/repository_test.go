package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resaleflats/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resale.db")
	repo, err := Open(context.Background(), "sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(month, town, flatType, block string, price int64) core.ResaleRecord {
	return core.ResaleRecord{
		Month:             core.Month(month),
		Town:              town,
		FlatType:          flatType,
		Block:             block,
		StreetName:        town + " AVE 1",
		StoreyRange:       "01 TO 03",
		FloorAreaSqm:      decimal.NewFromInt(67),
		FlatModel:         "New Generation",
		LeaseCommenceYear: 1980,
		RemainingLease:    "62 years",
		ResalePrice:       decimal.NewFromInt(price),
	}
}

func seed(t *testing.T, repo *Repository) {
	t.Helper()
	n, err := repo.ImportBatch(context.Background(), []core.ResaleRecord{
		record("2016-12", "ANG MO KIO", "3 ROOM", "101", 999000),
		record("2017-01", "BEDOK", "3 ROOM", "12", 300000),
		record("2017-01", "ANG MO KIO", "3 ROOM", "101", 250000),
		record("2017-01", "ANG MO KIO", "4 ROOM", "102", 350000),
		record("2017-02", "ANG MO KIO", "3 ROOM", "101", 260000),
		record("2017-02", "ANG MO KIO", "3 ROOM", "101", 270001),
	})
	require.NoError(t, err)
	require.Equal(t, 6, n)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resale.db")
	dsn := "file:" + path + "?_pragma=foreign_keys(1)"

	first, err := Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), "sqlite", dsn)
	require.NoError(t, err, "re-running migrations should be a no-op")
	defer second.Close()
	assert.NoError(t, second.Ping(context.Background()))
}

func TestListingsEmpty(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	towns, err := repo.ListTowns(ctx)
	require.NoError(t, err)
	assert.NotNil(t, towns)
	assert.Empty(t, towns)

	flats, err := repo.ListFlatTypes(ctx)
	require.NoError(t, err)
	assert.Empty(t, flats)
}

func TestImportBatchDeduplicatesDimensions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seed(t, repo)

	towns, err := repo.ListTowns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Town{{ID: 1, Name: "ANG MO KIO"}, {ID: 2, Name: "BEDOK"}}, towns)

	flats, err := repo.ListFlatTypes(ctx)
	require.NoError(t, err)
	require.Len(t, flats, 2)
	assert.Equal(t, "3 ROOM", flats[0].FlatType)
	assert.Equal(t, "New Generation", flats[0].FlatModel)
	assert.Equal(t, "4 ROOM", flats[1].FlatType)

	// A second batch must reuse the stored dimension rows.
	_, err = repo.ImportBatch(ctx, []core.ResaleRecord{record("2017-03", "BEDOK", "3 ROOM", "12", 310000)})
	require.NoError(t, err)
	towns, err = repo.ListTowns(ctx)
	require.NoError(t, err)
	assert.Len(t, towns, 2)

	n, err := repo.CountTransactions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
}

func TestAveragePriceByTown(t *testing.T) {
	repo := newTestRepository(t)
	seed(t, repo)

	rows, err := repo.AveragePriceByTown(context.Background(), "2017-01")
	require.NoError(t, err)

	assert.Equal(t, []core.GroupedValue{
		{Group: "ANG MO KIO", Month: "2017-01", Value: 300000},
		{Group: "BEDOK", Month: "2017-01", Value: 300000},
		{Group: "ANG MO KIO", Month: "2017-02", Value: 265000.5},
	}, rows)
}

func TestAveragePriceByFlatType(t *testing.T) {
	repo := newTestRepository(t)
	seed(t, repo)

	rows, err := repo.AveragePriceByFlatType(context.Background(), "2017-01")
	require.NoError(t, err)

	assert.Equal(t, []core.GroupedValue{
		{Group: "3 ROOM", Month: "2017-01", Value: 275000},
		{Group: "4 ROOM", Month: "2017-01", Value: 350000},
		{Group: "3 ROOM", Month: "2017-02", Value: 265000.5},
	}, rows)
}

func TestTransactionVolume(t *testing.T) {
	repo := newTestRepository(t)
	seed(t, repo)

	rows, err := repo.TransactionVolume(context.Background(), "2017-01")
	require.NoError(t, err)
	assert.Equal(t, []core.MonthlyCount{
		{Month: "2017-01", Count: 3},
		{Month: "2017-02", Count: 2},
	}, rows)

	all, err := repo.TransactionVolume(context.Background(), "2000-01")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.Month("2016-12"), all[0].Month, "lower bound is inclusive and filters earlier months only")
}

func TestTruncate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	seed(t, repo)

	require.NoError(t, repo.Truncate(ctx))

	n, err := repo.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	towns, err := repo.ListTowns(ctx)
	require.NoError(t, err)
	assert.Empty(t, towns)
}

func TestQueriesFailAfterClose(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Close())

	_, err := repo.AveragePriceByTown(context.Background(), "2017-01")
	assert.Error(t, err)
	_, err = repo.ListTowns(context.Background())
	assert.Error(t, err)
}
