package reports

import (
	"context"

	"resaleflats/internal/core"
)

// TownLister lists every town in the dataset.
type TownLister interface {
	ListTowns(ctx context.Context) ([]core.Town, error)
}

// FlatTypeLister lists every flat type/model pair.
type FlatTypeLister interface {
	ListFlatTypes(ctx context.Context) ([]core.FlatType, error)
}

// PriceReader returns monthly average prices grouped by town or flat type.
type PriceReader interface {
	AveragePriceByTown(ctx context.Context, since core.Month) ([]core.GroupedValue, error)
	AveragePriceByFlatType(ctx context.Context, since core.Month) ([]core.GroupedValue, error)
}

// VolumeReader returns monthly transaction counts.
type VolumeReader interface {
	TransactionVolume(ctx context.Context, since core.Month) ([]core.MonthlyCount, error)
}

// Store is everything the report pages read. *storage.Repository satisfies it.
type Store interface {
	TownLister
	FlatTypeLister
	PriceReader
	VolumeReader
	Ping(ctx context.Context) error
}
