package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	Town struct {
		ID   int64
		Name string
	}

	Block struct {
		ID         int64
		TownID     int64
		Block      string
		StreetName string
	}

	// FlatType pairs a unit size label ("4 ROOM") with a layout model ("Improved").
	FlatType struct {
		ID        int64
		FlatType  string
		FlatModel string
	}

	Transaction struct {
		ID                int64
		Month             Month
		BlockID           int64
		FlatTypeID        int64
		StoreyRange       string
		FloorAreaSqm      decimal.Decimal
		LeaseCommenceYear int
		RemainingLease    string
		ResalePrice       decimal.Decimal
	}

	// ResaleRecord is one flattened row of the published resale dataset.
	// It only exists on the load path; reports never see it.
	ResaleRecord struct {
		Month             Month
		Town              string
		FlatType          string
		Block             string
		StreetName        string
		StoreyRange       string
		FloorAreaSqm      decimal.Decimal
		FlatModel         string
		LeaseCommenceYear int
		RemainingLease    string
		ResalePrice       decimal.Decimal
	}
)

var (
	ErrEmptyTown      = errors.New("empty town")
	ErrEmptyFlatType  = errors.New("empty flat type")
	ErrEmptyFlatModel = errors.New("empty flat model")
	ErrEmptyBlock     = errors.New("empty block")
	ErrInvalidPrice   = errors.New("invalid resale price")
	ErrInvalidArea    = errors.New("invalid floor area")
)

func (r ResaleRecord) Validate() error {
	if err := r.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Town) == "" {
		return ErrEmptyTown
	}
	if strings.TrimSpace(r.FlatType) == "" {
		return ErrEmptyFlatType
	}
	if strings.TrimSpace(r.FlatModel) == "" {
		return ErrEmptyFlatModel
	}
	if strings.TrimSpace(r.Block) == "" {
		return ErrEmptyBlock
	}
	if !r.ResalePrice.IsPositive() {
		return ErrInvalidPrice
	}
	if r.FloorAreaSqm.IsNegative() {
		return ErrInvalidArea
	}
	if r.LeaseCommenceYear != 0 && (r.LeaseCommenceYear < 1900 || r.LeaseCommenceYear > 2100) {
		return fmt.Errorf("invalid lease commence year %d", r.LeaseCommenceYear)
	}
	return nil
}
