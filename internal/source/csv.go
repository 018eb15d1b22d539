package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"resaleflats/internal/core"
)

// CSV reads the dataset as published: a header line followed by one
// transaction per line.
type CSV struct {
	path string
	open func() (io.ReadCloser, error)
}

// NewCSVFile returns a CSV source reading path.
func NewCSVFile(path string) *CSV {
	return &CSV{
		path: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewCSVReader returns a CSV source over r. It can be read once.
func NewCSVReader(r io.Reader) *CSV {
	return &CSV{
		path: "reader",
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (c *CSV) Name() string { return "csv:" + c.path }

func (c *CSV) Each(ctx context.Context, fn RowFunc) error {
	f, err := c.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	cells, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	h, err := newHeader(cells)
	if err != nil {
		return &RowError{Row: 1, Err: err}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("read %s: %w", c.path, err)
			}
			if err := fn(perr.StartLine, core.ResaleRecord{}, &RowError{Row: perr.StartLine, Err: err}); err != nil {
				return err
			}
			continue
		}
		line, _ := r.FieldPos(0)

		rec, skip, err := h.record(cells)
		if skip {
			continue
		}
		if err != nil {
			err = &RowError{Row: line, Err: err}
		}
		if err := fn(line, rec, err); err != nil {
			return err
		}
	}
}
