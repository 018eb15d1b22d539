package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Month is a year-month in the dataset's "YYYY-MM" form. The zero padding
// makes lexical order equal chronological order, which the SQL filters rely on.
type Month string

var ErrInvalidMonth = errors.New("invalid month")

// ParseMonth accepts "YYYY-MM" and the "YYYY-M" / "YYYY/MM" variants found in
// spreadsheet exports, returning the canonical form.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	parts := strings.Split(s, "-")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return NewMonth(year, month), nil
}

func NewMonth(year, month int) Month {
	return Month(fmt.Sprintf("%04d-%02d", year, month))
}

func (m Month) Validate() error {
	if _, err := ParseMonth(string(m)); err != nil {
		return err
	}
	if len(m) != len("2006-01") {
		return fmt.Errorf("%w: %q is not canonical", ErrInvalidMonth, string(m))
	}
	return nil
}

func (m Month) String() string {
	return string(m)
}

// Label renders the month for page headings, e.g. "Jan 2017".
func (m Month) Label() string {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return string(m)
	}
	return t.Format("Jan 2006")
}
