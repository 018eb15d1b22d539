package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// sheetsPageRows is how many rows one Values.Get call fetches.
const sheetsPageRows = 5000

// valuesGetter is the one Sheets API call the source makes.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

type sheetsAPI struct {
	svc *gsheet.Service
}

func (a sheetsAPI) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Sheets reads the dataset from a Google Sheet, page by page.
type Sheets struct {
	api           valuesGetter
	spreadsheetID string
	sheet         string
}

// NewSheets creates a Sheets source authenticated with service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewSheets(ctx context.Context, spreadsheetID, sheet string) (*Sheets, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(sheet) == "" {
		return nil, errors.New("missing sheet name")
	}
	creds, err := serviceAccountCredentials(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Sheets{api: sheetsAPI{svc: svc}, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (s *Sheets) Name() string { return "sheets:" + s.spreadsheetID + "/" + s.sheet }

func (s *Sheets) Each(ctx context.Context, fn RowFunc) error {
	head, err := s.api.Get(ctx, s.spreadsheetID, fmt.Sprintf("%s!1:1", quoteSheet(s.sheet)))
	if err != nil {
		return fmt.Errorf("read header of %s: %w", s.sheet, err)
	}
	if len(head) == 0 {
		return nil
	}
	headCells := toStrings(head[0])
	h, err := newHeader(headCells)
	if err != nil {
		return &RowError{Row: 1, Err: err}
	}
	lastCol := columnName(len(headCells))

	for start := 2; ; start += sheetsPageRows {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := start + sheetsPageRows - 1
		rng := fmt.Sprintf("%s!A%d:%s%d", quoteSheet(s.sheet), start, lastCol, end)
		values, err := s.api.Get(ctx, s.spreadsheetID, rng)
		if err != nil {
			return fmt.Errorf("read %s: %w", rng, err)
		}

		for i, v := range values {
			row := start + i
			rec, skip, err := h.record(toStrings(v))
			if skip {
				continue
			}
			if err != nil {
				err = &RowError{Row: row, Err: err}
			}
			if err := fn(row, rec, err); err != nil {
				return err
			}
		}
		// The API trims trailing empty rows, so a short page is the last one.
		if len(values) < sheetsPageRows {
			return nil
		}
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// columnName converts a 1-based column number to its A1 letters.
func columnName(n int) string {
	if n < 1 {
		return "A"
	}
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
