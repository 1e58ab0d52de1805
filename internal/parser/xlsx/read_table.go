package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"darem/internal/config"
	"darem/internal/parser"
)

// ReadTable parses the first sheet of an xlsx workbook into a
// parser.Table. Field offices commonly upload the workbook itself rather
// than a CSV re-export; both land in the same import path.
//
// Only "trim_space" from the option bag applies here; cell values come
// from excelize already formatted as display strings.
func ReadTable(ctx context.Context, src io.Reader, opt config.Options) (parser.Table, error) {
	var t parser.Table

	f, err := excelize.OpenReader(src)
	if err != nil {
		return t, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return t, fmt.Errorf("xlsx: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return t, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	trim := opt.Bool("trim_space", true)

	for _, rec := range rows {
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		default:
		}

		row := make([]string, len(rec))
		for i, v := range rec {
			if trim {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}

		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
