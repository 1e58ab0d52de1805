package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"darem/internal/config"
	"darem/internal/parser"
)

// ReadTable parses a delimited stream into a parser.Table.
//
// Options:
//
//	"comma"       delimiter rune (default ',')
//	"trim_space"  trim cell edge space (default true)
//	"lazy_quotes" tolerate bare quotes (default false)
//	"encoding"    "windows-1252" / "latin-1" for legacy Excel exports;
//	              default is UTF-8 passthrough
//
// The first row is the header; a UTF-8 BOM on the first header cell is
// stripped. Rows may be ragged; no width is enforced here because the
// rainfall sheet is legitimately jagged. ctx is checked between rows.
func ReadTable(ctx context.Context, src io.Reader, opt config.Options) (parser.Table, error) {
	var t parser.Table

	r, err := decodeReader(src, opt.String("encoding", ""))
	if err != nil {
		return t, err
	}

	trim := opt.Bool("trim_space", true)

	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	line := 0
	for {
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return t, fmt.Errorf("csv read line %d: %w", line+1, err)
		}
		line++

		row := make([]string, len(rec))
		for i, v := range rec {
			if trim {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}

		if t.Header == nil {
			if len(row) > 0 {
				row[0] = strings.TrimPrefix(row[0], "\uFEFF")
			}
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func decodeReader(src io.Reader, encName string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encName)) {
	case "":
		return src, nil
	case "windows-1252", "cp1252":
		return transform.NewReader(src, charmap.Windows1252.NewDecoder()), nil
	case "latin-1", "iso-8859-1":
		return transform.NewReader(src, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encName)
	}
}
