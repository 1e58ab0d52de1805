package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"darem/internal/parser"
)

// Observation is one reconstructed rainfall reading.
type Observation struct {
	Date   time.Time
	Amount string
}

// ReconstructRainfall converts a transposed rainfall sheet into one
// observation per non-empty cell.
//
// Sheet shape: header cell 0 is the calendar year, header cells from
// index 2 onward are month tokens (full name, short name, or 1..12); each
// data row stands for one day-of-month, 1-based by row position. Column 1
// is the sheet's own day label and is ignored, as is anything in header
// cell 1.
//
// The two-pass reconstruction is kept as-is from the production sheets'
// established semantics: form a provisional date from (year, dayOfMonth,
// monthToken), parse it to recover the calendar month, then rebuild the
// final date as (year, derivedMonth, dayOfMonth). A provisional date that
// does not parse (unknown token, or a day index past the month's end)
// counts as malformed and emits nothing; reconstruction continues with
// the remaining cells.
func ReconstructRainfall(t parser.Table) (obs []Observation, malformed int, err error) {
	if len(t.Header) == 0 || strings.TrimSpace(t.Header[0]) == "" {
		return nil, 0, fmt.Errorf("%w: rainfall sheet has no year header", ErrSchemaMismatch)
	}
	year, err := strconv.Atoi(strings.TrimSpace(t.Header[0]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: rainfall year header %q", ErrSchemaMismatch, t.Header[0])
	}

	for j := range t.Rows {
		day := j + 1
		for i := 2; i < len(t.Header); i++ {
			amount := t.At(j, i)
			if amount == "" {
				continue
			}

			d, derr := reconstructDate(year, day, t.Header[i])
			if derr != nil {
				malformed++
				continue
			}
			obs = append(obs, Observation{Date: d, Amount: amount})
		}
	}
	return obs, malformed, nil
}

// provisionalLayouts cover the month-token forms seen in the field
// sheets. In each layout the middle slot is the day and the last slot the
// month, mirroring the provisional string.
var provisionalLayouts = []string{
	"2006-2-January",
	"2006-2-Jan",
	"2006-2-1",
}

// reconstructDate performs the two-pass rebuild for one cell. Do not
// collapse this into a direct month-token lookup: the provisional parse
// is also what rejects day indexes that overflow the month.
func reconstructDate(year, day int, monthToken string) (time.Time, error) {
	provisional := fmt.Sprintf("%d-%d-%s", year, day, strings.TrimSpace(monthToken))

	for _, layout := range provisionalLayouts {
		p, err := time.Parse(layout, provisional)
		if err != nil {
			continue
		}
		return time.Date(year, p.Month(), day, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, provisional)
}
