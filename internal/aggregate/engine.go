// Package aggregate is the read-side query catalog: every dashboard
// number the system publishes comes out of one function here.
//
// All functions are pure reads over the schema catalog, return flat
// ordered records, and return an empty slice when there is no data.
// Queries are written once with '?' placeholders and per-backend syntax
// goes through storage.Dialect; ratios, truncation, rankings and month
// names are computed in Go because the backends disagree on all four.
package aggregate

import (
	"math"
	"time"

	"darem/internal/storage"
)

// ProvinceName is the selector entry presentation prepends before the
// municipality list.
const ProvinceName = "Camarines Norte"

// ProvinceTotalLabel tags province-wide total rows in the area series.
// The leading "A" keeps the row first under the name ordering the charts
// rely on.
const ProvinceTotalLabel = "A Camarines Norte"

// Engine runs the aggregation catalog against one repository.
type Engine struct {
	repo storage.Repository

	// now is a clock seam for the relative-year windows; tests pin it.
	now func() time.Time
}

// New returns an Engine over repo.
func New(repo storage.Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

func (e *Engine) year() int {
	return e.now().Year()
}

func (e *Engine) nameKey() string {
	d := e.repo.Dialect()
	return storage.NameKey(d, "q.raw_fname", "q.raw_mname", "q.raw_lname")
}

// trunc2 truncates toward zero to 2 decimals, matching how the source
// figures have always been published (12.999 -> 12.99, not 13.00).
func trunc2(v float64) float64 {
	return math.Trunc(v*100) / 100
}

func trunc1(v float64) float64 {
	return math.Trunc(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// truncPtr2 is trunc2 over a nullable value.
func truncPtr2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	t := trunc2(*v)
	return &t
}

// ratio returns num/den*100, or nil when the denominator is zero.
func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	r := num / den * 100
	return &r
}

// monthName returns the English month name for 1..12, empty otherwise.
func monthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()
}

// rankedLess is the ordering every ranking in the catalog uses: measure
// descending, name ascending. The name tie-break keeps equal measures
// ranked deterministically across runs.
func rankedLess(ma, mb float64, na, nb string) bool {
	if ma != mb {
		return ma > mb
	}
	return na < nb
}
