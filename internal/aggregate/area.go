package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"darem/internal/schema"
	"darem/internal/storage"
)

// AreaRow is one year × municipality planted-area total.
type AreaRow struct {
	Area         float64 `json:"sum_area_year"`
	Year         int     `json:"year_gathered"`
	Municipality string  `json:"muni_name"`
}

// AreaByMunicipalityYear sums planted area per year and municipality for
// the last five years, plus one province-total row per year labeled
// ProvinceTotalLabel. Ordered by name then year, which is also what
// floats the province rows to the top.
func (e *Engine) AreaByMunicipalityYear(ctx context.Context) ([]AreaRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")
	since := e.year() - 4

	q := fmt.Sprintf(`
SELECT SUM(q.raw_area), %s, m.muni_name
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
WHERE %s >= ?
GROUP BY %s, q.raw_municipality, m.muni_name
UNION ALL
SELECT SUM(q.raw_area), %s, '%s'
FROM %s AS q
WHERE %s >= ?
GROUP BY %s
ORDER BY 3, 2`,
		year, schema.TableFarmerRaw, schema.TableMunicipalities, year, year,
		year, ProvinceTotalLabel, schema.TableFarmerRaw, year, year)

	out := []AreaRow{}
	err := e.repo.Select(ctx, q, []any{since, since}, func(scan storage.ScanFunc) error {
		var (
			area sql.NullFloat64
			yr   sql.NullInt64
			row  AreaRow
		)
		if err := scan(&area, &yr, &row.Municipality); err != nil {
			return err
		}
		row.Area = trunc2(area.Float64)
		row.Year = int(yr.Int64)
		out = append(out, row)
		return nil
	})
	return out, err
}

// YearAreaRow is one year's planted-area total.
type YearAreaRow struct {
	Area float64 `json:"sum_area_year"`
	Year int     `json:"year_gathered"`
}

// AreaTotalsPerYear sums planted area per gathered-year, chronological.
func (e *Engine) AreaTotalsPerYear(ctx context.Context) ([]YearAreaRow, error) {
	d := e.repo.Dialect()
	year := d.Year("raw_dgathered")

	q := fmt.Sprintf(`
SELECT SUM(raw_area), %s
FROM %s
GROUP BY %s
ORDER BY %s`,
		year, schema.TableFarmerRaw, year, year)

	out := []YearAreaRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			area sql.NullFloat64
			yr   sql.NullInt64
		)
		if err := scan(&area, &yr); err != nil {
			return err
		}
		out = append(out, YearAreaRow{Area: trunc2(area.Float64), Year: int(yr.Int64)})
		return nil
	})
	return out, err
}

// AreaRankRow is one municipality's planted-area total with its rank
// position.
type AreaRankRow struct {
	Municipality string  `json:"muni_name"`
	Area         float64 `json:"sum_area"`
	Rank         int     `json:"area_rank"`
}

// AreaRanking sums planted area per municipality, ranked descending.
func (e *Engine) AreaRanking(ctx context.Context) ([]AreaRankRow, error) {
	q := fmt.Sprintf(`
SELECT m.muni_name, SUM(q.raw_area)
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
GROUP BY q.raw_municipality, m.muni_name`,
		schema.TableFarmerRaw, schema.TableMunicipalities)

	out := []AreaRankRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			area sql.NullFloat64
			row  AreaRankRow
		)
		if err := scan(&row.Municipality, &area); err != nil {
			return err
		}
		row.Area = trunc2(area.Float64)
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		return rankedLess(out[a].Area, out[b].Area, out[a].Municipality, out[b].Municipality)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Headline is one municipality's dashboard header pair.
type Headline struct {
	Municipality string  `json:"muni_name"`
	FarmerCount  int64   `json:"farmer_count"`
	AreaTotal    float64 `json:"area_count"`
}

// MunicipalityHeadline returns the farmer count and planted-area total
// for one municipality, matched by exact name. An unknown name returns
// zeros, not an error.
func (e *Engine) MunicipalityHeadline(ctx context.Context, name string) (Headline, error) {
	h := Headline{Municipality: name}

	countQ := fmt.Sprintf(`
SELECT COUNT(*)
FROM %s AS f
JOIN %s AS m ON f.f_municipality = m.muni_id
WHERE m.muni_name = ?`,
		schema.TableFarmerDemo, schema.TableMunicipalities)
	err := e.repo.Select(ctx, countQ, []any{name}, func(scan storage.ScanFunc) error {
		return scan(&h.FarmerCount)
	})
	if err != nil {
		return h, err
	}

	areaQ := fmt.Sprintf(`
SELECT SUM(q.raw_area)
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
WHERE m.muni_name = ?`,
		schema.TableFarmerRaw, schema.TableMunicipalities)
	err = e.repo.Select(ctx, areaQ, []any{name}, func(scan storage.ScanFunc) error {
		var area sql.NullFloat64
		if err := scan(&area); err != nil {
			return err
		}
		h.AreaTotal = trunc2(area.Float64)
		return nil
	})
	return h, err
}
