package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"darem/internal/schema"
	"darem/internal/storage"
)

// PopulationRow is one year × municipality crop-population total.
type PopulationRow struct {
	Population   float64 `json:"population"`
	Year         int     `json:"year_gathered"`
	Municipality string  `json:"muni_name"`
}

// PopulationByMunicipalityYear sums planted population per year and
// municipality. Order follows the municipality code (shorter codes
// first, then code, then year) so the series lines up with the static
// chart legends.
func (e *Engine) PopulationByMunicipalityYear(ctx context.Context) ([]PopulationRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")

	q := fmt.Sprintf(`
SELECT SUM(q.raw_population), %s, m.muni_name
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
GROUP BY %s, q.raw_municipality, m.muni_name
ORDER BY %s, q.raw_municipality, %s`,
		year, schema.TableFarmerRaw, schema.TableMunicipalities, year, d.Length("q.raw_municipality"), year)

	out := []PopulationRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			pop sql.NullFloat64
			yr  sql.NullInt64
			row PopulationRow
		)
		if err := scan(&pop, &yr, &row.Municipality); err != nil {
			return err
		}
		row.Population = pop.Float64
		row.Year = int(yr.Int64)
		out = append(out, row)
		return nil
	})
	return out, err
}

// QuarterPopulationRow is one year × quarter crop-population total.
type QuarterPopulationRow struct {
	Population float64 `json:"population"`
	Year       int     `json:"year_gathereds"`
	Quarter    int     `json:"quarters"`
	Label      string  `json:"year_gathered"`
}

// PopulationByQuarter sums planted population per calendar quarter,
// chronological, with a "YYYY Q n" display label.
func (e *Engine) PopulationByQuarter(ctx context.Context) ([]QuarterPopulationRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")
	quarter := d.Quarter("q.raw_dgathered")

	q := fmt.Sprintf(`
SELECT SUM(q.raw_population), %s, %s
FROM %s AS q
GROUP BY %s, %s
ORDER BY %s, %s`,
		year, quarter, schema.TableFarmerRaw, year, quarter, year, quarter)

	out := []QuarterPopulationRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			pop    sql.NullFloat64
			yr, qu sql.NullInt64
			row    QuarterPopulationRow
		)
		if err := scan(&pop, &yr, &qu); err != nil {
			return err
		}
		row.Population = pop.Float64
		row.Year = int(yr.Int64)
		row.Quarter = int(qu.Int64)
		row.Label = fmt.Sprintf("%d Q %d", row.Year, row.Quarter)
		out = append(out, row)
		return nil
	})
	return out, err
}

// ExpectedHarvestRow is one municipality's expected harvest with its
// rank position.
type ExpectedHarvestRow struct {
	ExpectedHarvest float64 `json:"expected_harvest"`
	Municipality    string  `json:"muni_name"`
	Rank            int     `json:"ranking"`
}

// ExpectedHarvestRanking sums the planted population expected to be
// harvested in the given year, per municipality, ranked descending.
// Expected harvest is the one figure the office rounds rather than
// truncates.
func (e *Engine) ExpectedHarvestRanking(ctx context.Context, year int) ([]ExpectedHarvestRow, error) {
	d := e.repo.Dialect()

	q := fmt.Sprintf(`
SELECT SUM(q.raw_population), m.muni_name
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
WHERE %s = ?
GROUP BY q.raw_municipality, m.muni_name`,
		schema.TableFarmerRaw, schema.TableMunicipalities, d.Year("q.raw_dharvest"))

	out := []ExpectedHarvestRow{}
	err := e.repo.Select(ctx, q, []any{year}, func(scan storage.ScanFunc) error {
		var (
			pop sql.NullFloat64
			row ExpectedHarvestRow
		)
		if err := scan(&pop, &row.Municipality); err != nil {
			return err
		}
		row.ExpectedHarvest = round2(pop.Float64)
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		return rankedLess(out[a].ExpectedHarvest, out[b].ExpectedHarvest, out[a].Municipality, out[b].Municipality)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// PopulationDeltaRow is the year-over-year population movement of one
// municipality.
type PopulationDeltaRow struct {
	Municipality  string   `json:"muni_name"`
	Current       float64  `json:"pop1"`
	Previous      float64  `json:"pop2"`
	CurrentYear   int      `json:"pop_year1"`
	PreviousYear  int      `json:"pop_year2"`
	Difference    float64  `json:"diff_pop"`
	ChangePercent *float64 `json:"change_pop"`
}

// PopulationDelta compares each municipality's population between
// year-1 and year-2. Municipalities missing either year drop out (inner
// join); a zero base year yields a nil percent. Ordered by percent
// change descending, nil percents last.
func (e *Engine) PopulationDelta(ctx context.Context, year int) ([]PopulationDeltaRow, error) {
	d := e.repo.Dialect()
	y1, y2 := year-1, year-2

	q := fmt.Sprintf(`
SELECT m.muni_name, t1.population, t2.population
FROM %s AS m
JOIN (
  SELECT SUM(raw_population) AS population, raw_municipality
  FROM %s
  WHERE %s = ?
  GROUP BY raw_municipality
) AS t1 ON m.muni_id = t1.raw_municipality
JOIN (
  SELECT SUM(raw_population) AS population, raw_municipality
  FROM %s
  WHERE %s = ?
  GROUP BY raw_municipality
) AS t2 ON m.muni_id = t2.raw_municipality`,
		schema.TableMunicipalities,
		schema.TableFarmerRaw, d.Year("raw_dgathered"),
		schema.TableFarmerRaw, d.Year("raw_dgathered"))

	out := []PopulationDeltaRow{}
	err := e.repo.Select(ctx, q, []any{y1, y2}, func(scan storage.ScanFunc) error {
		var (
			p1, p2 sql.NullFloat64
			row    PopulationDeltaRow
		)
		if err := scan(&row.Municipality, &p1, &p2); err != nil {
			return err
		}
		row.Current = p1.Float64
		row.Previous = p2.Float64
		row.CurrentYear = y1
		row.PreviousYear = y2
		row.Difference = row.Current - row.Previous
		row.ChangePercent = truncPtr2(ratio(row.Difference, row.Previous))
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		ca, cb := out[a].ChangePercent, out[b].ChangePercent
		switch {
		case ca == nil && cb == nil:
			return out[a].Municipality < out[b].Municipality
		case ca == nil:
			return false
		case cb == nil:
			return true
		default:
			return rankedLess(*ca, *cb, out[a].Municipality, out[b].Municipality)
		}
	})
	return out, nil
}
