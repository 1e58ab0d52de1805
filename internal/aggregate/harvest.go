package aggregate

import (
	"context"
	"database/sql"
	"fmt"

	"darem/internal/schema"
	"darem/internal/storage"
)

// Harvest reports read harvest_data, where municipality is free text as
// delivered by the field offices (no catalog join).

// HarvestRow is one municipality × year production total.
type HarvestRow struct {
	Production   float64 `json:"production_report"`
	Municipality string  `json:"municipality"`
	Year         int     `json:"year_gathered_1"`
}

// HarvestByMunicipalityYear sums production per municipality and year,
// ordered municipality then year.
func (e *Engine) HarvestByMunicipalityYear(ctx context.Context) ([]HarvestRow, error) {
	d := e.repo.Dialect()
	year := d.Year("h.year_gathered")

	q := fmt.Sprintf(`
SELECT SUM(h.production), h.municipality, %s
FROM %s AS h
GROUP BY %s, h.municipality
ORDER BY h.municipality, %s`,
		year, schema.TableHarvest, year, year)

	out := []HarvestRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			prod sql.NullFloat64
			muni sql.NullString
			yr   sql.NullInt64
		)
		if err := scan(&prod, &muni, &yr); err != nil {
			return err
		}
		out = append(out, HarvestRow{
			Production:   trunc2(prod.Float64),
			Municipality: muni.String,
			Year:         int(yr.Int64),
		})
		return nil
	})
	return out, err
}

// MuniHarvestRow is one year's production total for a single
// municipality.
type MuniHarvestRow struct {
	Production float64 `json:"production_report"`
	Year       int     `json:"year_gathered_1"`
}

// HarvestByMunicipality sums production per year for one municipality
// matched by exact text. An unknown name yields an empty result.
func (e *Engine) HarvestByMunicipality(ctx context.Context, name string) ([]MuniHarvestRow, error) {
	d := e.repo.Dialect()
	year := d.Year("h.year_gathered")

	q := fmt.Sprintf(`
SELECT SUM(h.production), %s
FROM %s AS h
WHERE h.municipality = ?
GROUP BY %s
ORDER BY %s`,
		year, schema.TableHarvest, year, year)

	out := []MuniHarvestRow{}
	err := e.repo.Select(ctx, q, []any{name}, func(scan storage.ScanFunc) error {
		var (
			prod sql.NullFloat64
			yr   sql.NullInt64
		)
		if err := scan(&prod, &yr); err != nil {
			return err
		}
		out = append(out, MuniHarvestRow{Production: trunc2(prod.Float64), Year: int(yr.Int64)})
		return nil
	})
	return out, err
}

// QuarterHarvestRow is one municipality × quarter production total.
type QuarterHarvestRow struct {
	Production   float64 `json:"production_report"`
	Municipality string  `json:"municipality"`
	Year         int     `json:"year_gathereds"`
	Quarter      int     `json:"quarters"`
	Label        string  `json:"year_gathered_1"`
}

// HarvestByQuarter sums production per municipality, year and quarter
// for the last four calendar years, labeled "YYYY Quarter n".
func (e *Engine) HarvestByQuarter(ctx context.Context) ([]QuarterHarvestRow, error) {
	d := e.repo.Dialect()
	year := d.Year("h.year_gathered")
	quarter := d.Quarter("h.year_gathered")
	since := e.year() - 3

	q := fmt.Sprintf(`
SELECT SUM(h.production), h.municipality, %s, %s
FROM %s AS h
WHERE %s >= ?
GROUP BY %s, %s, h.municipality
ORDER BY h.municipality, %s, %s`,
		year, quarter, schema.TableHarvest, year, year, quarter, year, quarter)

	out := []QuarterHarvestRow{}
	err := e.repo.Select(ctx, q, []any{since}, func(scan storage.ScanFunc) error {
		var (
			prod   sql.NullFloat64
			muni   sql.NullString
			yr, qu sql.NullInt64
			row    QuarterHarvestRow
		)
		if err := scan(&prod, &muni, &yr, &qu); err != nil {
			return err
		}
		row.Production = trunc2(prod.Float64)
		row.Municipality = muni.String
		row.Year = int(yr.Int64)
		row.Quarter = int(qu.Int64)
		row.Label = fmt.Sprintf("%d Quarter %d", row.Year, row.Quarter)
		out = append(out, row)
		return nil
	})
	return out, err
}

// MonthlyHarvestRow is one municipality × month production total.
type MonthlyHarvestRow struct {
	Production   float64 `json:"production_report"`
	Month        string  `json:"month_gathered"`
	Municipality string  `json:"municipality"`
	Year         int     `json:"year_val"`
}

// HarvestMonthly sums production per municipality and month for one
// year, with English month-name labels, ordered municipality then month.
func (e *Engine) HarvestMonthly(ctx context.Context, year int) ([]MonthlyHarvestRow, error) {
	d := e.repo.Dialect()
	month := d.Month("h.year_gathered")

	q := fmt.Sprintf(`
SELECT SUM(h.production), %s, h.municipality
FROM %s AS h
WHERE %s = ?
GROUP BY h.municipality, %s
ORDER BY h.municipality, %s`,
		month, schema.TableHarvest, d.Year("h.year_gathered"), month, month)

	out := []MonthlyHarvestRow{}
	err := e.repo.Select(ctx, q, []any{year}, func(scan storage.ScanFunc) error {
		var (
			prod sql.NullFloat64
			mo   sql.NullInt64
			muni sql.NullString
		)
		if err := scan(&prod, &mo, &muni); err != nil {
			return err
		}
		out = append(out, MonthlyHarvestRow{
			Production:   trunc2(prod.Float64),
			Month:        monthName(int(mo.Int64)),
			Municipality: muni.String,
			Year:         year,
		})
		return nil
	})
	return out, err
}
