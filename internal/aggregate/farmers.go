package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"darem/internal/schema"
	"darem/internal/storage"
)

// Farmer counting note: raw census rows repeat one person across
// gathering years, so every count here is COUNT(DISTINCT name-triple)
// over the '|'-joined first/middle/last key. Matching is exact; "Jon"
// and "jon" are two farmers, which mirrors how the paper records are
// kept.

// MuniCountRow is one municipality's distinct farmer count.
type MuniCountRow struct {
	Count        int64  `json:"farmer_count_per_muni"`
	Municipality string `json:"muni_name"`
}

// FarmerCountPerMunicipality counts distinct farmers per municipality,
// ascending by count.
func (e *Engine) FarmerCountPerMunicipality(ctx context.Context) ([]MuniCountRow, error) {
	q := fmt.Sprintf(`
SELECT COUNT(DISTINCT %s), m.muni_name
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
GROUP BY q.raw_municipality, m.muni_name
ORDER BY 1, m.muni_name`,
		e.nameKey(), schema.TableFarmerRaw, schema.TableMunicipalities)

	out := []MuniCountRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var row MuniCountRow
		if err := scan(&row.Count, &row.Municipality); err != nil {
			return err
		}
		out = append(out, row)
		return nil
	})
	return out, err
}

// YearCountRow is one gathered-year's distinct farmer count.
type YearCountRow struct {
	Count int64 `json:"farmer_count_per_year"`
	Year  int   `json:"year_gathered"`
}

// FarmerCountPerYear counts distinct farmers per gathered-year,
// chronological.
func (e *Engine) FarmerCountPerYear(ctx context.Context) ([]YearCountRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")

	q := fmt.Sprintf(`
SELECT COUNT(DISTINCT %s), %s
FROM %s AS q
GROUP BY %s
ORDER BY %s`,
		e.nameKey(), year, schema.TableFarmerRaw, year, year)

	out := []YearCountRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			yr  sql.NullInt64
			row YearCountRow
		)
		if err := scan(&row.Count, &yr); err != nil {
			return err
		}
		row.Year = int(yr.Int64)
		out = append(out, row)
		return nil
	})
	return out, err
}

// MuniYearCountRow is one municipality's distinct farmer count for one
// gathered-year.
type MuniYearCountRow struct {
	Count        int64  `json:"farmer_count_per_year"`
	Year         int    `json:"year_gathered"`
	Municipality string `json:"muni_name"`
}

// FarmerCountPerYearForMunicipality counts distinct farmers per
// gathered-year for one municipality matched by exact name. An unknown
// name yields an empty result.
func (e *Engine) FarmerCountPerYearForMunicipality(ctx context.Context, name string) ([]MuniYearCountRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")

	q := fmt.Sprintf(`
SELECT COUNT(DISTINCT %s), %s, m.muni_name
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
WHERE m.muni_name = ?
GROUP BY %s, m.muni_name
ORDER BY %s`,
		e.nameKey(), year, schema.TableFarmerRaw, schema.TableMunicipalities, year, year)

	out := []MuniYearCountRow{}
	err := e.repo.Select(ctx, q, []any{name}, func(scan storage.ScanFunc) error {
		var (
			yr  sql.NullInt64
			row MuniYearCountRow
		)
		if err := scan(&row.Count, &yr, &row.Municipality); err != nil {
			return err
		}
		row.Year = int(yr.Int64)
		out = append(out, row)
		return nil
	})
	return out, err
}

// DirectoryRow is one resolved farmer in the demographic listing.
type DirectoryRow struct {
	ID           int64  `json:"f_id"`
	Municipality string `json:"municipality"`
	Barangay     string `json:"barangay"`
	FullName     string `json:"fullname"`
	Gender       string `json:"gender"`
}

// FarmerDirectory lists the demographic table with geography resolved to
// display names. Only fully resolved rows appear (inner joins).
func (e *Engine) FarmerDirectory(ctx context.Context) ([]DirectoryRow, error) {
	q := fmt.Sprintf(`
SELECT f.f_id, m.muni_name, b.brgy_name, f.f_name, f.m_name, f.l_name, f.f_gender
FROM %s AS f
JOIN %s AS m ON f.f_municipality = m.muni_id
JOIN %s AS b ON f.f_barangay = b.brgy_id
ORDER BY f.f_id`,
		schema.TableFarmerDemo, schema.TableMunicipalities, schema.TableBarangays)

	out := []DirectoryRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			first, middle, last, gender sql.NullString
			row                         DirectoryRow
		)
		if err := scan(&row.ID, &row.Municipality, &row.Barangay, &first, &middle, &last, &gender); err != nil {
			return err
		}
		row.FullName = joinName(first, middle, last)
		row.Gender = gender.String
		out = append(out, row)
		return nil
	})
	return out, err
}

// joinName skips NULL and empty parts, so a missing middle name never
// leaves a double space in the display name.
func joinName(parts ...sql.NullString) string {
	var present []string
	for _, p := range parts {
		if p.Valid && p.String != "" {
			present = append(present, p.String)
		}
	}
	return strings.Join(present, " ")
}

// MunicipalitySelector lists the distinct municipality names present in
// the raw census data, ordered by municipality code length then name.
// Presentation prepends ProvinceName for the province-wide entry.
func (e *Engine) MunicipalitySelector(ctx context.Context) ([]string, error) {
	d := e.repo.Dialect()

	q := fmt.Sprintf(`
SELECT t.muni_select
FROM (
  SELECT DISTINCT m.muni_name AS muni_select, q.raw_municipality AS muni_code
  FROM %s AS q
  JOIN %s AS m ON q.raw_municipality = m.muni_id
  WHERE q.raw_municipality IS NOT NULL AND q.raw_municipality <> ''
) AS t
ORDER BY %s, t.muni_select`,
		schema.TableFarmerRaw, schema.TableMunicipalities, d.Length("t.muni_code"))

	out := []string{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var name string
		if err := scan(&name); err != nil {
			return err
		}
		out = append(out, name)
		return nil
	})
	return out, err
}

// DashboardTotals are the headline numbers on the main dashboard.
type DashboardTotals struct {
	FarmerCount     int64   `json:"count_farmer"`
	AreaTotal       float64 `json:"area_count"`
	ProductionTotal float64 `json:"production_count"`
	ExpectedHarvest float64 `json:"expected_harvest"`
}

// Totals computes the overall distinct farmer count, planted-area and
// production totals, and the current-year expected harvest.
func (e *Engine) Totals(ctx context.Context) (DashboardTotals, error) {
	var t DashboardTotals
	d := e.repo.Dialect()

	q := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) FROM %s AS q`, e.nameKey(), schema.TableFarmerRaw)
	if err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		return scan(&t.FarmerCount)
	}); err != nil {
		return t, err
	}

	q = fmt.Sprintf(`SELECT SUM(raw_area) FROM %s`, schema.TableFarmerRaw)
	if err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var area sql.NullFloat64
		if err := scan(&area); err != nil {
			return err
		}
		t.AreaTotal = trunc2(area.Float64)
		return nil
	}); err != nil {
		return t, err
	}

	q = fmt.Sprintf(`SELECT SUM(production) FROM %s`, schema.TableHarvest)
	if err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var prod sql.NullFloat64
		if err := scan(&prod); err != nil {
			return err
		}
		t.ProductionTotal = trunc2(prod.Float64)
		return nil
	}); err != nil {
		return t, err
	}

	q = fmt.Sprintf(`SELECT SUM(raw_population) FROM %s WHERE %s = ?`,
		schema.TableFarmerRaw, d.Year("raw_dharvest"))
	err := e.repo.Select(ctx, q, []any{e.year()}, func(scan storage.ScanFunc) error {
		var pop sql.NullFloat64
		if err := scan(&pop); err != nil {
			return err
		}
		t.ExpectedHarvest = round2(pop.Float64)
		return nil
	})
	return t, err
}
