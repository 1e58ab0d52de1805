package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"darem/internal/schema"
	"darem/internal/storage"
)

// GenderYearRow pairs male and female distinct farmer counts for one
// gathered-year.
type GenderYearRow struct {
	Year   int   `json:"year_dg"`
	Male   int64 `json:"male_count"`
	Female int64 `json:"female_count"`
}

// GenderPerYear joins male and female distinct farmer counts on
// gathered-year. The join is intentionally inner: a year with only one
// gender recorded drops from the series.
func (e *Engine) GenderPerYear(ctx context.Context) ([]GenderYearRow, error) {
	d := e.repo.Dialect()
	year := d.Year("q.raw_dgathered")
	key := e.nameKey()

	q := fmt.Sprintf(`
SELECT tm.year_dg, tm.male_count, tf.female_count
FROM (
  SELECT %s AS year_dg, COUNT(DISTINCT %s) AS male_count
  FROM %s AS q
  WHERE q.raw_gender = 'M'
  GROUP BY %s
) AS tm
JOIN (
  SELECT %s AS year_dg, COUNT(DISTINCT %s) AS female_count
  FROM %s AS q
  WHERE q.raw_gender = 'F'
  GROUP BY %s
) AS tf ON tm.year_dg = tf.year_dg
ORDER BY tm.year_dg`,
		year, key, schema.TableFarmerRaw, year,
		year, key, schema.TableFarmerRaw, year)

	out := []GenderYearRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			yr  sql.NullInt64
			row GenderYearRow
		)
		if err := scan(&yr, &row.Male, &row.Female); err != nil {
			return err
		}
		row.Year = int(yr.Int64)
		out = append(out, row)
		return nil
	})
	return out, err
}

// GenderMuniRow is one municipality's male/female/total split from the
// demographic table.
type GenderMuniRow struct {
	Municipality string `json:"f_municipality"`
	Male         int64  `json:"male"`
	Female       int64  `json:"female"`
	Total        int64  `json:"total"`
}

// GenderTotalsPerMunicipality counts demographic rows by gender per
// municipality, ordered by total ascending.
func (e *Engine) GenderTotalsPerMunicipality(ctx context.Context) ([]GenderMuniRow, error) {
	q := fmt.Sprintf(`
SELECT
  m.muni_name,
  SUM(CASE WHEN f.f_gender = 'M' THEN 1 ELSE 0 END),
  SUM(CASE WHEN f.f_gender = 'F' THEN 1 ELSE 0 END)
FROM %s AS f
JOIN %s AS m ON f.f_municipality = m.muni_id
GROUP BY f.f_municipality, m.muni_name`,
		schema.TableFarmerDemo, schema.TableMunicipalities)

	out := []GenderMuniRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var row GenderMuniRow
		if err := scan(&row.Municipality, &row.Male, &row.Female); err != nil {
			return err
		}
		row.Total = row.Male + row.Female
		out = append(out, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Total != out[b].Total {
			return out[a].Total < out[b].Total
		}
		return out[a].Municipality < out[b].Municipality
	})
	return out, nil
}

// GenderSplit is the overall male/female breakdown with share percents.
type GenderSplit struct {
	Male          int64    `json:"male"`
	Female        int64    `json:"female"`
	MalePercent   *float64 `json:"male_percent"`
	FemalePercent *float64 `json:"female_percent"`
}

// GenderTotals counts the demographic table by gender and derives share
// percents, nil when the table holds no gendered rows.
func (e *Engine) GenderTotals(ctx context.Context) (GenderSplit, error) {
	var g GenderSplit

	q := fmt.Sprintf(`
SELECT
  SUM(CASE WHEN f_gender = 'M' THEN 1 ELSE 0 END),
  SUM(CASE WHEN f_gender = 'F' THEN 1 ELSE 0 END)
FROM %s`, schema.TableFarmerDemo)

	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var male, female sql.NullInt64
		if err := scan(&male, &female); err != nil {
			return err
		}
		g.Male = male.Int64
		g.Female = female.Int64
		return nil
	})
	if err != nil {
		return g, err
	}

	total := float64(g.Male + g.Female)
	g.MalePercent = truncPtr2(ratio(float64(g.Male), total))
	g.FemalePercent = truncPtr2(ratio(float64(g.Female), total))
	return g, nil
}

// AgeBucketRow is one bucket of the logical age histogram.
type AgeBucketRow struct {
	Count  float64 `json:"count_"`
	Range  string  `json:"range_"`
	Gender string  `json:"f_gender"`
}

// AgeHistogram returns the pre-aggregated age buckets for one gender in
// bucket order. The buckets are maintained upstream; nothing here
// re-derives them from birthdates.
func (e *Engine) AgeHistogram(ctx context.Context, gender string) ([]AgeBucketRow, error) {
	q := fmt.Sprintf(`
SELECT count_, range_, f_gender
FROM %s
WHERE f_gender = ?
ORDER BY bucket, id`, schema.TableAgeBucket)

	out := []AgeBucketRow{}
	err := e.repo.Select(ctx, q, []any{gender}, func(scan storage.ScanFunc) error {
		var (
			cnt    sql.NullFloat64
			rng, g sql.NullString
		)
		if err := scan(&cnt, &rng, &g); err != nil {
			return err
		}
		out = append(out, AgeBucketRow{Count: cnt.Float64, Range: rng.String, Gender: g.String})
		return nil
	})
	return out, err
}

// TenurialRow is one municipality's farmer counts by tenurial
// classification. Classification spellings are carried verbatim from the
// census forms, including "Lesse".
type TenurialRow struct {
	Municipality string `json:"muni_name"`
	Unclassified int64  `json:"all_"`
	Tenant       int64  `json:"tenant"`
	Cultivator   int64  `json:"cultivator"`
	Owner        int64  `json:"owner"`
	Lesse        int64  `json:"lesse"`
	Renting      int64  `json:"renting"`
	CoOwner      int64  `json:"co_owner"`
}

// TenurialBreakdown pivots distinct farmer counts by tenurial
// classification per municipality. The unclassified count (empty
// tenurial) drives the result: municipalities without unclassified rows
// do not appear, and a classification with no rows reads 0.
func (e *Engine) TenurialBreakdown(ctx context.Context) ([]TenurialRow, error) {
	q := fmt.Sprintf(`
SELECT m.muni_name, COALESCE(q.tenurial, ''), COUNT(DISTINCT %s)
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
GROUP BY q.raw_municipality, m.muni_name, COALESCE(q.tenurial, '')
ORDER BY m.muni_name`,
		e.nameKey(), schema.TableFarmerRaw, schema.TableMunicipalities)

	byMuni := map[string]*TenurialRow{}
	var order []string
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			muni, class string
			count       int64
		)
		if err := scan(&muni, &class, &count); err != nil {
			return err
		}
		row := byMuni[muni]
		if row == nil {
			row = &TenurialRow{Municipality: muni}
			byMuni[muni] = row
			order = append(order, muni)
		}
		switch class {
		case "":
			row.Unclassified = count
		case "Tenant":
			row.Tenant = count
		case "Cultivator":
			row.Cultivator = count
		case "Owner":
			row.Owner = count
		case "Lesse":
			row.Lesse = count
		case "Renting":
			row.Renting = count
		case "Co-Owner":
			row.CoOwner = count
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := []TenurialRow{}
	for _, muni := range order {
		row := byMuni[muni]
		if row.Unclassified == 0 {
			continue
		}
		out = append(out, *row)
	}
	return out, nil
}
