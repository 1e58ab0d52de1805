package aggregate

import (
	"context"
	"database/sql"
	"fmt"

	"darem/internal/schema"
	"darem/internal/storage"
)

// PriceYearRow pairs the average medium and large grade prices for one
// year.
type PriceYearRow struct {
	LargePrice  float64 `json:"price_large"`
	MediumPrice float64 `json:"price_med"`
	Year        int     `json:"year_gathered"`
}

// PriceAveragesPerYear averages posted prices per year for both grades,
// truncated to two decimals, chronological.
func (e *Engine) PriceAveragesPerYear(ctx context.Context) ([]PriceYearRow, error) {
	d := e.repo.Dialect()
	year := d.Year("price_date")

	q := fmt.Sprintf(`
SELECT AVG(lg_price), AVG(med_price), %s
FROM %s
GROUP BY %s
ORDER BY %s`,
		year, schema.TablePrice, year, year)

	out := []PriceYearRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			lg, med sql.NullFloat64
			yr      sql.NullInt64
		)
		if err := scan(&lg, &med, &yr); err != nil {
			return err
		}
		out = append(out, PriceYearRow{
			LargePrice:  trunc2(lg.Float64),
			MediumPrice: trunc2(med.Float64),
			Year:        int(yr.Int64),
		})
		return nil
	})
	return out, err
}

// LargePriceRow is one year's average large-grade price.
type LargePriceRow struct {
	Price float64 `json:"price"`
	Year  int     `json:"year_"`
}

// LargePriceSeries averages the large-grade price per year, newest
// first, untruncated.
func (e *Engine) LargePriceSeries(ctx context.Context) ([]LargePriceRow, error) {
	d := e.repo.Dialect()
	year := d.Year("price_date")

	q := fmt.Sprintf(`
SELECT AVG(lg_price), %s
FROM %s
GROUP BY %s
ORDER BY %s DESC`,
		year, schema.TablePrice, year, year)

	out := []LargePriceRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			price sql.NullFloat64
			yr    sql.NullInt64
		)
		if err := scan(&price, &yr); err != nil {
			return err
		}
		out = append(out, LargePriceRow{Price: price.Float64, Year: int(yr.Int64)})
		return nil
	})
	return out, err
}

// RainfallYearRow is one year's accumulated rainfall.
type RainfallYearRow struct {
	Total float64 `json:"rain_amount_total"`
	Year  int     `json:"year_date"`
}

// RainfallPerYear sums recorded rainfall per observation year, truncated
// to two decimals, chronological.
func (e *Engine) RainfallPerYear(ctx context.Context) ([]RainfallYearRow, error) {
	d := e.repo.Dialect()
	year := d.Year("obs_date")

	q := fmt.Sprintf(`
SELECT SUM(rain_amount), %s
FROM %s
GROUP BY %s
ORDER BY %s`,
		year, schema.TableWeather, year, year)

	out := []RainfallYearRow{}
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			total sql.NullFloat64
			yr    sql.NullInt64
		)
		if err := scan(&total, &yr); err != nil {
			return err
		}
		out = append(out, RainfallYearRow{Total: trunc2(total.Float64), Year: int(yr.Int64)})
		return nil
	})
	return out, err
}

// PestRow is one catalog entry with its 1-based list position.
type PestRow struct {
	Position    int      `json:"count_"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Percent     *float64 `json:"percent"`
}

// PestEntries lists catalog rows for one category ("Pests", "Diseases"
// or "Weeds") in insertion order with a running position counter.
func (e *Engine) PestEntries(ctx context.Context, category string) ([]PestRow, error) {
	q := fmt.Sprintf(`
SELECT name, description, percent
FROM %s
WHERE category = ?
ORDER BY id`, schema.TablePests)

	out := []PestRow{}
	err := e.repo.Select(ctx, q, []any{category}, func(scan storage.ScanFunc) error {
		var (
			name, desc sql.NullString
			percent    sql.NullFloat64
			row        PestRow
		)
		if err := scan(&name, &desc, &percent); err != nil {
			return err
		}
		row.Position = len(out) + 1
		row.Name = name.String
		row.Description = desc.String
		if percent.Valid {
			row.Percent = &percent.Float64
		}
		out = append(out, row)
		return nil
	})
	return out, err
}
