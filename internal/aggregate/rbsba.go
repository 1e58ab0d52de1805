package aggregate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"darem/internal/schema"
	"darem/internal/storage"
)

// RBSBA is the farm business registry; a farmer counts as registered
// when the census row carries any registry number at all. Counting a
// farmer through a CASE inside COUNT(DISTINCT ...) works on every
// backend because the non-matching arm is NULL and NULLs never count.

// RBSBATotals is the overall registered vs not-registered split.
type RBSBATotals struct {
	Registered    int64 `json:"registered_count"`
	NotRegistered int64 `json:"notregistered_count"`
}

// RBSBAStatusTotals counts distinct farmers by registration status over
// the whole province.
func (e *Engine) RBSBAStatusTotals(ctx context.Context) (RBSBATotals, error) {
	var t RBSBATotals
	key := e.nameKey()

	q := fmt.Sprintf(`
SELECT
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') <> '' THEN %s END),
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') = '' THEN %s END)
FROM %s AS q`, key, key, schema.TableFarmerRaw)

	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		return scan(&t.Registered, &t.NotRegistered)
	})
	return t, err
}

// rbsbaGroup is one grouping bucket of the registration counts.
type rbsbaGroup struct {
	muni         string
	year         int
	registered   int64
	unregistered int64
	total        int64
}

func (e *Engine) rbsbaByMunicipality(ctx context.Context) ([]rbsbaGroup, error) {
	key := e.nameKey()

	q := fmt.Sprintf(`
SELECT
  m.muni_name,
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') <> '' THEN %s END),
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') = '' THEN %s END),
  COUNT(DISTINCT %s)
FROM %s AS q
JOIN %s AS m ON q.raw_municipality = m.muni_id
GROUP BY q.raw_municipality, m.muni_name
ORDER BY m.muni_name`,
		key, key, key, schema.TableFarmerRaw, schema.TableMunicipalities)

	var out []rbsbaGroup
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var g rbsbaGroup
		if err := scan(&g.muni, &g.registered, &g.unregistered, &g.total); err != nil {
			return err
		}
		out = append(out, g)
		return nil
	})
	return out, err
}

func (e *Engine) rbsbaByYear(ctx context.Context) ([]rbsbaGroup, error) {
	d := e.repo.Dialect()
	key := e.nameKey()
	year := d.Year("q.raw_dgathered")

	q := fmt.Sprintf(`
SELECT
  %s,
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') <> '' THEN %s END),
  COUNT(DISTINCT CASE WHEN COALESCE(q.rbsba, '') = '' THEN %s END),
  COUNT(DISTINCT %s)
FROM %s AS q
GROUP BY %s
ORDER BY %s`,
		year, key, key, key, schema.TableFarmerRaw, year, year)

	var out []rbsbaGroup
	err := e.repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var (
			yr sql.NullInt64
			g  rbsbaGroup
		)
		if err := scan(&yr, &g.registered, &g.unregistered, &g.total); err != nil {
			return err
		}
		g.year = int(yr.Int64)
		out = append(out, g)
		return nil
	})
	return out, err
}

// RBSBAMuniPercentRow is one municipality's registration share.
type RBSBAMuniPercentRow struct {
	Municipality      string   `json:"muni_name"`
	Registered        int64    `json:"registered_count"`
	Total             int64    `json:"total_num"`
	RegisteredPercent *float64 `json:"registered"`
}

// RBSBAPercentPerMunicipality reports each municipality's registered
// share, truncated to one decimal. Municipalities with no registered
// farmers at all are omitted, not shown as 0%.
func (e *Engine) RBSBAPercentPerMunicipality(ctx context.Context) ([]RBSBAMuniPercentRow, error) {
	groups, err := e.rbsbaByMunicipality(ctx)
	if err != nil {
		return nil, err
	}

	out := []RBSBAMuniPercentRow{}
	for _, g := range groups {
		if g.registered == 0 {
			continue
		}
		p := ratio(float64(g.registered), float64(g.total))
		if p != nil {
			t := trunc1(*p)
			p = &t
		}
		out = append(out, RBSBAMuniPercentRow{
			Municipality:      g.muni,
			Registered:        g.registered,
			Total:             g.total,
			RegisteredPercent: p,
		})
	}
	return out, nil
}

// RBSBAYearRow is one gathered-year's registration balance.
type RBSBAYearRow struct {
	Year              int      `json:"year_dg1"`
	Registered        int64    `json:"registered_count"`
	Unregistered      int64    `json:"unregistered_count"`
	Total             int64    `json:"total_num"`
	RegisteredPercent *float64 `json:"registered"`
}

// RBSBAPerYear reports the registration balance per gathered-year,
// chronological. Years missing either side drop out.
func (e *Engine) RBSBAPerYear(ctx context.Context) ([]RBSBAYearRow, error) {
	groups, err := e.rbsbaByYear(ctx)
	if err != nil {
		return nil, err
	}

	out := []RBSBAYearRow{}
	for _, g := range groups {
		if g.registered == 0 || g.unregistered == 0 {
			continue
		}
		p := ratio(float64(g.registered), float64(g.total))
		if p != nil {
			t := trunc1(*p)
			p = &t
		}
		out = append(out, RBSBAYearRow{
			Year:              g.year,
			Registered:        g.registered,
			Unregistered:      g.unregistered,
			Total:             g.total,
			RegisteredPercent: p,
		})
	}
	return out, nil
}

// RBSBATableRow is the full registration table line for one
// municipality.
type RBSBATableRow struct {
	Municipality        string   `json:"muni_name"`
	Registered          int64    `json:"rbsba_registered"`
	Unregistered        int64    `json:"rbsba_unregistered"`
	Total               int64    `json:"total_num"`
	RegisteredPercent   *float64 `json:"registred_percentage"`
	UnregisteredPercent *float64 `json:"unregistred_percentage"`
}

// RBSBATable reports registered/unregistered counts and their shares per
// municipality, truncated to two decimals. Municipalities missing either
// side drop out.
func (e *Engine) RBSBATable(ctx context.Context) ([]RBSBATableRow, error) {
	groups, err := e.rbsbaByMunicipality(ctx)
	if err != nil {
		return nil, err
	}

	out := []RBSBATableRow{}
	for _, g := range groups {
		if g.registered == 0 || g.unregistered == 0 {
			continue
		}
		out = append(out, RBSBATableRow{
			Municipality:        g.muni,
			Registered:          g.registered,
			Unregistered:        g.unregistered,
			Total:               g.total,
			RegisteredPercent:   truncPtr2(ratio(float64(g.registered), float64(g.total))),
			UnregisteredPercent: truncPtr2(ratio(float64(g.unregistered), float64(g.total))),
		})
	}
	return out, nil
}

// RBSBAMuniRow is the registered vs unregistered pair for one
// municipality.
type RBSBAMuniRow struct {
	Municipality string `json:"muni_name"`
	Registered   int64  `json:"rbsba_registered"`
	Unregistered int64  `json:"rbsba_unregistered"`
}

// RBSBAPerMunicipality reports registered vs unregistered counts per
// municipality, ordered registered descending then name. Municipalities
// missing either side drop out.
func (e *Engine) RBSBAPerMunicipality(ctx context.Context) ([]RBSBAMuniRow, error) {
	groups, err := e.rbsbaByMunicipality(ctx)
	if err != nil {
		return nil, err
	}

	out := []RBSBAMuniRow{}
	for _, g := range groups {
		if g.registered == 0 || g.unregistered == 0 {
			continue
		}
		out = append(out, RBSBAMuniRow{
			Municipality: g.muni,
			Registered:   g.registered,
			Unregistered: g.unregistered,
		})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return rankedLess(float64(out[a].Registered), float64(out[b].Registered), out[a].Municipality, out[b].Municipality)
	})
	return out, nil
}
