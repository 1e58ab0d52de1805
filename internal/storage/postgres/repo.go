package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"darem/internal/storage"
)

/*
Repo implements storage.Repository for Postgres on a pgx connection pool.

Placeholder note: shared query text uses '?'; every statement is rebound
to $N before execution so the aggregation catalog stays single-sourced.
*/
type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = int32(cfg.MaxConns)
	} else {
		pc.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (r *Repo) Dialect() storage.Dialect { return dialect{} }

func (r *Repo) EnsureSchema(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func buildCreateTableSQL(t storage.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("table name is empty")
	}

	var parts []string

	if t.PrimaryKey != nil {
		switch t.PrimaryKey.Type {
		case "serial":
			parts = append(parts, fmt.Sprintf(`%s BIGSERIAL PRIMARY KEY`, storage.SQLIdent(t.PrimaryKey.Name)))
		default:
			parts = append(parts, fmt.Sprintf(`%s TEXT PRIMARY KEY`, storage.SQLIdent(t.PrimaryKey.Name)))
		}
	}

	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", storage.SQLIdent(c.Name), columnType(c.Type))
		if c.Nullable != nil && !*c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", t.Name, strings.Join(parts, ",\n  ")), nil
}

func columnType(portable string) string {
	switch portable {
	case "real":
		return "DOUBLE PRECISION"
	case "int":
		return "INTEGER"
	case "date":
		return "DATE"
	default:
		return "TEXT"
	}
}

// insertChunk keeps a multi-VALUES statement well under the wire
// protocol's 65535 bind-parameter ceiling.
const insertChunk = 1000

// InsertRows inserts all rows inside one transaction, chunked into
// multi-VALUES statements. A file's batch either commits whole or not
// at all.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, storage.SQLIdent(c))
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(colList, ", "))

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	for start := 0; start < len(rows); start += insertChunk {
		end := start + insertChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*len(columns))
		p := 0
		for i, row := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for j := range columns {
				if j > 0 {
					b.WriteString(", ")
				}
				p++
				fmt.Fprintf(&b, "$%d", p)
			}
			b.WriteString(")")
			args = append(args, row...)
		}

		tag, err := tx.Exec(ctx, b.String(), args...)
		if err != nil {
			return 0, err
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) Select(ctx context.Context, query string, args []any, fn func(scan storage.ScanFunc) error) error {
	rows, err := r.pool.Query(ctx, storage.Rebind(storage.BindDollar, query), args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *Repo) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := r.pool.Exec(ctx, storage.Rebind(storage.BindDollar, query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) ResolveMunicipalityRefs(ctx context.Context, batchTag string) (int64, error) {
	const q = `
UPDATE qp_farmer_raw
SET raw_municipality = m.muni_id
FROM tbl_muni AS m
WHERE qp_farmer_raw.raw_municipality = m.muni_name
  AND qp_farmer_raw.f_id = $1`
	tag, err := r.pool.Exec(ctx, q, batchTag)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repo) ResolveBarangayRefs(ctx context.Context) (int64, error) {
	const q = `
UPDATE qp_farmer_raw
SET raw_barangay = b.brgy_id
FROM tbl_barangay AS b
WHERE qp_farmer_raw.raw_barangay = b.brgy_name
  AND qp_farmer_raw.raw_municipality = b.muni_id`
	tag, err := r.pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type dialect struct{}

func (dialect) Name() string { return "postgres" }

func (dialect) Year(col string) string {
	return fmt.Sprintf("EXTRACT(YEAR FROM %s)::int", col)
}

func (dialect) Quarter(col string) string {
	return fmt.Sprintf("EXTRACT(QUARTER FROM %s)::int", col)
}

func (dialect) Month(col string) string {
	return fmt.Sprintf("EXTRACT(MONTH FROM %s)::int", col)
}

func (dialect) Length(col string) string {
	return fmt.Sprintf("LENGTH(%s)", col)
}

func (dialect) Concat(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "'") {
			out = append(out, p)
			continue
		}
		out = append(out, fmt.Sprintf("COALESCE(%s, '')", p))
	}
	return "(" + strings.Join(out, " || ") + ")"
}
