package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"darem/internal/storage"
)

// Repo implements storage.Repository for SQLite.
//
// Key design points vs Postgres:
//   - SQLite has no native DATE type; date columns get TEXT affinity and
//     store ISO-8601 "YYYY-MM-DD" strings. All dialect date-part
//     expressions are strftime over that text form.
//   - ":memory:" databases are per-connection, so the pool is pinned to a
//     single connection for memory DSNs.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	if strings.Contains(cfg.DSN, ":memory:") {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

func (r *Repo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (r *Repo) Dialect() storage.Dialect { return dialect{} }

// EnsureSchema creates missing catalog tables. Idempotent.
func (r *Repo) EnsureSchema(ctx context.Context, tables []storage.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
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
			// "INTEGER PRIMARY KEY" is special in sqlite: it becomes the
			// rowid and auto-generates values.
			parts = append(parts, fmt.Sprintf(`%s INTEGER PRIMARY KEY AUTOINCREMENT`, storage.SQLIdent(t.PrimaryKey.Name)))
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
		return "REAL"
	case "int":
		return "INTEGER"
	default:
		// "text" and "date": date values are ISO-8601 strings.
		return "TEXT"
	}
}

// insertChunk keeps a multi-VALUES statement well under the sqlite
// bind-variable limit.
const insertChunk = 500

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
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(columns)), ",") + ")"
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(colList, ", "))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

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
		for i, row := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(placeholders)
			args = append(args, row...)
		}

		res, err := tx.ExecContext(ctx, b.String(), args...)
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repo) Select(ctx context.Context, query string, args []any, fn func(scan storage.ScanFunc) error) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ResolveMunicipalityRefs rewrites name -> muni_id for one import batch.
// SQLite supports UPDATE ... FROM since 3.33.
func (r *Repo) ResolveMunicipalityRefs(ctx context.Context, batchTag string) (int64, error) {
	const q = `
UPDATE qp_farmer_raw
SET raw_municipality = m.muni_id
FROM tbl_muni AS m
WHERE qp_farmer_raw.raw_municipality = m.muni_name
  AND qp_farmer_raw.f_id = ?`
	return r.Exec(ctx, q, batchTag)
}

// ResolveBarangayRefs rewrites name -> brgy_id using the compound
// name + resolved-municipality match. Rows whose municipality is still a
// literal name simply do not match and are left untouched.
func (r *Repo) ResolveBarangayRefs(ctx context.Context) (int64, error) {
	const q = `
UPDATE qp_farmer_raw
SET raw_barangay = b.brgy_id
FROM tbl_barangay AS b
WHERE qp_farmer_raw.raw_barangay = b.brgy_name
  AND qp_farmer_raw.raw_municipality = b.muni_id`
	return r.Exec(ctx, q)
}

type dialect struct{}

func (dialect) Name() string { return "sqlite" }

func (dialect) Year(col string) string {
	return fmt.Sprintf("CAST(strftime('%%Y', %s) AS INTEGER)", col)
}

func (dialect) Quarter(col string) string {
	return fmt.Sprintf("((CAST(strftime('%%m', %s) AS INTEGER) + 2) / 3)", col)
}

func (dialect) Month(col string) string {
	return fmt.Sprintf("CAST(strftime('%%m', %s) AS INTEGER)", col)
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
