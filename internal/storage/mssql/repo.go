package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"darem/internal/storage"
)

// Repo implements storage.Repository for Microsoft SQL Server.
//
// Notes:
//   - Statements bind with @pN; shared '?' query text is rebound first.
//   - CREATE TABLE IF NOT EXISTS does not exist; EnsureSchema guards each
//     CREATE with an OBJECT_ID check instead.
//   - Text primary keys are NVARCHAR(255) because NVARCHAR(MAX) cannot be
//     indexed.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
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
			parts = append(parts, fmt.Sprintf(`%s BIGINT IDENTITY(1,1) PRIMARY KEY`, storage.SQLIdent(t.PrimaryKey.Name)))
		default:
			parts = append(parts, fmt.Sprintf(`%s NVARCHAR(255) PRIMARY KEY`, storage.SQLIdent(t.PrimaryKey.Name)))
		}
	}

	for _, c := range t.Columns {
		col := fmt.Sprintf("%s %s", storage.SQLIdent(c.Name), columnType(c.Type))
		if c.Nullable != nil && !*c.Nullable {
			col += " NOT NULL"
		}
		parts = append(parts, col)
	}

	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
		t.Name, t.Name, strings.Join(parts, ",\n  "),
	), nil
}

func columnType(portable string) string {
	switch portable {
	case "real":
		return "FLOAT"
	case "int":
		return "INT"
	case "date":
		return "DATE"
	default:
		return "NVARCHAR(MAX)"
	}
}

// insertChunk keeps each statement under SQL Server's 2100 bind-parameter
// limit even for the widest catalog table.
const insertChunk = 100

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
				fmt.Fprintf(&b, "@p%d", p)
			}
			b.WriteString(")")
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
	rows, err := r.db.QueryContext(ctx, storage.Rebind(storage.BindAt, query), args...)
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
	res, err := r.db.ExecContext(ctx, storage.Rebind(storage.BindAt, query), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) ResolveMunicipalityRefs(ctx context.Context, batchTag string) (int64, error) {
	const q = `
UPDATE q
SET q.raw_municipality = m.muni_id
FROM qp_farmer_raw AS q
JOIN tbl_muni AS m ON q.raw_municipality = m.muni_name
WHERE q.f_id = @p1`
	res, err := r.db.ExecContext(ctx, q, batchTag)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *Repo) ResolveBarangayRefs(ctx context.Context) (int64, error) {
	const q = `
UPDATE q
SET q.raw_barangay = b.brgy_id
FROM qp_farmer_raw AS q
JOIN tbl_barangay AS b
  ON q.raw_barangay = b.brgy_name
 AND q.raw_municipality = b.muni_id`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type dialect struct{}

func (dialect) Name() string { return "mssql" }

func (dialect) Year(col string) string {
	return fmt.Sprintf("YEAR(%s)", col)
}

func (dialect) Quarter(col string) string {
	return fmt.Sprintf("DATEPART(QUARTER, %s)", col)
}

func (dialect) Month(col string) string {
	return fmt.Sprintf("MONTH(%s)", col)
}

func (dialect) Length(col string) string {
	return fmt.Sprintf("LEN(%s)", col)
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
	return "CONCAT(" + strings.Join(out, ", ") + ")"
}
