// Package storage defines the backend-agnostic repository contract that the
// import pipeline, reference resolver and aggregation engine share.
//
// Each backend implements these semantics in its own idiomatic way
// (Postgres UPDATE ... FROM, SQLite INSERT multi-VALUES, SQL Server
// @pN binding, etc).
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnavailable reports a database connection failure. Callers surface it
// as a generic backend failure; it is not retried automatically.
var ErrUnavailable = errors.New("storage: backend unavailable")

// Config is the minimal configuration needed to create a repository.
type Config struct {
	Kind string
	DSN  string

	// MaxConns bounds the pool. Zero means the backend default of 10
	// simultaneous sessions; requests beyond the bound queue.
	MaxConns int
}

// ScanFunc scans the current result row into dest pointers.
type ScanFunc func(dest ...any) error

// Repository is the storage surface the darem components need.
//
// IMPORTANT: Query text uses '?' placeholders regardless of backend; each
// implementation rebinds to its native style (see Rebind). All methods take
// a context and respect cancellation between round trips.
type Repository interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// Ping verifies connectivity. A failure wraps ErrUnavailable.
	Ping(ctx context.Context) error

	// EnsureSchema creates the catalog tables if they do not exist.
	// Idempotent; safe to call at every process start.
	EnsureSchema(ctx context.Context, tables []TableSpec) error

	// InsertRows bulk-inserts rows into table. All rows in one call are
	// committed atomically and in slice order. Returns rows affected.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Select runs a read-only query and invokes fn once per result row.
	// fn receives a scan function bound to the current row.
	Select(ctx context.Context, query string, args []any, fn func(scan ScanFunc) error) error

	// Exec runs a statement and returns rows affected.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// ResolveMunicipalityRefs rewrites qp_farmer_raw.raw_municipality from
	// municipality name to muni_id for rows tagged with batchTag.
	ResolveMunicipalityRefs(ctx context.Context, batchTag string) (int64, error)

	// ResolveBarangayRefs rewrites qp_farmer_raw.raw_barangay from barangay
	// name to brgy_id, matching on name AND the already-resolved
	// municipality id. Unmatched rows keep their literal name.
	ResolveBarangayRefs(ctx context.Context) (int64, error)

	// Dialect reports the SQL fragments that differ per backend.
	Dialect() Dialect
}

// Dialect exposes the expression-level differences between backends that
// the aggregation engine and resolver need. Everything else in query text
// is portable SQL.
type Dialect interface {
	// Name is the backend kind ("sqlite", "postgres", "mssql").
	Name() string

	// Year/Quarter/Month return an integer-valued expression extracting the
	// date part from a date column.
	Year(col string) string
	Quarter(col string) string
	Month(col string) string

	// Length returns a character-length expression (LEN on mssql).
	Length(col string) string

	// Concat returns an expression concatenating the given parts with NULL
	// coalesced to ''. Parts are column names or quoted literals.
	Concat(parts ...string) string
}

// NameKey builds the derived farmer identity key: the '|'-separated
// concatenation of the three name columns, exactly as entered (no
// normalization; NULL coalesces to empty).
func NameKey(d Dialect, first, middle, last string) string {
	return d.Concat(first, "'|'", middle, "'|'", last)
}

// ---- factory registry (one backend package per kind) ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind. Called from backend init()
// functions. Registering the same kind twice panics: fail fast rather than
// allow ambiguous backend selection.
func Register(kind string, f factory) {
	regMu.Lock()
	defer regMu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	regMu.RLock()
	f := factories[cfg.Kind]
	regMu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
