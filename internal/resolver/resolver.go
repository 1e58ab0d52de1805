// Package resolver rewrites human-entered geography names in the raw
// census table to catalog ids, then syncs demographic ids onto the raw
// rows by name match.
//
// Resolution runs once per committed import batch rather than on every
// read. All passes are idempotent: an already-resolved row has an id
// where a name used to be, matches nothing, and is left alone.
package resolver

import (
	"context"
	"fmt"
	"strconv"

	"darem/internal/metrics"
	"darem/internal/schema"
	"darem/internal/storage"
)

// Logger is the minimal logging surface the resolver needs.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Resolver runs the reference-resolution passes against one repository.
type Resolver struct {
	Repo   storage.Repository
	Logger Logger
}

func (r *Resolver) log() Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return nopLogger{}
}

// ResolveBatch runs all three passes for one import batch, in order:
// municipalities (batch-scoped), barangays, identity sync. Barangay
// matching needs the municipality id, so the order is load-bearing.
func (r *Resolver) ResolveBatch(ctx context.Context, batchTag string) error {
	muni, err := r.Repo.ResolveMunicipalityRefs(ctx, batchTag)
	metrics.RecordResolve("municipality", muni, err)
	if err != nil {
		return fmt.Errorf("resolve municipalities: %w", err)
	}

	brgy, err := r.Repo.ResolveBarangayRefs(ctx)
	metrics.RecordResolve("barangay", brgy, err)
	if err != nil {
		return fmt.Errorf("resolve barangays: %w", err)
	}

	ids, err := r.SyncIdentities(ctx)
	metrics.RecordResolve("identity", ids, err)
	if err != nil {
		return fmt.Errorf("sync identities: %w", err)
	}

	r.log().Printf("stage=resolve batch=%s municipalities=%d barangays=%d identities=%d",
		batchTag, muni, brgy, ids)
	return nil
}

// SyncIdentities copies each demographic id onto the raw census rows
// whose first/middle/last names match exactly. Matching keys on the
// '|'-joined name triple with NULLs as empty, so ("Ana", NULL, "Cruz")
// and ("Ana", "", "Cruz") are the same person but ("An", "aCruz", "")
// is not.
//
// Demographic rows apply in ascending f_id order; when two rows carry
// the same name triple, the higher id wins.
func (r *Resolver) SyncIdentities(ctx context.Context) (int64, error) {
	d := r.Repo.Dialect()

	type demo struct {
		id  int64
		key string
	}

	// Collected first: backends pinned to one connection cannot run the
	// updates while the select cursor is open.
	var demos []demo
	q := fmt.Sprintf("SELECT f_id, %s FROM %s ORDER BY f_id",
		storage.NameKey(d, "f_name", "m_name", "l_name"), schema.TableFarmerDemo)
	err := r.Repo.Select(ctx, q, nil, func(scan storage.ScanFunc) error {
		var rec demo
		if err := scan(&rec.id, &rec.key); err != nil {
			return err
		}
		demos = append(demos, rec)
		return nil
	})
	if err != nil {
		return 0, err
	}

	update := fmt.Sprintf("UPDATE %s SET f_id = ? WHERE %s = ?",
		schema.TableFarmerRaw, storage.NameKey(d, "raw_fname", "raw_mname", "raw_lname"))

	var total int64
	for _, rec := range demos {
		n, err := r.Repo.Exec(ctx, update, strconv.FormatInt(rec.id, 10), rec.key)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
