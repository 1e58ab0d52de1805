package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"darem/internal/schema"
	"darem/internal/storage"
)

// fakeRepo records InsertRows calls; the pipeline never touches the rest
// of the repository surface.
type fakeRepo struct {
	insertErr error

	calls []struct {
		table   string
		columns []string
		rows    [][]any
	}
}

func (r *fakeRepo) Close() {}

func (r *fakeRepo) Ping(ctx context.Context) error { return nil }

func (r *fakeRepo) EnsureSchema(context.Context, []storage.TableSpec) error { return nil }

func (r *fakeRepo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.calls = append(r.calls, struct {
		table   string
		columns []string
		rows    [][]any
	}{table: table, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (r *fakeRepo) Select(context.Context, string, []any, func(storage.ScanFunc) error) error {
	return nil
}

func (r *fakeRepo) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }

func (r *fakeRepo) ResolveMunicipalityRefs(context.Context, string) (int64, error) { return 0, nil }

func (r *fakeRepo) ResolveBarangayRefs(context.Context) (int64, error) { return 0, nil }

func (r *fakeRepo) Dialect() storage.Dialect { return nil }

type fakeResolver struct {
	tags []string
	err  error
}

func (f *fakeResolver) ResolveBatch(ctx context.Context, batchTag string) error {
	f.tags = append(f.tags, batchTag)
	return f.err
}

func writeUpload(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// TestRun_HarvestCSV walks one harvest file end to end: header mapping,
// NULL for empty cells, typed binds for numeric text, passthrough for
// everything else.
func TestRun_HarvestCSV(t *testing.T) {
	t.Parallel()

	body := "Municipality,Barangay,Production,Date\n" +
		"Daet,Alawihao,120.5,2024-03-01\n" +
		"Labo,,n/a,2024-03-02\n"
	path := writeUpload(t, "harvest.csv", body)

	repo := &fakeRepo{}
	p := &Pipeline{Repo: repo}

	rep, err := p.Run(context.Background(), KindHarvest, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Table != schema.TableHarvest || rep.SourceRows != 2 || rep.Inserted != 2 {
		t.Fatalf("report = %+v", rep)
	}

	if len(repo.calls) != 1 {
		t.Fatalf("InsertRows called %d times, want 1", len(repo.calls))
	}
	call := repo.calls[0]

	wantCols := []string{"municipality", "barangay", "production", "year_gathered"}
	if strings.Join(call.columns, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("columns = %v, want %v", call.columns, wantCols)
	}

	if got := call.rows[0][2]; got != 120.5 {
		t.Fatalf("numeric production bound as %T %v, want float64 120.5", got, got)
	}
	if got := call.rows[1][1]; got != nil {
		t.Fatalf("empty barangay bound as %v, want nil", got)
	}
	if got := call.rows[1][2]; got != "n/a" {
		t.Fatalf("non-numeric production bound as %v, want passthrough text", got)
	}
}

// TestRun_MissingHeadersAbortBeforeInsert verifies the all-or-nothing
// header contract: every missing header is named and nothing reaches the
// repository.
func TestRun_MissingHeadersAbortBeforeInsert(t *testing.T) {
	t.Parallel()

	path := writeUpload(t, "harvest.csv", "Municipality,Production\nDaet,1\n")

	repo := &fakeRepo{}
	p := &Pipeline{Repo: repo}

	_, err := p.Run(context.Background(), KindHarvest, path)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("err = %v, want ErrSchemaMismatch", err)
	}
	for _, h := range []string{`"Barangay"`, `"Date"`} {
		if !strings.Contains(err.Error(), h) {
			t.Fatalf("error %q does not name missing header %s", err, h)
		}
	}
	if len(repo.calls) != 0 {
		t.Fatalf("InsertRows was called despite schema mismatch")
	}
}

// TestRun_CensusBatchTagAndResolver: census rows carry the batch tag in
// f_id, and the resolver hook fires once after the commit with that tag.
func TestRun_CensusBatchTagAndResolver(t *testing.T) {
	t.Parallel()

	body := "Municipalities,Barangay,First Name,Middle Initial,Last Name,Gender,Birthdate," +
		"Area (Ha),Population,Date Data Gathered,Stage of Crops,Date of Harvest,Status," +
		"RBSBA,Contact Number,Tenurial\n" +
		"Daet,Alawihao,Juan,D,Cruz,M,1980-01-01,2.5,1000,2024-01-15,Mature,2024-06-01,Active,Registered,0912,Owner\n"
	path := writeUpload(t, "census.csv", body)

	repo := &fakeRepo{}
	res := &fakeResolver{}
	p := &Pipeline{Repo: repo, Resolver: res}

	if _, err := p.Run(context.Background(), KindFarmerCensus, path); err != nil {
		t.Fatalf("Run: %v", err)
	}

	call := repo.calls[0]
	if call.table != schema.TableFarmerRaw {
		t.Fatalf("table = %s, want %s", call.table, schema.TableFarmerRaw)
	}
	if call.columns[len(call.columns)-1] != "f_id" {
		t.Fatalf("last column = %s, want f_id", call.columns[len(call.columns)-1])
	}
	if got := call.rows[0][len(call.rows[0])-1]; got != CensusBatchTag {
		t.Fatalf("f_id = %v, want batch tag %q", got, CensusBatchTag)
	}

	if len(res.tags) != 1 || res.tags[0] != CensusBatchTag {
		t.Fatalf("resolver calls = %v, want one call with %q", res.tags, CensusBatchTag)
	}
}

// TestRun_NonCensusSkipsResolver: only census batches trigger reference
// resolution.
func TestRun_NonCensusSkipsResolver(t *testing.T) {
	t.Parallel()

	path := writeUpload(t, "price.csv", "DATE,Medium,Large,BUYER/SELLER\n2024-01-01,10,12,Buyer\n")

	res := &fakeResolver{}
	p := &Pipeline{Repo: &fakeRepo{}, Resolver: res}

	if _, err := p.Run(context.Background(), KindPrice, path); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.tags) != 0 {
		t.Fatalf("resolver ran for a price import: %v", res.tags)
	}
}

// TestRun_RainfallReconstruction: the wide sheet lands as one
// weather_data row per non-empty cell, dates in ISO text form,
// malformed cells counted in the report.
func TestRun_RainfallReconstruction(t *testing.T) {
	t.Parallel()

	body := "2024,Day,January,February\n" +
		",1,3.5,\n" +
		",2,,bad-but-numeric-not-required\n"
	path := writeUpload(t, "rain.csv", body)

	repo := &fakeRepo{}
	p := &Pipeline{Repo: repo}

	rep, err := p.Run(context.Background(), KindRainfall, path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Malformed != 0 {
		t.Fatalf("malformed = %d, want 0", rep.Malformed)
	}

	call := repo.calls[0]
	if call.table != schema.TableWeather {
		t.Fatalf("table = %s, want %s", call.table, schema.TableWeather)
	}
	wantCols := []string{"obs_date", "rain_amount", "remarks"}
	if strings.Join(call.columns, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("columns = %v, want %v", call.columns, wantCols)
	}
	if len(call.rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(call.rows))
	}
	if got := call.rows[0][0]; got != "2024-01-01" {
		t.Fatalf("obs_date = %v, want 2024-01-01", got)
	}
	if got := call.rows[0][1]; got != 3.5 {
		t.Fatalf("rain_amount = %T %v, want float64 3.5", got, got)
	}
	if got := call.rows[0][2]; got != "N/A" {
		t.Fatalf("remarks = %v, want N/A", got)
	}
	if got := call.rows[1][0]; got != "2024-02-02" {
		t.Fatalf("second obs_date = %v, want 2024-02-02", got)
	}
}

// TestRun_MissingFile surfaces ErrInput for callers to classify.
func TestRun_MissingFile(t *testing.T) {
	t.Parallel()

	p := &Pipeline{Repo: &fakeRepo{}}
	_, err := p.Run(context.Background(), KindPrice, filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrInput) {
		t.Fatalf("err = %v, want ErrInput", err)
	}
}

// TestParseKind accepts the six import kinds and rejects everything
// else.
func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"farmer-census", "soil-test", "price", "harvest", "pest-catalog", "rainfall"} {
		if _, err := ParseKind(s); err != nil {
			t.Fatalf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("census"); err == nil {
		t.Fatalf("ParseKind accepted an unknown kind")
	}
}
