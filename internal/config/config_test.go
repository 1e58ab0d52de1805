package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad decodes a full config file, including a parser option bag.
func TestLoad(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "darem.json")
	body := `{
		"storage": {"kind": "sqlite", "dsn": ":memory:", "max_conns": 4},
		"import": {"parser": {"comma": ";", "trim_space": false}},
		"metrics": {"backend": "datadog", "job_name": "darem_import", "tags": ["env:test"]}
	}`
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	app, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if app.Storage.Kind != "sqlite" || app.Storage.DSN != ":memory:" || app.Storage.MaxConns != 4 {
		t.Fatalf("storage = %+v", app.Storage)
	}
	if got := app.Import.Parser.Rune("comma", ','); got != ';' {
		t.Fatalf("comma option = %q", got)
	}
	if app.Import.Parser.Bool("trim_space", true) {
		t.Fatalf("trim_space option not decoded")
	}
	if app.Metrics.Backend != "datadog" || len(app.Metrics.Tags) != 1 {
		t.Fatalf("metrics = %+v", app.Metrics)
	}
}

// TestLoad_MissingFile fails loudly; there is no implicit default config.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

// TestOptions_Accessors covers the defaulting rules, in particular that
// JSON numbers arrive as float64.
func TestOptions_Accessors(t *testing.T) {
	t.Parallel()

	o := Options{
		"flag":  true,
		"n":     float64(7),
		"m":     3,
		"name":  "x",
		"empty": "",
		"hdrs":  map[string]any{"a": "1", "b": 2},
	}

	if !o.Bool("flag", false) || o.Bool("missing", true) != true {
		t.Fatalf("Bool defaulting broken")
	}
	if o.Int("n", 0) != 7 || o.Int("m", 0) != 3 || o.Int("missing", 9) != 9 {
		t.Fatalf("Int defaulting broken")
	}
	if o.String("name", "") != "x" || o.String("missing", "d") != "d" {
		t.Fatalf("String defaulting broken")
	}
	if o.Rune("name", ',') != 'x' || o.Rune("empty", ',') != ',' || o.Rune("missing", ';') != ';' {
		t.Fatalf("Rune defaulting broken")
	}

	m := o.StringMap("hdrs")
	if len(m) != 1 || m["a"] != "1" {
		t.Fatalf("StringMap = %v, want non-string values skipped", m)
	}

	var nilOpts Options
	if nilOpts.Any("k") != nil || nilOpts.Bool("k", true) != true {
		t.Fatalf("nil Options not safe")
	}
}
