// darem-import loads one uploaded sheet into the reporting catalog and
// runs the reference resolver when the sheet is a census batch.
//
// Usage:
//
//	darem-import -config configs/darem.json -kind farmer-census -file census.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"darem/internal/config"
	"darem/internal/importer"
	"darem/internal/metrics"
	"darem/internal/metrics/datadog"
	"darem/internal/resolver"
	"darem/internal/schema"
	"darem/internal/storage"

	// register all repository backends with the storage factory.
	_ "darem/internal/storage/all"
)

func main() {
	var (
		cfgPath     string
		kindFlg     string
		filePath    string
		metricsFlg  string
		timeoutFlg  time.Duration
		skipResolve bool
	)

	flag.StringVar(&cfgPath, "config", "configs/darem.json", "app config JSON path")
	flag.StringVar(&kindFlg, "kind", "", "import kind (farmer-census, soil-test, price, harvest, pest-catalog, rainfall)")
	flag.StringVar(&filePath, "file", "", "path to the uploaded csv/xlsx file")
	flag.StringVar(&metricsFlg, "metrics-backend", "", "metrics backend (datadog, none; overrides config)")
	flag.DurationVar(&timeoutFlg, "timeout", 5*time.Minute, "overall run timeout")
	flag.BoolVar(&skipResolve, "skip-resolve", false, "skip the post-commit reference resolution pass")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if kindFlg == "" || filePath == "" {
		fatalf("both -kind and -file are required")
	}
	kind, err := importer.ParseKind(kindFlg)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	closeMetrics := setupMetrics(cfg.Metrics, metricsFlg)
	defer closeMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), timeoutFlg)
	defer cancel()

	repo, err := storage.New(ctx, storage.Config{
		Kind:     cfg.Storage.Kind,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			fatalf("storage unavailable: %v", err)
		}
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx, schema.Catalog()); err != nil {
		fatalf("ensure schema: %v", err)
	}

	p := &importer.Pipeline{
		Repo:          repo,
		Logger:        log.Default(),
		ParserOptions: cfg.Import.Parser,
	}
	if !skipResolve {
		p.Resolver = &resolver.Resolver{Repo: repo, Logger: log.Default()}
	}

	rep, err := p.Run(ctx, kind, filePath)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrInput):
			fatalf("input: %v", err)
		case errors.Is(err, importer.ErrSchemaMismatch):
			fatalf("schema: %v", err)
		default:
			fatalf("import: %v", err)
		}
	}

	log.Printf("stage=done kind=%s table=%s inserted=%d malformed=%d", rep.Kind, rep.Table, rep.Inserted, rep.Malformed)
}

// setupMetrics wires the configured backend and returns its shutdown
// func. Flag overrides config; empty means config decides.
func setupMetrics(cfg config.Metrics, override string) func() {
	backend := override
	if backend == "" {
		backend = cfg.Backend
	}

	switch backend {
	case "datadog":
		job := cfg.JobName
		if job == "" {
			job = "darem_import"
		}
		tags := cfg.Tags
		if env := os.Getenv("METRICS_TAGS"); env != "" {
			tags = append(tags, datadog.ParseTagsCSV(env)...)
		}

		b, err := datadog.NewBackend(context.Background(), datadog.Options{JobName: job, Tags: tags})
		if err != nil {
			log.Printf("metrics: datadog init: %v; metrics disabled", err)
			return func() {}
		}
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: flush: %v", err)
			}
		}

	case "", "none":
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backend)
		return func() {}
	}
}

func fatalf(format string, v ...any) {
	fmt.Fprintf(os.Stderr, "darem-import: "+format+"\n", v...)
	os.Exit(1)
}
