// darem-report runs one aggregation from the query catalog and prints
// the result as JSON, one report per invocation.
//
// Usage:
//
//	darem-report -config configs/darem.json -report area-ranking
//	darem-report -report harvest-monthly -year 2024
//	darem-report -report municipality-headline -municipality Capalonga
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"

	"darem/internal/aggregate"
	"darem/internal/config"
	"darem/internal/metrics"
	"darem/internal/metrics/datadog"
	"darem/internal/storage"

	// register all repository backends with the storage factory.
	_ "darem/internal/storage/all"
)

// reportFunc runs one catalog query with the parsed scalar parameters.
type reportFunc func(ctx context.Context, e *aggregate.Engine, p params) (any, error)

type params struct {
	municipality string
	category     string
	gender       string
	year         int
}

var reports = map[string]reportFunc{
	"population-by-municipality-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.PopulationByMunicipalityYear(ctx)
	},
	"population-by-quarter": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.PopulationByQuarter(ctx)
	},
	"population-delta": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.PopulationDelta(ctx, p.year)
	},
	"expected-harvest-ranking": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.ExpectedHarvestRanking(ctx, p.year)
	},
	"area-by-municipality-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.AreaByMunicipalityYear(ctx)
	},
	"area-totals-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.AreaTotalsPerYear(ctx)
	},
	"area-ranking": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.AreaRanking(ctx)
	},
	"municipality-headline": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.MunicipalityHeadline(ctx, p.municipality)
	},
	"farmer-count-per-municipality": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.FarmerCountPerMunicipality(ctx)
	},
	"farmer-count-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.FarmerCountPerYear(ctx)
	},
	"farmer-count-per-year-for-municipality": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.FarmerCountPerYearForMunicipality(ctx, p.municipality)
	},
	"farmer-directory": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.FarmerDirectory(ctx)
	},
	"municipality-selector": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.MunicipalitySelector(ctx)
	},
	"totals": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.Totals(ctx)
	},
	"harvest-by-municipality-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.HarvestByMunicipalityYear(ctx)
	},
	"harvest-by-municipality": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.HarvestByMunicipality(ctx, p.municipality)
	},
	"harvest-by-quarter": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.HarvestByQuarter(ctx)
	},
	"harvest-monthly": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.HarvestMonthly(ctx, p.year)
	},
	"rbsba-status-totals": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RBSBAStatusTotals(ctx)
	},
	"rbsba-percent-per-municipality": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RBSBAPercentPerMunicipality(ctx)
	},
	"rbsba-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RBSBAPerYear(ctx)
	},
	"rbsba-table": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RBSBATable(ctx)
	},
	"rbsba-per-municipality": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RBSBAPerMunicipality(ctx)
	},
	"gender-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.GenderPerYear(ctx)
	},
	"gender-totals-per-municipality": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.GenderTotalsPerMunicipality(ctx)
	},
	"gender-totals": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.GenderTotals(ctx)
	},
	"tenurial-breakdown": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.TenurialBreakdown(ctx)
	},
	"age-histogram": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.AgeHistogram(ctx, p.gender)
	},
	"pest-entries": func(ctx context.Context, e *aggregate.Engine, p params) (any, error) {
		return e.PestEntries(ctx, p.category)
	},
	"price-averages-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.PriceAveragesPerYear(ctx)
	},
	"large-price-series": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.LargePriceSeries(ctx)
	},
	"rainfall-per-year": func(ctx context.Context, e *aggregate.Engine, _ params) (any, error) {
		return e.RainfallPerYear(ctx)
	},
}

func main() {
	var (
		cfgPath    string
		reportFlg  string
		metricsFlg string
		timeoutFlg time.Duration
		list       bool
		p          params
	)

	flag.StringVar(&cfgPath, "config", "configs/darem.json", "app config JSON path")
	flag.StringVar(&reportFlg, "report", "", "report name (see -list)")
	flag.StringVar(&p.municipality, "municipality", "", "municipality name parameter")
	flag.StringVar(&p.category, "category", "Pests", "pest catalog category (Pests, Diseases, Weeds)")
	flag.StringVar(&p.gender, "gender", "F", "age histogram gender (M or F)")
	flag.IntVar(&p.year, "year", time.Now().Year(), "year parameter for year-scoped reports")
	flag.StringVar(&metricsFlg, "metrics-backend", "", "metrics backend (datadog, none; overrides config)")
	flag.DurationVar(&timeoutFlg, "timeout", time.Minute, "overall run timeout")
	flag.BoolVar(&list, "list", false, "list report names and exit")
	flag.Parse()

	if list {
		names := make([]string, 0, len(reports))
		for name := range reports {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	_ = godotenv.Load()

	run, ok := reports[reportFlg]
	if !ok {
		fatalf("unknown report %q; use -list", reportFlg)
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

	engine := aggregate.New(repo)

	start := time.Now()
	result, err := run(ctx, engine, p)
	metrics.RecordReport(reportFlg, time.Since(start), err)
	if err != nil {
		fatalf("report %s: %v", reportFlg, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fatalf("encode: %v", err)
	}
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
			job = "darem_report"
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
	fmt.Fprintf(os.Stderr, "darem-report: "+format+"\n", v...)
	os.Exit(1)
}
