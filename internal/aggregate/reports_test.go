package aggregate

import (
	"context"
	"testing"
)

// TestRBSBAStatusTotals counts distinct farmers, not census rows:
// Juan's registry number appears on two rows and counts once.
func TestRBSBAStatusTotals(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	got, err := e.RBSBAStatusTotals(context.Background())
	if err != nil {
		t.Fatalf("RBSBAStatusTotals: %v", err)
	}
	if got.Registered != 2 || got.NotRegistered != 4 {
		t.Fatalf("totals = %+v, want 2 registered / 4 not", got)
	}
}

// TestRBSBATable: both shares are truncated (not rounded) and a
// municipality with no registered farmers (Vinzons) drops out.
func TestRBSBATable(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.RBSBATable(context.Background())
	if err != nil {
		t.Fatalf("RBSBATable: %v", err)
	}

	if len(rows) != 2 || rows[0].Municipality != "Basud" || rows[1].Municipality != "Daet" {
		t.Fatalf("rows = %+v", rows)
	}

	daet := rows[1]
	if daet.Registered != 1 || daet.Unregistered != 2 || daet.Total != 3 {
		t.Fatalf("Daet counts = %+v", daet)
	}
	if daet.RegisteredPercent == nil || *daet.RegisteredPercent != 33.33 {
		t.Fatalf("Daet registered%% = %v, want 33.33 truncated", daet.RegisteredPercent)
	}
	if daet.UnregisteredPercent == nil || *daet.UnregisteredPercent != 66.66 {
		t.Fatalf("Daet unregistered%% = %v, want 66.66 truncated", daet.UnregisteredPercent)
	}

	basud := rows[0]
	if basud.RegisteredPercent == nil || *basud.RegisteredPercent != 50 ||
		basud.UnregisteredPercent == nil || *basud.UnregisteredPercent != 50 {
		t.Fatalf("Basud shares = %+v", basud)
	}
}

// TestRBSBAPercentPerMunicipality truncates to one decimal and keeps
// municipalities with zero registered farmers out of the list.
func TestRBSBAPercentPerMunicipality(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.RBSBAPercentPerMunicipality(context.Background())
	if err != nil {
		t.Fatalf("RBSBAPercentPerMunicipality: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want Basud and Daet", rows)
	}
	if rows[1].Municipality != "Daet" || rows[1].RegisteredPercent == nil || *rows[1].RegisteredPercent != 33.3 {
		t.Fatalf("Daet = %+v, want 33.3", rows[1])
	}
}

// TestRBSBAPerYear: a year where every recorded farmer is registered
// (2023) or none is (2022) drops from the series.
func TestRBSBAPerYear(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.RBSBAPerYear(context.Background())
	if err != nil {
		t.Fatalf("RBSBAPerYear: %v", err)
	}

	if len(rows) != 1 || rows[0].Year != 2024 {
		t.Fatalf("rows = %+v, want only 2024", rows)
	}
	r := rows[0]
	if r.Registered != 1 || r.Unregistered != 3 || r.Total != 4 {
		t.Fatalf("2024 counts = %+v", r)
	}
	if r.RegisteredPercent == nil || *r.RegisteredPercent != 25 {
		t.Fatalf("2024 registered%% = %v, want 25", r.RegisteredPercent)
	}
}

// TestRBSBAPerMunicipality orders registered descending with a name
// tie-break.
func TestRBSBAPerMunicipality(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.RBSBAPerMunicipality(context.Background())
	if err != nil {
		t.Fatalf("RBSBAPerMunicipality: %v", err)
	}

	want := []RBSBAMuniRow{
		{Municipality: "Basud", Registered: 1, Unregistered: 1},
		{Municipality: "Daet", Registered: 1, Unregistered: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestGenderPerYear: the inner join drops 2022, which has male farmers
// only.
func TestGenderPerYear(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.GenderPerYear(context.Background())
	if err != nil {
		t.Fatalf("GenderPerYear: %v", err)
	}

	want := []GenderYearRow{
		{Year: 2023, Male: 1, Female: 1},
		{Year: 2024, Male: 2, Female: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestGenderTotalsPerMunicipality orders by total ascending.
func TestGenderTotalsPerMunicipality(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.GenderTotalsPerMunicipality(context.Background())
	if err != nil {
		t.Fatalf("GenderTotalsPerMunicipality: %v", err)
	}

	want := []GenderMuniRow{
		{Municipality: "Basud", Male: 1, Female: 0, Total: 1},
		{Municipality: "Daet", Male: 1, Female: 1, Total: 2},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestGenderTotals derives truncated share percents from the
// demographic table.
func TestGenderTotals(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	got, err := e.GenderTotals(context.Background())
	if err != nil {
		t.Fatalf("GenderTotals: %v", err)
	}

	if got.Male != 2 || got.Female != 1 {
		t.Fatalf("counts = %+v", got)
	}
	if got.MalePercent == nil || *got.MalePercent != 66.66 {
		t.Fatalf("male%% = %v, want 66.66 truncated", got.MalePercent)
	}
	if got.FemalePercent == nil || *got.FemalePercent != 33.33 {
		t.Fatalf("female%% = %v, want 33.33 truncated", got.FemalePercent)
	}
}

// TestAgeHistogram filters one gender and orders by bucket.
func TestAgeHistogram(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.AgeHistogram(context.Background(), "F")
	if err != nil {
		t.Fatalf("AgeHistogram: %v", err)
	}

	want := []AgeBucketRow{
		{Count: 3, Range: "20-29", Gender: "F"},
		{Count: 5, Range: "30-39", Gender: "F"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestTenurialBreakdown pivots the classification counts with zeros for
// absent classes; every fixture municipality has unclassified rows so
// all three appear.
func TestTenurialBreakdown(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.TenurialBreakdown(context.Background())
	if err != nil {
		t.Fatalf("TenurialBreakdown: %v", err)
	}

	want := []TenurialRow{
		{Municipality: "Basud", Unclassified: 1, Tenant: 1},
		{Municipality: "Daet", Unclassified: 2, Owner: 1},
		{Municipality: "Vinzons", Unclassified: 1},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestFarmerDirectory joins out display names; missing middle names do
// not leave double spaces.
func TestFarmerDirectory(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.FarmerDirectory(context.Background())
	if err != nil {
		t.Fatalf("FarmerDirectory: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].FullName != "Juan D Cruz" || rows[0].Municipality != "Daet" || rows[0].Barangay != "Alawihao" {
		t.Fatalf("rows[0] = %+v", rows[0])
	}
	if rows[1].FullName != "Maria Reyes" {
		t.Fatalf("rows[1].FullName = %q, want no double space", rows[1].FullName)
	}
	if rows[2].Gender != "M" || rows[2].Municipality != "Basud" {
		t.Fatalf("rows[2] = %+v", rows[2])
	}
}

// TestHarvestByMunicipalityYear sums free-text municipalities with
// truncated figures.
func TestHarvestByMunicipalityYear(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.HarvestByMunicipalityYear(context.Background())
	if err != nil {
		t.Fatalf("HarvestByMunicipalityYear: %v", err)
	}

	want := []HarvestRow{
		{Production: 70, Municipality: "Basud", Year: 2023},
		{Production: 150.55, Municipality: "Daet", Year: 2024},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestHarvestByMunicipality filters by exact free-text name.
func TestHarvestByMunicipality(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.HarvestByMunicipality(context.Background(), "Daet")
	if err != nil {
		t.Fatalf("HarvestByMunicipality: %v", err)
	}

	if len(rows) != 1 || rows[0] != (MuniHarvestRow{Production: 150.55, Year: 2024}) {
		t.Fatalf("rows = %+v", rows)
	}

	empty, err := e.HarvestByMunicipality(context.Background(), "Atlantis")
	if err != nil {
		t.Fatalf("unknown municipality: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("unknown municipality rows = %+v, want empty", empty)
	}
}

// TestHarvestByQuarter uses the "YYYY Quarter n" label form.
func TestHarvestByQuarter(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.HarvestByQuarter(context.Background())
	if err != nil {
		t.Fatalf("HarvestByQuarter: %v", err)
	}

	want := []QuarterHarvestRow{
		{Production: 70, Municipality: "Basud", Year: 2023, Quarter: 4, Label: "2023 Quarter 4"},
		{Production: 100.55, Municipality: "Daet", Year: 2024, Quarter: 1, Label: "2024 Quarter 1"},
		{Production: 50, Municipality: "Daet", Year: 2024, Quarter: 2, Label: "2024 Quarter 2"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestHarvestMonthly labels months by English name for one year.
func TestHarvestMonthly(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.HarvestMonthly(context.Background(), 2024)
	if err != nil {
		t.Fatalf("HarvestMonthly: %v", err)
	}

	want := []MonthlyHarvestRow{
		{Production: 100.55, Month: "February", Municipality: "Daet", Year: 2024},
		{Production: 50, Month: "May", Municipality: "Daet", Year: 2024},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestPriceAveragesPerYear averages both grades per year,
// chronological.
func TestPriceAveragesPerYear(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.PriceAveragesPerYear(context.Background())
	if err != nil {
		t.Fatalf("PriceAveragesPerYear: %v", err)
	}

	want := []PriceYearRow{
		{LargePrice: 12.5, MediumPrice: 15, Year: 2023},
		{LargePrice: 40, MediumPrice: 30, Year: 2024},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestLargePriceSeries is newest-first and untruncated.
func TestLargePriceSeries(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.LargePriceSeries(context.Background())
	if err != nil {
		t.Fatalf("LargePriceSeries: %v", err)
	}

	want := []LargePriceRow{
		{Price: 40, Year: 2024},
		{Price: 12.5, Year: 2023},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestRainfallPerYear accumulates observations per year.
func TestRainfallPerYear(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.RainfallPerYear(context.Background())
	if err != nil {
		t.Fatalf("RainfallPerYear: %v", err)
	}

	want := []RainfallYearRow{
		{Total: 4.5, Year: 2023},
		{Total: 2.25, Year: 2024},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows = %+v", rows)
	}
	for i, w := range want {
		if rows[i] != w {
			t.Fatalf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
}

// TestPestEntries filters one category in insertion order with a
// 1-based position and a nil percent where none is recorded.
func TestPestEntries(t *testing.T) {
	t.Parallel()

	e := newFixture(t)
	rows, err := e.PestEntries(context.Background(), "Pests")
	if err != nil {
		t.Fatalf("PestEntries: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Position != 1 || rows[0].Name != "Rhinoceros Beetle" {
		t.Fatalf("rows[0] = %+v", rows[0])
	}
	if rows[0].Percent == nil || *rows[0].Percent != 12.5 {
		t.Fatalf("rows[0].Percent = %v, want 12.5", rows[0].Percent)
	}
	if rows[1].Position != 2 || rows[1].Percent != nil {
		t.Fatalf("rows[1] = %+v", rows[1])
	}
}
