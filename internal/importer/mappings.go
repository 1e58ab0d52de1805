package importer

import (
	"fmt"

	"darem/internal/schema"
)

// Kind selects which upload shape an import run expects.
type Kind string

const (
	KindFarmerCensus Kind = "farmer-census"
	KindSoilTest     Kind = "soil-test"
	KindPrice        Kind = "price"
	KindHarvest      Kind = "harvest"
	KindPestCatalog  Kind = "pest-catalog"
	KindRainfall     Kind = "rainfall"
)

// CensusBatchTag is the sentinel written into qp_farmer_raw.f_id at
// insert time. It scopes the resolver's municipality pass to the rows of
// the current import; the identity sync later overwrites it with the
// demographic id.
const CensusBatchTag = "1"

// rainRemark is the fixed remarks value on reconstructed observations.
const rainRemark = "N/A"

// Value kinds for mapped columns. Values are never validated; "real"
// columns parse to float64 when the text happens to be numeric so every
// backend accepts the bind, and pass through untouched otherwise.
const (
	asText = iota
	asReal
)

// columnMap binds one source header (matched by exact text) to one target
// column.
type columnMap struct {
	Header string
	Column string
	Kind   int
}

// kindSpec is the full contract of one import kind: target table, the
// required headers, and constant columns appended to every row.
type kindSpec struct {
	Table   string
	Columns []columnMap
	Extra   []extraColumn
}

type extraColumn struct {
	Column string
	Value  any
}

// specFor returns the contract for a kind. KindRainfall has no header
// mapping; it goes through the wide-table reconstructor instead.
func specFor(kind Kind) (kindSpec, error) {
	switch kind {
	case KindFarmerCensus:
		return kindSpec{
			Table: schema.TableFarmerRaw,
			Extra: []extraColumn{{Column: "f_id", Value: CensusBatchTag}},
			Columns: []columnMap{
				{Header: "Municipalities", Column: "raw_municipality"},
				{Header: "Barangay", Column: "raw_barangay"},
				{Header: "First Name", Column: "raw_fname"},
				{Header: "Middle Initial", Column: "raw_mname"},
				{Header: "Last Name", Column: "raw_lname"},
				{Header: "Gender", Column: "raw_gender"},
				{Header: "Birthdate", Column: "raw_birthdate"},
				{Header: "Area (Ha)", Column: "raw_area", Kind: asReal},
				{Header: "Population", Column: "raw_population", Kind: asReal},
				{Header: "Date Data Gathered", Column: "raw_dgathered"},
				{Header: "Stage of Crops", Column: "raw_cropstage"},
				{Header: "Date of Harvest", Column: "raw_dharvest"},
				{Header: "Status", Column: "raw_status"},
				{Header: "RBSBA", Column: "rbsba"},
				{Header: "Contact Number", Column: "raw_contact"},
				{Header: "Tenurial", Column: "tenurial"},
			},
		}, nil

	case KindSoilTest:
		return kindSpec{
			Table: schema.TableSoilTest,
			Columns: []columnMap{
				{Header: "First Name", Column: "fname"},
				{Header: "Last Name", Column: "lname"},
				{Header: "Municipality", Column: "municipality"},
				{Header: "Area(ha)", Column: "area", Kind: asReal},
				{Header: "Date Sampled(D-M-Y)", Column: "date_sampled"},
				{Header: "pH", Column: "ph", Kind: asReal},
				{Header: "N", Column: "n", Kind: asReal},
				{Header: "P", Column: "p", Kind: asReal},
				{Header: "K", Column: "k", Kind: asReal},
			},
		}, nil

	case KindPrice:
		return kindSpec{
			Table: schema.TablePrice,
			Columns: []columnMap{
				{Header: "DATE", Column: "price_date"},
				{Header: "Medium", Column: "med_price", Kind: asReal},
				{Header: "Large", Column: "lg_price", Kind: asReal},
				{Header: "BUYER/SELLER", Column: "counterpart"},
			},
		}, nil

	case KindHarvest:
		return kindSpec{
			Table: schema.TableHarvest,
			Columns: []columnMap{
				{Header: "Municipality", Column: "municipality"},
				{Header: "Barangay", Column: "barangay"},
				{Header: "Production", Column: "production", Kind: asReal},
				{Header: "Date", Column: "year_gathered"},
			},
		}, nil

	case KindPestCatalog:
		return kindSpec{
			Table: schema.TablePests,
			Columns: []columnMap{
				{Header: "Category", Column: "category"},
				{Header: "Name", Column: "name"},
				{Header: "Description", Column: "description"},
				{Header: "Damage", Column: "damage"},
				{Header: "Management", Column: "management"},
				{Header: "Report Count", Column: "report_count", Kind: asReal},
			},
		}, nil

	case KindRainfall:
		return kindSpec{Table: schema.TableWeather}, nil

	default:
		return kindSpec{}, fmt.Errorf("unknown import kind %q", kind)
	}
}

// ParseKind converts a CLI/config string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	switch k {
	case KindFarmerCensus, KindSoilTest, KindPrice, KindHarvest, KindPestCatalog, KindRainfall:
		return k, nil
	}
	return "", fmt.Errorf("unknown import kind %q", s)
}
