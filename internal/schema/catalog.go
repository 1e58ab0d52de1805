// Package schema is the static catalog of relational entities the import
// pipeline writes and the aggregation engine reads.
//
// Table and column names are load-bearing: the resolver and the query
// catalog reference them literally. Nothing here migrates existing data;
// EnsureSchema only creates missing tables.
package schema

import "darem/internal/storage"

// Table names.
const (
	TableMunicipalities = "tbl_muni"
	TableBarangays      = "tbl_barangay"
	TableFarmerRaw      = "qp_farmer_raw"
	TableFarmerDemo     = "farmer_demo"
	TableHarvest        = "harvest_data"
	TablePrice          = "qp_price"
	TablePests          = "pests"
	TableWeather        = "weather_data"
	TableSoilTest       = "soil_test_kit"
	TableAgeBucket      = "age_bucket"
)

func notNull() *bool { v := false; return &v }

// Catalog returns the full table set in creation order (lookup tables
// first; nothing depends on FK enforcement, but the order reads well).
func Catalog() []storage.TableSpec {
	return []storage.TableSpec{
		{
			Name:       TableMunicipalities,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "muni_id", Type: "text"},
			Columns: []storage.ColumnSpec{
				{Name: "muni_name", Type: "text", Nullable: notNull()},
			},
		},
		{
			Name:       TableBarangays,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "brgy_id", Type: "text"},
			Columns: []storage.ColumnSpec{
				{Name: "brgy_name", Type: "text", Nullable: notNull()},
				{Name: "muni_id", Type: "text", Nullable: notNull()},
			},
		},
		{
			// Raw census facts. raw_municipality and raw_barangay hold
			// human-entered names until the resolver rewrites them to
			// catalog ids; that intermediate state is expected, not
			// corruption. f_id carries the import batch tag until the
			// identity sync overwrites it with the demographic id.
			Name:       TableFarmerRaw,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "f_id", Type: "text"},
				{Name: "raw_municipality", Type: "text"},
				{Name: "raw_barangay", Type: "text"},
				{Name: "raw_fname", Type: "text"},
				{Name: "raw_mname", Type: "text"},
				{Name: "raw_lname", Type: "text"},
				{Name: "raw_gender", Type: "text"},
				{Name: "raw_birthdate", Type: "text"},
				{Name: "raw_area", Type: "real"},
				{Name: "raw_population", Type: "real"},
				{Name: "raw_dgathered", Type: "date"},
				{Name: "raw_cropstage", Type: "text"},
				{Name: "raw_dharvest", Type: "date"},
				{Name: "raw_status", Type: "text"},
				{Name: "rbsba", Type: "text"},
				{Name: "raw_contact", Type: "text"},
				{Name: "tenurial", Type: "text"},
			},
		},
		{
			// Secondary census table; authoritative id source for the
			// identity sync.
			Name:       TableFarmerDemo,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "f_id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "f_name", Type: "text"},
				{Name: "m_name", Type: "text"},
				{Name: "l_name", Type: "text"},
				{Name: "f_gender", Type: "text"},
				{Name: "f_municipality", Type: "text"},
				{Name: "f_barangay", Type: "text"},
			},
		},
		{
			// Municipality is denormalized free text here, unlike the raw
			// census table.
			Name:       TableHarvest,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "municipality", Type: "text"},
				{Name: "barangay", Type: "text"},
				{Name: "production", Type: "real"},
				{Name: "year_gathered", Type: "date"},
			},
		},
		{
			// sm_price exists in the model but the 4-column price import
			// never feeds it.
			Name:       TablePrice,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "price_date", Type: "date"},
				{Name: "sm_price", Type: "real"},
				{Name: "med_price", Type: "real"},
				{Name: "lg_price", Type: "real"},
				{Name: "counterpart", Type: "text"},
			},
		},
		{
			Name:       TablePests,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "category", Type: "text"},
				{Name: "name", Type: "text"},
				{Name: "description", Type: "text"},
				{Name: "damage", Type: "text"},
				{Name: "management", Type: "text"},
				{Name: "report_count", Type: "real"},
				{Name: "percent", Type: "real"},
				{Name: "rank_", Type: "real"},
			},
		},
		{
			Name:       TableWeather,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "obs_date", Type: "date"},
				{Name: "rain_amount", Type: "real"},
				{Name: "remarks", Type: "text"},
			},
		},
		{
			Name:       TableSoilTest,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "fname", Type: "text"},
				{Name: "lname", Type: "text"},
				{Name: "municipality", Type: "text"},
				{Name: "area", Type: "real"},
				{Name: "date_sampled", Type: "text"},
				{Name: "ph", Type: "real"},
				{Name: "n", Type: "real"},
				{Name: "p", Type: "real"},
				{Name: "k", Type: "real"},
			},
		},
		{
			// One physical table stands in for the original's per-range
			// tables; bucket is the ordering discriminant of the logical
			// age histogram.
			Name:       TableAgeBucket,
			PrimaryKey: &storage.PrimaryKeySpec{Name: "id", Type: "serial"},
			Columns: []storage.ColumnSpec{
				{Name: "bucket", Type: "int", Nullable: notNull()},
				{Name: "count_", Type: "real"},
				{Name: "range_", Type: "text"},
				{Name: "f_gender", Type: "text"},
			},
		},
	}
}
