// Package all registers every storage backend with the factory registry.
// Binaries blank-import it so config alone selects the backend.
package all

import (
	_ "darem/internal/storage/mssql"
	_ "darem/internal/storage/postgres"
	_ "darem/internal/storage/sqlite"
)
