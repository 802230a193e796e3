// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "sqlonjson/internal/storage/all"
//
// Available kinds: "sqlite", "sqlite3" (cgo builds only), "postgres",
// "mssql", "mysql".
package all

import (
	_ "sqlonjson/internal/storage/mssql"
	_ "sqlonjson/internal/storage/mysql"
	_ "sqlonjson/internal/storage/postgres"
	_ "sqlonjson/internal/storage/sqlite"
)
