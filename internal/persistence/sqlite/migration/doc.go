// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files are read from an fs.FS (normally an embed.FS compiled into
// the binary) and must be named {version}_{description}.sql, for example
// 001_create_employees.sql. Versions must form a gap-free sequence.
//
// Applied versions are tracked in the schema_migrations table together with a
// SHA-256 checksum of the file. Each migration runs in its own transaction and
// is recorded in that same transaction, so a failed migration leaves no trace.
//
//	manager := NewManager(NewFileScanner(), NewSQLiteExecutor(db), files, logger)
//	applied, err := manager.Run(ctx)
package migration
