// Package database provides SQLite connectivity for Tether Core.
//
// The database backs the diagnostic record store: capability hub
// operations (register, invoke, unregister) are persisted here when a
// hub is running in debug mode, so they can be queried after the fact
// through the inspection API.
//
// This package manages:
//   - Connection setup with WAL mode for concurrent access
//   - Embedded schema migrations
//   - Health checks and lifecycle management
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only to support safe rollbacks:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Each migration file has both .up.sql and .down.sql
package database
