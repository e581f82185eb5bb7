// Package database provides SQLite connectivity for Vesta Core.
//
// Vesta keeps two tables here: the action history (every command the
// resolver committed) and the learning samples the on-device models are
// rebuilt from at start.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive-only. Each migration has both .up.sql and .down.sql
// files named YYYYMMDD_HHMMSS_description.
package database
