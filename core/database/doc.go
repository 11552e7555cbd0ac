// Package database manages the run history database connection.
//
// It uses GORM with either the SQLite driver (default, a local file) or the MySQL driver
// for shared deployments. The database is optional: the pipeline runs without it, but
// run history and the "last run" expected service count need it.
//
// # Inspection
//
// GetTableColumns and MissingColumns introspect existing tables through the GORM migrator,
// which the integrity checks use to validate the history schema.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("History disabled", zap.Error(err))
//	}
package database
