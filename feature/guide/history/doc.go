// Package history records guide runs in a relational database.
//
// Each run writes one RunRecord (guide_runs table) with its outcome and counts. The store
// works on any GORM dialect; the service uses SQLite by default and MySQL when configured.
//
// The history also feeds the safety check: LastRun reports the service count of the last
// successful run, and FirstOf chains it behind a statically configured count.
package history
