// Package integrity provides health checks for the guide builder's durable state.
//
// The guide package produces documents; this package validates what a run depends on
// and leaves behind.
//
// # Checks Provided
//
//   - Structure: Checks if the required folders exist in the storage bucket (logos/, artwork/).
//   - Cache: Parses the content cache file and counts unreadable lines.
//   - Database: Validates that the run history table exists with every expected column.
//   - Document: Re-runs the service count safety check and the consistency report on the
//     last document, either in memory (server) or from the exported file (CLI).
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/cache : Runs cache file check.
//   - GET /integrity/database : Runs run history schema check.
//   - GET /integrity/document : Runs document check.
package integrity
