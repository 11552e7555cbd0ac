// Package assemble folds reusable and freshly fetched elements into the guide Document.
//
// Fetched payloads override cached ones for the same key. Payloads are decoded into the
// program schema; undecodable ones are skipped and counted. Elements are sorted by key and
// services by id, so the same inputs always produce the same document apart from
// GeneratedAt.
//
// Before anything is built, the lineup goes through a safety check: fewer than
// SafetyRatio (0.95) of the expected services fails with models.ErrDatasetTooSmall and
// the run aborts. A synthetic placeholder service ("DUMMY") is then always appended as a
// harmless default mapping target for downstream consumers.
//
// Check reports airings pointing at unknown services and elements without airings. The
// assembler logs these problems and keeps going.
package assemble
