// Package pipeline runs the guide build end to end.
//
// A run walks seven stages on the calling goroutine:
//
//	Init            lock the cache file, check the catalog credential
//	LoadCache       read the content cache (fails open)
//	DetectChanges   fetch lineup and manifest, diff against the cache, start the logo mirror
//	Fetch           fetch changed elements in bounded concurrent batches, write through to the cache
//	ResolveArtwork  fetch artwork candidates for elements without images, pick one per element
//	Assemble        wait for the logo mirror, merge everything into a Document
//	Persist         export the document, prune and save the cache
//
// Only credential rejections and a failed service-count check abort a run. Failed batches
// become misses. A cache that cannot be saved turns the outcome into "degraded" without
// discarding the document. Aborted runs leave the cache file and the last document as
// they were.
//
// Progress is published through Counters to a Reporter. Tracker keeps the latest snapshot
// for status endpoints and LogReporter writes it to zap.
//
// A Runner executes one run at a time; a second concurrent Run fails with
// models.ErrRunInProgress.
package pipeline
