// Package fetch runs bounded-concurrency batch calls against the catalog.
//
// FetchAll partitions the ids to fetch into consecutive batches of at most MaxBatchSize,
// queues them on a channel and drains it with min(MaxConcurrency, batches) workers, so no
// more than MaxConcurrency calls are ever in flight. An optional token-bucket limiter
// (golang.org/x/time/rate) paces calls across workers.
//
// Each batch is retried with linear backoff. A batch that still fails, or the elements a
// batch did not deliver, become misses: they are absent from the responses and listed by
// Missed. Credential rejections are never retried and surface through ResultSet.Err so the
// caller can abort the run.
//
// Workers only append to the ResultSet, which is lock-protected; the accessors return
// sorted copies so completion order never leaks into the result.
package fetch
