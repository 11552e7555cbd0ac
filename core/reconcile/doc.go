// Package reconcile decides which guide elements need a remote fetch.
//
// It compares a freshly retrieved hash manifest (element key to content hash) against
// an Index of cached entries and partitions the manifest into two disjoint sets:
//
//   - ToFetch: keys absent from the index, whose hash changed, whose cached payload is
//     empty, or whose artwork is missing while artwork is required.
//   - Reusable: keys whose cached payload can be used directly.
//
// Diff is pure. It performs no I/O, never mutates the index, and sorts its output, so the
// same manifest and index always produce the same Plan. Each key also carries a Decision
// with its Reason, and the Summary aggregates the counts per reason.
//
// # Indexes
//
// Any type exposing Lookup(key) (Entry, bool) can be diffed. The guide cache implements it
// directly; MapIndex and IndexFunc adapt maps and closures, which keeps tests small.
//
// # Usage
//
//	plan := reconcile.Diff(manifest, contentCache, reconcile.Options{})
//	results := fetcher.FetchAll(ctx, plan.ToFetch, call, counter)
//
// The artwork stage reuses Diff with RequireImages set to find elements whose artwork
// still has to be requested.
package reconcile
