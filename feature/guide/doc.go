// Package guide exposes the guide builder over HTTP.
//
// Build wires the catalog client, content cache, batch fetcher, artwork resolver, logo
// mirror, run history and exporter into a pipeline.Runner. Service wraps the runner for
// handlers and commands, and Feature plugs the routes into the loader.
//
// Routes:
//
//	GET  /guide/status         progress of the active run and summary of the last one
//	POST /guide/runs           start a run (202), or 409 when one is active
//	GET  /guide/document       summary and services of the last document
//	GET  /guide/elements/:id   one element of the last document
//	GET  /guide/cache/:id      cache metadata of one element
//	GET  /guide/history        recent runs (requires a database)
package guide
