// Package cache is the durable content cache of the guide pipeline.
//
// Each element key maps to one CacheEntry holding the remote content hash, the opaque
// JSON payload, optional artwork candidates and a lastSeen stamp. The cache is the single
// source of truth for "have we already fetched this element's current content".
//
// # File format
//
// The file holds one JSON object per line, sorted by key. Save writes to a temp file in the
// same directory and renames it over the previous file, so readers never observe a partial
// write. Load fails open: a corrupt line is skipped and an unreadable file yields an empty
// cache. Both cases return an error marked models.ErrCacheCorrupt for logging only.
//
// # Concurrency
//
// A RWMutex guards the in-memory map so HTTP readers can inspect the cache while a run
// writes to it. Across processes, Lock takes a gofrs/flock lock on "<path>.lock".
//
// # Usage
//
//	c := cache.New(cfg.Cache.Path, logger)
//	if err := c.Load(); err != nil {
//	    logger.Warn("Cache partially loaded", zap.Error(err))
//	}
//	plan := reconcile.Diff(manifest, c, reconcile.Options{})
//	...
//	c.Prune(cfg.Cache.Retention)
//	if err := c.Save(); err != nil { ... } // marked models.ErrCacheSave
package cache
