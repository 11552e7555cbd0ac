package models

import "guide-builder/core/errors"

// Error taxonomy of a guide run. Concrete failures are marked with one of these so
// errors.Is classifies them while the original message is kept.
var (
	// ErrAuth marks a rejected credential. Fatal for the run.
	ErrAuth = errors.New("catalog rejected credential")
	// ErrTransport marks a failed batch call. Absorbed as misses.
	ErrTransport = errors.New("catalog transport failure")
	// ErrPartialData marks a batch returning fewer elements than requested. Absorbed as misses.
	ErrPartialData = errors.New("catalog returned partial data")
	// ErrCacheCorrupt marks an unreadable cache. Absorbed as an empty or partial cache.
	ErrCacheCorrupt = errors.New("content cache corrupt")
	// ErrDatasetTooSmall marks a failed service-count safety check. Fatal for the run.
	ErrDatasetTooSmall = errors.New("dataset too small")
	// ErrCacheSave marks a failed cache save. The run completes degraded.
	ErrCacheSave = errors.New("content cache save failed")
	// ErrRunInProgress is returned when a run is requested while one is active.
	ErrRunInProgress = errors.New("a guide run is already in progress")
)

// IsFatal reports whether err aborts a run.
func IsFatal(err error) bool {
	return errors.IsAny(err, ErrAuth, ErrDatasetTooSmall)
}
