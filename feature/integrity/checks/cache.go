package checks

import (
	"guide-builder/feature/guide/cache"
)

// CacheReport is the outcome of a cache file check.
type CacheReport struct {
	cache.Report
	Status string `json:"status"` // "ok", "missing", "corrupt"
	Error  string `json:"error,omitempty"`
}

// CheckCacheFile parses the cache file and reports unreadable lines.
// A missing file is not an error: the next run starts from an empty cache.
func CheckCacheFile(path string) CacheReport {
	rep, err := cache.Inspect(path)
	report := CacheReport{Report: rep, Status: "ok"}
	switch {
	case err != nil:
		report.Status = "corrupt"
		report.Error = err.Error()
	case !rep.Exists:
		report.Status = "missing"
	}
	return report
}
