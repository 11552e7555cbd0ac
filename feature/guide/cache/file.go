package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"
)

// Report describes the readability of a cache file.
type Report struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Entries int    `json:"entries"`
	Dropped int    `json:"dropped"`
}

// Inspect parses the cache file without loading it into a Cache.
// A missing file is reported with Exists=false and no error.
func Inspect(path string) (Report, error) {
	report := Report{Path: path}
	if _, statErr := os.Stat(path); statErr == nil {
		report.Exists = true
	}

	entries, dropped, err := readFile(path)
	report.Entries = len(entries)
	report.Dropped = dropped
	return report, err
}

// readFile decodes one entry per line. Lines that fail to decode, or decode without
// a key, are counted as dropped; the last record for a key wins.
func readFile(path string) (map[string]models.CacheEntry, int, error) {
	entries := make(map[string]models.CacheEntry)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, 0, nil
		}
		return entries, 0, errors.Mark(errors.Wrap(err, "open cache file"), models.ErrCacheCorrupt)
	}
	defer f.Close()

	dropped := 0
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var entry models.CacheEntry
			if err := json.Unmarshal(line, &entry); err != nil || entry.Key == "" {
				dropped++
			} else {
				entries[entry.Key] = entry
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return make(map[string]models.CacheEntry), 0,
				errors.Mark(errors.Wrap(readErr, "read cache file"), models.ErrCacheCorrupt)
		}
	}

	if dropped > 0 {
		return entries, dropped, errors.Mark(
			errors.Newf("dropped %d unreadable cache lines from %s", dropped, path),
			models.ErrCacheCorrupt,
		)
	}
	return entries, 0, nil
}

// writeFile writes entries as JSON lines to a temp file and renames it over path.
func writeFile(path string, entries []models.CacheEntry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
			return errors.Wrapf(err, "encode entry %s", entry.Key)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "flush temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}
