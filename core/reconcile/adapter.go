package reconcile

// StaticEntry is a plain Entry value for callers without a cache type of their own.
type StaticEntry struct {
	Hash    string
	Payload bool
	Images  bool
}

// ContentHash implements Entry.
func (e StaticEntry) ContentHash() string { return e.Hash }

// HasPayload implements Entry.
func (e StaticEntry) HasPayload() bool { return e.Payload }

// HasImages implements Entry.
func (e StaticEntry) HasImages() bool { return e.Images }

// MapIndex adapts a map of entries to the Index interface.
type MapIndex map[string]Entry

// Lookup implements Index.
func (m MapIndex) Lookup(key string) (Entry, bool) {
	e, ok := m[key]
	return e, ok
}

// IndexFunc adapts a lookup function to the Index interface.
type IndexFunc func(key string) (Entry, bool)

// Lookup implements Index.
func (f IndexFunc) Lookup(key string) (Entry, bool) {
	return f(key)
}
