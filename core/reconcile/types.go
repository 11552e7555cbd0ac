package reconcile

// Entry is the cached view of one element the detector needs to classify it.
type Entry interface {
	// ContentHash returns the hash of the payload currently stored.
	ContentHash() string
	// HasPayload reports whether the stored payload is usable.
	HasPayload() bool
	// HasImages reports whether artwork links are stored for the element.
	HasImages() bool
}

// Index looks up cached entries by element key.
type Index interface {
	Lookup(key string) (Entry, bool)
}

// Reason explains where an element was placed by Diff.
type Reason string

const (
	// ReasonMissing marks elements absent from the index.
	ReasonMissing Reason = "missing"
	// ReasonHashChanged marks elements whose cached hash differs from the manifest.
	ReasonHashChanged Reason = "hash_changed"
	// ReasonEmptyPayload marks elements cached without a usable payload.
	ReasonEmptyPayload Reason = "empty_payload"
	// ReasonMissingImages marks elements cached without artwork while artwork is required.
	ReasonMissingImages Reason = "missing_images"
	// ReasonReusable marks elements served from the index.
	ReasonReusable Reason = "reusable"
)

// Fetch reports whether the reason requires a remote fetch.
func (r Reason) Fetch() bool {
	return r != ReasonReusable
}

// Decision is the classification of a single manifest key.
type Decision struct {
	// Key is the element identifier.
	Key string `json:"key"`

	// Hash is the remote hash from the manifest.
	Hash string `json:"hash"`

	// Reason is why the key was placed in its set.
	Reason Reason `json:"reason"`
}

// Options controls which cached entries are considered usable.
type Options struct {
	// RequireImages treats entries without artwork links as unusable.
	RequireImages bool
}

// Plan is the partition of a manifest into keys to fetch and keys to reuse.
type Plan struct {
	// ToFetch holds keys needing a remote fetch, sorted.
	ToFetch []string `json:"to_fetch"`

	// Reusable holds keys served from the index, sorted.
	Reusable []string `json:"reusable"`

	// Results holds one decision per manifest key, sorted by key.
	Results []Decision `json:"results"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate statistics for a plan.
type Summary struct {
	// Total is the number of manifest keys.
	Total int `json:"total"`

	// Missing counts keys absent from the index.
	Missing int `json:"missing"`

	// Changed counts keys whose hash changed.
	Changed int `json:"changed"`

	// Unusable counts keys cached with an empty payload or missing artwork.
	Unusable int `json:"unusable"`

	// Reusable counts keys served from the index.
	Reusable int `json:"reusable"`
}
