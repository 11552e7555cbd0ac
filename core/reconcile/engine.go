package reconcile

import (
	"sort"
)

// Diff partitions the manifest into keys to fetch and keys to reuse.
// It is pure: the same manifest, index contents and options always yield the same plan.
func Diff(manifest map[string]string, idx Index, opts Options) Plan {
	keys := make([]string, 0, len(manifest))
	for key := range manifest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]Decision, 0, len(keys))
	for _, key := range keys {
		hash := manifest[key]
		results = append(results, Decision{
			Key:    key,
			Hash:   hash,
			Reason: classify(key, hash, idx, opts),
		})
	}

	return buildPlan(results)
}

// DiffOne classifies a single key against the index.
func DiffOne(key, hash string, idx Index, opts Options) Decision {
	return Decision{Key: key, Hash: hash, Reason: classify(key, hash, idx, opts)}
}

// classify applies the reuse rules in order: presence, hash, payload, artwork.
func classify(key, hash string, idx Index, opts Options) Reason {
	if idx == nil {
		return ReasonMissing
	}
	entry, ok := idx.Lookup(key)
	if !ok || entry == nil {
		return ReasonMissing
	}
	if entry.ContentHash() != hash {
		return ReasonHashChanged
	}
	if !entry.HasPayload() {
		return ReasonEmptyPayload
	}
	if opts.RequireImages && !entry.HasImages() {
		return ReasonMissingImages
	}
	return ReasonReusable
}
