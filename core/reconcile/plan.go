package reconcile

// buildPlan derives the fetch and reuse sets and the summary from sorted decisions.
func buildPlan(results []Decision) Plan {
	plan := Plan{
		ToFetch:  []string{},
		Reusable: []string{},
		Results:  results,
	}
	plan.Summary.Total = len(results)

	for _, d := range results {
		switch d.Reason {
		case ReasonMissing:
			plan.Summary.Missing++
		case ReasonHashChanged:
			plan.Summary.Changed++
		case ReasonEmptyPayload, ReasonMissingImages:
			plan.Summary.Unusable++
		case ReasonReusable:
			plan.Summary.Reusable++
		}

		if d.Reason.Fetch() {
			plan.ToFetch = append(plan.ToFetch, d.Key)
		} else {
			plan.Reusable = append(plan.Reusable, d.Key)
		}
	}

	return plan
}

// Reason returns the decision reason for a key, or false if the key is not in the plan.
func (p Plan) Reason(key string) (Reason, bool) {
	lo, hi := 0, len(p.Results)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.Results[mid].Key < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(p.Results) && p.Results[lo].Key == key {
		return p.Results[lo].Reason, true
	}
	return "", false
}

// Hashes returns the manifest hash of every key to fetch.
func (p Plan) Hashes() map[string]string {
	out := make(map[string]string, len(p.ToFetch))
	for _, d := range p.Results {
		if d.Reason.Fetch() {
			out[d.Key] = d.Hash
		}
	}
	return out
}

// NeedsFetch reports whether the plan requires any remote call.
func (p Plan) NeedsFetch() bool {
	return len(p.ToFetch) > 0
}
