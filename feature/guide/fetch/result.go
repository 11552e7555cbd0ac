package fetch

import (
	"sort"
	"sync"

	"guide-builder/feature/guide/models"
)

// Outcome is the result of one batch.
type Outcome struct {
	Index    int   `json:"index"`
	Size     int   `json:"size"`
	Received int   `json:"received"`
	Attempts int   `json:"attempts"`
	Err      error `json:"-"`
}

// Failed reports whether the batch delivered nothing because of an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Partial reports whether the batch delivered fewer elements than requested.
func (o Outcome) Partial() bool { return o.Err == nil && o.Received < o.Size }

// Stats aggregates the outcomes of a fetch.
type Stats struct {
	Batches   int `json:"batches"`
	Failed    int `json:"failed"`
	Partial   int `json:"partial"`
	Requested int `json:"requested"`
	Received  int `json:"received"`
	Missed    int `json:"missed"`
}

// ResultSet collects batch results from concurrent workers.
// It is append-only while workers run and read after FetchAll returns.
type ResultSet struct {
	mu        sync.Mutex
	responses []models.FetchResponse
	missed    []string
	outcomes  []Outcome
	authErr   error
}

func (r *ResultSet) add(outcome Outcome, responses []models.FetchResponse, missed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.responses = append(r.responses, responses...)
	r.missed = append(r.missed, missed...)
	r.outcomes = append(r.outcomes, outcome)
	if outcome.Err != nil && r.authErr == nil && isAuth(outcome.Err) {
		r.authErr = outcome.Err
	}
}

// Responses returns the delivered responses sorted by key.
func (r *ResultSet) Responses() []models.FetchResponse {
	r.mu.Lock()
	out := append([]models.FetchResponse(nil), r.responses...)
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Missed returns the ids that were requested but not delivered, sorted.
func (r *ResultSet) Missed() []string {
	r.mu.Lock()
	out := append([]string(nil), r.missed...)
	r.mu.Unlock()

	sort.Strings(out)
	return out
}

// Outcomes returns one outcome per batch, in partition order.
func (r *ResultSet) Outcomes() []Outcome {
	r.mu.Lock()
	out := append([]Outcome(nil), r.outcomes...)
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Err returns the first credential rejection seen by any batch.
func (r *ResultSet) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authErr
}

// Stats aggregates the outcomes.
func (r *ResultSet) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{Batches: len(r.outcomes), Received: len(r.responses), Missed: len(r.missed)}
	for _, o := range r.outcomes {
		s.Requested += o.Size
		if o.Failed() {
			s.Failed++
		} else if o.Partial() {
			s.Partial++
		}
	}
	return s
}
