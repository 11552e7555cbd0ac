package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingCounter struct{ n atomic.Int64 }

func (c *countingCounter) Inc() { c.n.Add(1) }

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("EP%05d", i)
	}
	return out
}

// echo returns one response per requested id.
func echo(_ context.Context, batch []string) ([]models.FetchResponse, error) {
	out := make([]models.FetchResponse, 0, len(batch))
	for _, id := range batch {
		out = append(out, models.FetchResponse{Key: id, Data: json.RawMessage(`{"programID":"` + id + `"}`)})
	}
	return out, nil
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		n, size int
		want    int
	}{
		{"Empty", 0, 500, 0},
		{"Single", 1, 500, 1},
		{"Exact", 1000, 500, 2},
		{"Remainder", 1001, 500, 3},
		{"Size one", 7, 1, 7},
		{"Non positive size", 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := ids(tt.n)
			batches := Partition(input, tt.size)
			assert.Len(t, batches, tt.want)

			var flat []string
			for _, b := range batches {
				if tt.size > 0 {
					assert.LessOrEqual(t, len(b), tt.size)
				}
				flat = append(flat, b...)
			}
			if tt.n > 0 {
				assert.Equal(t, input, flat)
			}
		})
	}
}

func TestFetchAll_BatchSizeBound(t *testing.T) {
	var (
		mu    sync.Mutex
		sizes []int
	)
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		mu.Lock()
		sizes = append(sizes, len(batch))
		mu.Unlock()
		return echo(ctx, batch)
	}

	counter := &countingCounter{}
	f := New(Config{MaxBatchSize: 50, MaxConcurrency: 4}, zap.NewNop())
	rs := f.FetchAll(context.Background(), ids(1234), call, counter)

	assert.Len(t, sizes, 25) // ceil(1234/50)
	for _, s := range sizes {
		assert.LessOrEqual(t, s, 50)
	}
	assert.Equal(t, int64(25), counter.n.Load())
	assert.Len(t, rs.Responses(), 1234)
	assert.Empty(t, rs.Missed())
	assert.Len(t, rs.Outcomes(), 25)
}

func TestFetchAll_ConcurrencyBound(t *testing.T) {
	const limit = 3
	var inFlight, peak atomic.Int32

	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return echo(ctx, batch)
	}

	f := New(Config{MaxBatchSize: 1, MaxConcurrency: limit}, nil)
	rs := f.FetchAll(context.Background(), ids(30), call, nil)

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, int32(0), inFlight.Load())
	assert.Equal(t, 30, rs.Stats().Received)
}

func TestFetchAll_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		if calls.Add(1) < 3 {
			return nil, errors.Mark(errors.New("timeout"), models.ErrTransport)
		}
		return echo(ctx, batch)
	}

	f := New(Config{MaxBatchSize: 10, MaxConcurrency: 1, Retries: 2}, nil)
	rs := f.FetchAll(context.Background(), ids(5), call, nil)

	assert.Equal(t, int32(3), calls.Load())
	outcomes := rs.Outcomes()
	require.Len(t, outcomes, 1)
	assert.Equal(t, 3, outcomes[0].Attempts)
	assert.False(t, outcomes[0].Failed())
	assert.Len(t, rs.Responses(), 5)
}

func TestFetchAll_FailedBatchBecomesMisses(t *testing.T) {
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		if batch[0] == "EP00002" {
			return nil, errors.Mark(errors.New("502"), models.ErrTransport)
		}
		return echo(ctx, batch)
	}

	counter := &countingCounter{}
	f := New(Config{MaxBatchSize: 2, MaxConcurrency: 2, Retries: 1}, nil)
	rs := f.FetchAll(context.Background(), ids(6), call, counter)

	assert.Equal(t, []string{"EP00002", "EP00003"}, rs.Missed())
	assert.Len(t, rs.Responses(), 4)
	assert.NoError(t, rs.Err())
	assert.Equal(t, int64(3), counter.n.Load())

	stats := rs.Stats()
	assert.Equal(t, Stats{Batches: 3, Failed: 1, Requested: 6, Received: 4, Missed: 2}, stats)
}

func TestFetchAll_PartialBatch(t *testing.T) {
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		resp, _ := echo(ctx, batch)
		// Drop the last element, add an unrequested one and an empty one
		resp = resp[:len(resp)-1]
		resp = append(resp, models.FetchResponse{Key: "stranger", Data: json.RawMessage(`{}`)})
		resp[0].Data = nil
		return resp, nil
	}

	f := New(Config{MaxBatchSize: 10, MaxConcurrency: 1}, nil)
	rs := f.FetchAll(context.Background(), ids(4), call, nil)

	assert.Equal(t, []string{"EP00000", "EP00003"}, rs.Missed())
	keys := make([]string, 0)
	for _, r := range rs.Responses() {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"EP00001", "EP00002"}, keys)
	assert.Equal(t, 1, rs.Stats().Partial)
}

func TestFetchAll_AuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		calls.Add(1)
		return nil, errors.Mark(errors.New("401"), models.ErrAuth)
	}

	f := New(Config{MaxBatchSize: 10, MaxConcurrency: 1, Retries: 3}, nil)
	rs := f.FetchAll(context.Background(), ids(3), call, nil)

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, errors.Is(rs.Err(), models.ErrAuth))
	assert.Len(t, rs.Missed(), 3)
}

func TestFetchAll_Empty(t *testing.T) {
	called := false
	call := func(ctx context.Context, batch []string) ([]models.FetchResponse, error) {
		called = true
		return nil, nil
	}
	rs := New(Config{MaxBatchSize: 10, MaxConcurrency: 4}, nil).FetchAll(context.Background(), nil, call, nil)
	assert.False(t, called)
	assert.Equal(t, Stats{}, rs.Stats())
}

func TestFetchAll_RateLimited(t *testing.T) {
	f := New(Config{MaxBatchSize: 1, MaxConcurrency: 2, RequestsPerSecond: 1000}, nil)
	rs := f.FetchAll(context.Background(), ids(10), echo, nil)
	assert.Len(t, rs.Responses(), 10)
}

func TestFetchAll_CancelledContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	call := func(_ context.Context, batch []string) ([]models.FetchResponse, error) {
		cancel()
		return nil, errors.Mark(errors.New("reset"), models.ErrTransport)
	}

	f := New(Config{MaxBatchSize: 5, MaxConcurrency: 1, Retries: 5, RetryBackoff: time.Hour}, nil)
	rs := f.FetchAll(ctx, ids(5), call, nil)

	outcomes := rs.Outcomes()
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Failed())
	assert.Equal(t, 2, outcomes[0].Attempts)
}
