package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"guide-builder/feature/guide/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStage_String(t *testing.T) {
	assert.Equal(t, "init", StageInit.String())
	assert.Equal(t, "resolve_artwork", StageResolveArtwork.String())
	assert.Equal(t, "persist", StagePersist.String())
	assert.Equal(t, "idle", Stage(0).String())
}

func TestCounters_EnterResets(t *testing.T) {
	c := NewCounters("run-1", nil)
	c.Enter(StageFetch, 10)
	c.Add(4)
	c.Inc()

	p := c.Snapshot()
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, int(StageFetch), p.Stage)
	assert.Equal(t, int64(5), p.Processed)
	assert.Equal(t, int64(10), p.Total)

	c.Enter(StageResolveArtwork, 3)
	p = c.Snapshot()
	assert.Equal(t, "resolve_artwork", p.StageName)
	assert.Zero(t, p.Processed)
	assert.Equal(t, int64(3), p.Total)

	c.Add(-2)
	c.Add(0)
	assert.Zero(t, c.Snapshot().Processed)
}

func TestCounters_ConcurrentIncrements(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int64
	)
	c := NewCounters("run", ReporterFunc(func(p models.Progress) {
		mu.Lock()
		seen = append(seen, p.Processed)
		mu.Unlock()
	}))
	c.Enter(StageFetch, 100)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), c.Snapshot().Processed)
	assert.Len(t, seen, 101)
}

func TestTrackerAndMultiReporter(t *testing.T) {
	a, b := &Tracker{}, &Tracker{}
	m := MultiReporter{a, nil, b}
	m.Report(models.Progress{RunID: "x", Stage: 4, StageName: "fetch", Processed: 2, Total: 5})

	assert.Equal(t, a.Latest(), b.Latest())
	assert.Equal(t, int64(2), a.Latest().Processed)
}

func TestLogReporter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := LogReporter{Logger: zap.New(core)}

	r.Report(models.Progress{StageName: "fetch", Total: 3})
	r.Report(models.Progress{StageName: "fetch", Processed: 1, Total: 3})
	LogReporter{}.Report(models.Progress{})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Stage started", entries[0].Message)
	assert.Equal(t, "Stage progress", entries[1].Message)
}

func TestJSONFileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "guide.json")
	doc := &models.Document{
		GeneratedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Services:    []models.Service{models.PlaceholderService()},
		Elements:    []models.Element{{ID: "A", Title: "Alpha"}},
		Summary:     models.Summary{Services: 1, Elements: 1},
	}

	require.NoError(t, JSONFileExporter{Path: path}.Export(context.Background(), doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got models.Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "A", got.Elements[0].ID)
	assert.Equal(t, models.PlaceholderServiceID, got.Services[0].ID)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestJSONFileExporter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "guide.json")

	err := JSONFileExporter{Path: path}.Export(ctx, &models.Document{})
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
