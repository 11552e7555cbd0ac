package guide

import (
	"context"
	"path/filepath"
	"testing"

	"guide-builder/core/database"
	"guide-builder/feature/guide/fetch"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoader(t *testing.T) {
	svc := NewService(context.Background(), newComponents(t, &stubCatalog{}), zap.NewNop())
	feature := NewFeature(svc)

	assert.Equal(t, "guide", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.Same(t, svc, feature.Service())

	app := fiber.New()
	assert.NoError(t, feature.Load(app))
}

func testConfig(t *testing.T) *Config {
	cfg := &Config{}
	cfg.Catalog.BaseURL = "http://127.0.0.1:1/20141201"
	cfg.Catalog.ManifestScope = "lineup"
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache.jsonl")
	cfg.Fetch = fetch.Config{MaxBatchSize: 10, MaxConcurrency: 1}
	cfg.Pipeline.SafetyRatio = 0.95
	cfg.Pipeline.ExpectedFromHistory = true
	return cfg
}

func TestBuild(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	comps, err := Build(testConfig(t), "guide", nil, db, zap.NewNop())
	require.NoError(t, err)

	assert.NotNil(t, comps.Runner)
	assert.NotNil(t, comps.Tracker)
	assert.NotNil(t, comps.Catalog)
	require.NotNil(t, comps.History)
	assert.True(t, db.Migrator().HasTable("guide_runs"))
}

func TestBuild_WithoutDatabase(t *testing.T) {
	comps, err := Build(testConfig(t), "guide", nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, comps.History)
}

func TestBuild_RequiresCatalogURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.BaseURL = ""
	_, err := Build(cfg, "guide", nil, nil, nil)
	assert.Error(t, err)
}
