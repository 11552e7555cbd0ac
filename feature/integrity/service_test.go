package integrity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"guide-builder/core/database"
	"guide-builder/core/storage/mocks"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/guide/models"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticDocument struct {
	doc *models.Document
}

func (s staticDocument) Document() (*models.Document, bool) {
	return s.doc, s.doc != nil
}

func sampleDocument(services ...string) *models.Document {
	doc := &models.Document{}
	for _, id := range services {
		doc.Services = append(doc.Services, models.Service{ID: id})
	}
	doc.Services = append(doc.Services, models.PlaceholderService())
	doc.Elements = []models.Element{{ID: "EP1", Airings: []models.Airing{{StationID: services[0]}}}}
	return doc
}

func TestService_Structure(t *testing.T) {
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, "test-bucket", zap.NewNop(), nil, "")

	t.Run("CheckStructure", func(t *testing.T) {
		mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
		mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.ObjectList())

		missing, err := svc.CheckStructure(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, []string{"artwork", "logos"}, missing)
	})

	t.Run("FixStructure", func(t *testing.T) {
		mockClient.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

		err := svc.FixStructure(context.Background(), []string{"logos"})
		assert.NoError(t, err)
	})
}

func TestService_StorageDisabled(t *testing.T) {
	svc := NewService(nil, "", nil, nil, "")

	_, err := svc.CheckStructure(context.Background())
	assert.ErrorIs(t, err, ErrStorageDisabled)
	assert.ErrorIs(t, svc.FixStructure(context.Background(), []string{"logos"}), ErrStorageDisabled)
}

func TestService_CheckCache(t *testing.T) {
	svc := NewService(nil, "", zap.NewNop(), nil, filepath.Join(t.TempDir(), "cache.jsonl"))
	report := svc.CheckCache()
	assert.Equal(t, "missing", report.Status)
}

func TestService_CheckDatabase(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, history.NewStore(db).Migrate())

	svc := NewService(nil, "", zap.NewNop(), db, "")
	report, err := svc.CheckDatabase()
	require.NoError(t, err)
	assert.Equal(t, "ok", report.Status)

	_, err = NewService(nil, "", zap.NewNop(), nil, "").CheckDatabase()
	assert.Error(t, err)
}

func TestService_CheckDocument(t *testing.T) {
	t.Run("No Source", func(t *testing.T) {
		_, err := NewService(nil, "", nil, nil, "").CheckDocument(context.Background())
		assert.Error(t, err)
	})

	t.Run("Passes", func(t *testing.T) {
		svc := NewService(nil, "", nil, nil, "",
			WithDocuments(staticDocument{sampleDocument("S1", "S2")}, history.Static(2), 0.95))
		report, err := svc.CheckDocument(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, 2, report.Services)
		assert.Equal(t, 2, report.Expected)
	})

	t.Run("Too Small", func(t *testing.T) {
		svc := NewService(nil, "", nil, nil, "",
			WithDocuments(staticDocument{sampleDocument("S1")}, history.Static(20), 0.95))
		report, err := svc.CheckDocument(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "error", report.Status)
		assert.NotEmpty(t, report.SafetyError)
	})
}

func TestFileDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.json")

	_, ok := FileDocument{Path: path}.Document()
	assert.False(t, ok)

	data, err := json.Marshal(sampleDocument("S1"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	doc, ok := FileDocument{Path: path}.Document()
	require.True(t, ok)
	assert.Len(t, doc.Services, 2)

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, ok = FileDocument{Path: path}.Document()
	assert.False(t, ok)
}
