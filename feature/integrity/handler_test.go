package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"guide-builder/core/database"
	"guide-builder/core/storage/mocks"
	"guide-builder/feature/guide/history"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, history.NewStore(db).Migrate())

	svc := NewService(mockClient, "test-bucket", zap.NewNop(), db, filepath.Join(t.TempDir(), "cache.jsonl"),
		WithDocuments(staticDocument{sampleDocument("S1")}, history.Static(1), 0.95))
	NewHandler(svc).RegisterRoutes(app)
	return app, mockClient
}

func emptyListing(mockClient *mocks.Client) {
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return(mocks.ObjectList())
}

func decode(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleStructureCheck(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)

	code, body := decode(t, app, "/integrity/structure")
	assert.Equal(t, 200, code)
	assert.Equal(t, "checked", body["status"])
	assert.NotEmpty(t, body["missing"])
}

func TestHandleStructureCheck_Fix(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)
	mockClient.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	code, body := decode(t, app, "/integrity/structure?fix=true")
	assert.Equal(t, 200, code)
	assert.Equal(t, "fixed", body["status"])
	mockClient.AssertNumberOfCalls(t, "PutObject", 2)
}

func TestHandleStructureCheck_Error(t *testing.T) {
	app, mockClient := setupTestApp(t)
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(false, nil)

	code, body := decode(t, app, "/integrity/structure")
	assert.Equal(t, 500, code)
	assert.Contains(t, body["error"], "does not exist")
}

func TestHandleCacheCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	code, body := decode(t, app, "/integrity/cache")
	assert.Equal(t, 200, code)
	assert.Equal(t, "missing", body["status"])
}

func TestHandleDatabaseCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	code, body := decode(t, app, "/integrity/database")
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "guide_runs", body["table"])
}

func TestHandleDocumentCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	code, body := decode(t, app, "/integrity/document")
	assert.Equal(t, 200, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHandleIntegrityCheck(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)

	code, body := decode(t, app, "/integrity")
	assert.Equal(t, 200, code)
	for _, key := range []string{"structure", "cache", "database", "document"} {
		assert.Contains(t, body, key)
	}
}
