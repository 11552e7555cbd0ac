package checks

import (
	"testing"

	"guide-builder/core/database"
	"guide-builder/feature/guide/history"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestCheckDatabase_NilDB(t *testing.T) {
	report, err := CheckDatabase(nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckDatabase_Migrated(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, history.NewStore(db).Migrate())

	report, err := CheckDatabase(db)
	require.NoError(t, err)
	assert.Equal(t, "ok", report.Status)
	assert.True(t, report.Exists)
	assert.Empty(t, report.MissingColumns)
}

func TestCheckDatabase_MissingTable(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	report, err := CheckDatabase(db)
	require.NoError(t, err)
	assert.Equal(t, "error", report.Status)
	assert.False(t, report.Exists)
	assert.Equal(t, history.Columns, report.MissingColumns)
}

func TestCheckDatabase_MissingColumns(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE guide_runs (id TEXT PRIMARY KEY, started_at DATETIME, outcome TEXT)").Error)

	report, err := CheckDatabase(db)
	require.NoError(t, err)
	assert.Equal(t, "error", report.Status)
	assert.True(t, report.Exists)
	assert.Contains(t, report.MissingColumns, "finished_at")
	assert.Contains(t, report.MissingColumns, "services")
	assert.NotContains(t, report.MissingColumns, "outcome")
}

func TestCheckDatabase_UnreachableDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(".*").WillReturnError(assert.AnError)
	mock.ExpectQuery(".*").WillReturnError(assert.AnError)

	report, err := CheckDatabase(db)
	require.NoError(t, err)
	assert.False(t, report.Exists)
	assert.Equal(t, "error", report.Status)
}
