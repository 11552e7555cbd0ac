package checks

import (
	"guide-builder/core/database"
	"guide-builder/core/errors"
	"guide-builder/feature/guide/history"

	"gorm.io/gorm"
)

// DatabaseReport is the outcome of a run history schema check.
type DatabaseReport struct {
	Table          string   `json:"table"`
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckDatabase verifies that the run history table exists with every expected column.
func CheckDatabase(db *gorm.DB) (*DatabaseReport, error) {
	if db == nil {
		return nil, errors.New("database connection is nil")
	}

	table := history.RunRecord{}.TableName()
	report := &DatabaseReport{Table: table, MissingColumns: []string{}, Status: "ok"}

	if !db.Migrator().HasTable(table) {
		report.Status = "error"
		report.MissingColumns = append(report.MissingColumns, history.Columns...)
		return report, nil
	}
	report.Exists = true

	missing, err := database.MissingColumns(db, table, history.Columns)
	if err != nil {
		return nil, errors.Wrapf(err, "inspect table %s", table)
	}
	if len(missing) > 0 {
		report.MissingColumns = missing
		report.Status = "error"
	}
	return report, nil
}
