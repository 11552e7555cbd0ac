package checks

import (
	"testing"
	"time"

	"guide-builder/feature/guide/models"

	"github.com/stretchr/testify/assert"
)

func document(services int) *models.Document {
	doc := &models.Document{}
	for i := 0; i < services; i++ {
		doc.Services = append(doc.Services, models.Service{ID: string(rune('A' + i))})
	}
	doc.Services = append(doc.Services, models.PlaceholderService())
	doc.Elements = []models.Element{{
		ID:      "EP1",
		Airings: []models.Airing{{StationID: "A", AirDateTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
	}}
	return doc
}

func TestCheckDocument(t *testing.T) {
	t.Run("No Document", func(t *testing.T) {
		report := CheckDocument(nil, 10, 0.95)
		assert.Equal(t, "error", report.Status)
	})

	t.Run("Healthy", func(t *testing.T) {
		report := CheckDocument(document(3), 3, 0.95)
		assert.Equal(t, "ok", report.Status)
		assert.Equal(t, 3, report.Services)
		assert.Equal(t, 1, report.Elements)
	})

	t.Run("Too Few Services", func(t *testing.T) {
		report := CheckDocument(document(3), 10, 0.95)
		assert.Equal(t, "error", report.Status)
		assert.NotEmpty(t, report.SafetyError)
	})

	t.Run("Unscheduled Element", func(t *testing.T) {
		doc := document(2)
		doc.Elements = append(doc.Elements, models.Element{ID: "EP2"})
		report := CheckDocument(doc, 0, 0.95)
		assert.Equal(t, "warning", report.Status)
		assert.Equal(t, 1, report.Consistency.ElementsWithoutAirings)
	})
}
