package checks

import (
	"guide-builder/feature/guide/assemble"
	"guide-builder/feature/guide/models"
)

// DocumentReport is the outcome of a document consistency check.
type DocumentReport struct {
	Services    int             `json:"services"`
	Elements    int             `json:"elements"`
	Expected    int             `json:"expected"`
	SafetyError string          `json:"safety_error,omitempty"`
	Consistency assemble.Report `json:"consistency"`
	Status      string          `json:"status"` // "ok", "warning", "error"
}

// CheckDocument re-runs the service count safety check and the consistency report
// on an assembled document. The placeholder service is not counted.
func CheckDocument(doc *models.Document, expected int, ratio float64) DocumentReport {
	report := DocumentReport{Expected: expected, Status: "ok"}
	if doc == nil {
		report.Status = "error"
		report.SafetyError = "no document assembled yet"
		return report
	}

	for _, svc := range doc.Services {
		if !svc.Placeholder {
			report.Services++
		}
	}
	report.Elements = len(doc.Elements)
	report.Consistency = assemble.Check(doc)

	if err := assemble.CheckServiceCount(report.Services, expected, ratio); err != nil {
		report.SafetyError = err.Error()
		report.Status = "error"
		return report
	}
	if !report.Consistency.Clean() {
		report.Status = "warning"
	}
	return report
}
