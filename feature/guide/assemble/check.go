package assemble

import (
	"sort"

	"guide-builder/feature/guide/models"
)

// Report lists non-fatal consistency problems of a document.
type Report struct {
	Skipped                int      `json:"skipped"`
	UnknownServiceAirings  int      `json:"unknownServiceAirings"`
	UnknownServices        []string `json:"unknownServices,omitempty"`
	ElementsWithoutAirings int      `json:"elementsWithoutAirings"`
}

// Clean reports whether no problem was found.
func (r Report) Clean() bool {
	return r.Skipped == 0 && r.UnknownServiceAirings == 0 && r.ElementsWithoutAirings == 0
}

// Check verifies that airings reference known services and that elements are scheduled.
func Check(doc *models.Document) Report {
	known := make(map[string]bool, len(doc.Services))
	for _, svc := range doc.Services {
		known[svc.ID] = true
	}

	var r Report
	unknown := make(map[string]bool)
	for _, el := range doc.Elements {
		if len(el.Airings) == 0 {
			r.ElementsWithoutAirings++
			continue
		}
		for _, a := range el.Airings {
			if !known[a.StationID] {
				r.UnknownServiceAirings++
				unknown[a.StationID] = true
			}
		}
	}

	for id := range unknown {
		r.UnknownServices = append(r.UnknownServices, id)
	}
	sort.Strings(r.UnknownServices)
	return r
}
