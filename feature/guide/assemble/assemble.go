package assemble

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"

	"go.uber.org/zap"
)

// DefaultSafetyRatio is the share of expected services a document must keep.
const DefaultSafetyRatio = 0.95

// Input is everything a document is built from.
type Input struct {
	// Services is the lineup.
	Services []models.Service
	// Reusable are cached entries served without a fetch.
	Reusable []models.CacheEntry
	// Fetched are fresh responses; they override reusable entries with the same key.
	Fetched []models.FetchResponse
	// Hashes holds manifest hashes for fetched keys whose response carries none.
	Hashes map[string]string
	// Artwork is the resolved image per element key.
	Artwork map[string]models.ArtworkCandidate
	// ExpectedServices is the service count the safety check compares against.
	// Zero or less disables the check.
	ExpectedServices int
}

// Assembler folds the inputs of a run into a Document.
type Assembler struct {
	SafetyRatio float64
	Clock       func() time.Time
	Logger      *zap.Logger
}

// New creates an Assembler. A non-positive ratio uses DefaultSafetyRatio.
func New(ratio float64, logger *zap.Logger) *Assembler {
	if ratio <= 0 {
		ratio = DefaultSafetyRatio
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{SafetyRatio: ratio, Clock: time.Now, Logger: logger}
}

// Assemble builds the document. It fails with an error marked ErrDatasetTooSmall when the
// lineup is implausibly small; every other problem is logged and absorbed.
func (a *Assembler) Assemble(in Input) (*models.Document, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	services := normalizeServices(in.Services)
	if err := CheckServiceCount(len(services), in.ExpectedServices, a.SafetyRatio); err != nil {
		return nil, err
	}

	elements, skipped := a.mergeElements(in, logger)

	doc := &models.Document{
		GeneratedAt: a.now().UTC(),
		Services:    append(services, models.PlaceholderService()),
		Elements:    elements,
	}
	doc.Summary = Summarize(doc)

	report := Check(doc)
	report.Skipped = skipped
	if !report.Clean() {
		logger.Warn("Document consistency issues",
			zap.Int("skipped_payloads", report.Skipped),
			zap.Int("airings_unknown_service", report.UnknownServiceAirings),
			zap.Strings("unknown_services", report.UnknownServices),
			zap.Int("elements_without_airings", report.ElementsWithoutAirings))
	}

	logger.Info("Document assembled",
		zap.Int("services", doc.Summary.Services),
		zap.Int("elements", doc.Summary.Elements),
		zap.Int("image_links", doc.Summary.ImageLinks))
	return doc, nil
}

func (a *Assembler) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

type source struct {
	hash    string
	payload json.RawMessage
	fresh   bool
}

// mergeElements overlays fetched responses on reusable entries and decodes the result.
func (a *Assembler) mergeElements(in Input, logger *zap.Logger) ([]models.Element, int) {
	merged := make(map[string]source, len(in.Reusable)+len(in.Fetched))
	for _, entry := range in.Reusable {
		if entry.Key == "" {
			continue
		}
		merged[entry.Key] = source{hash: entry.Hash, payload: entry.Payload}
	}
	for _, resp := range in.Fetched {
		if resp.Key == "" || resp.Miss() {
			continue
		}
		hash := resp.Hash
		if hash == "" {
			hash = in.Hashes[resp.Key]
		}
		merged[resp.Key] = source{hash: hash, payload: resp.Data, fresh: true}
	}

	elements := make([]models.Element, 0, len(merged))
	skipped := 0
	for key, src := range merged {
		var prog models.Program
		if err := json.Unmarshal(src.payload, &prog); err != nil {
			skipped++
			logger.Debug("Skipping undecodable payload", zap.String("key", key), zap.Error(err))
			continue
		}

		airings := append([]models.Airing(nil), prog.Airings...)
		sort.Slice(airings, func(i, j int) bool {
			if !airings[i].AirDateTime.Equal(airings[j].AirDateTime) {
				return airings[i].AirDateTime.Before(airings[j].AirDateTime)
			}
			return airings[i].StationID < airings[j].StationID
		})

		el := models.Element{
			ID:           key,
			Hash:         src.hash,
			Title:        prog.Title(),
			EpisodeTitle: prog.EpisodeTitle,
			Description:  prog.Description(),
			EntityType:   prog.EntityType,
			SeriesID:     prog.SeriesID,
			Genres:       prog.Genres,
			Airings:      airings,
			Fresh:        src.fresh,
			Payload:      src.payload,
		}
		if img, ok := in.Artwork[key]; ok {
			el.Image = &img
		}
		elements = append(elements, el)
	}

	sort.Slice(elements, func(i, j int) bool { return elements[i].ID < elements[j].ID })
	return elements, skipped
}

// normalizeServices drops empty and placeholder entries, dedupes by id and sorts.
func normalizeServices(in []models.Service) []models.Service {
	seen := make(map[string]bool, len(in))
	out := make([]models.Service, 0, len(in)+1)
	for _, svc := range in {
		if svc.ID == "" || svc.Placeholder || svc.ID == models.PlaceholderServiceID || seen[svc.ID] {
			continue
		}
		seen[svc.ID] = true
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CheckServiceCount fails when count is below ratio of expected.
// With expected 100 and ratio 0.95, 95 passes and 94 fails.
func CheckServiceCount(count, expected int, ratio float64) error {
	if expected <= 0 {
		return nil
	}
	if ratio <= 0 {
		ratio = DefaultSafetyRatio
	}
	// The epsilon keeps exact products such as 100*0.95 from rounding up.
	threshold := math.Ceil(float64(expected)*ratio - 1e-9)
	if float64(count) >= threshold {
		return nil
	}
	return errors.WithHint(
		errors.Mark(
			errors.Newf("%d services is below the minimum of %d (%.0f%% of %d expected)", count, int(threshold), ratio*100, expected),
			models.ErrDatasetTooSmall,
		),
		"the catalog may have returned a degraded lineup; the previous output was kept",
	)
}

// Summarize computes the document counts.
func Summarize(doc *models.Document) models.Summary {
	s := models.Summary{Services: len(doc.Services), Elements: len(doc.Elements)}
	for _, svc := range doc.Services {
		if svc.LogoURI != "" {
			s.ImageLinks++
		}
	}
	for _, el := range doc.Elements {
		if el.Image != nil {
			s.ImageLinks++
		}
	}
	return s
}
