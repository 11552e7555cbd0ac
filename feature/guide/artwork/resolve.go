package artwork

import (
	"strings"

	"guide-builder/feature/guide/models"
)

// Tier names used by the catalog, lower case.
const (
	TierSeries     = "series"
	TierEpisode    = "episode"
	TierSeason     = "season"
	TierMovie      = "movie"
	TierBanner     = "banner"
	TierTeamEvent  = "team event"
	TierSportEvent = "sport event"
)

// Resolve returns the first candidate of the first preferred tier that has one.
// Tiers compare case-insensitively. No match, or no candidates, yields false.
func Resolve(candidates []models.ArtworkCandidate, preferredTiers []string) (models.ArtworkCandidate, bool) {
	for _, tier := range preferredTiers {
		for _, c := range candidates {
			if strings.EqualFold(c.Tier, tier) {
				return c, true
			}
		}
	}
	return models.ArtworkCandidate{}, false
}

// FilterTiers keeps candidates of the given tiers, grouped in tier preference order.
func FilterTiers(candidates []models.ArtworkCandidate, tiers []string) []models.ArtworkCandidate {
	var out []models.ArtworkCandidate
	for _, tier := range tiers {
		for _, c := range candidates {
			if strings.EqualFold(c.Tier, tier) {
				out = append(out, c)
			}
		}
	}
	return out
}

// Resolver picks the image of an element from its entity type.
type Resolver struct {
	// Tiers maps an entity type to its preferred tiers.
	Tiers map[string][]string
	// Fallback is used for entity types missing from Tiers.
	Fallback []string
	// Aspect narrows candidates to one aspect ratio when any candidate has it.
	Aspect string
}

// DefaultResolver returns the per-entity tier preferences used for guide elements.
func DefaultResolver(aspect string) Resolver {
	return Resolver{
		Tiers: map[string][]string{
			models.EntitySports:  {TierTeamEvent, TierSportEvent},
			models.EntityEpisode: {TierEpisode, TierSeason, TierSeries},
			models.EntityShow:    {TierSeries},
			models.EntityMovie:   {TierMovie, TierBanner},
		},
		Fallback: []string{TierSeries, TierEpisode, TierMovie, TierBanner},
		Aspect:   aspect,
	}
}

// TiersFor returns the preferred tiers of an entity type.
func (r Resolver) TiersFor(entityType string) []string {
	if tiers, ok := r.Tiers[entityType]; ok {
		return tiers
	}
	return r.Fallback
}

// For resolves the image of an element of the given entity type.
func (r Resolver) For(entityType string, candidates []models.ArtworkCandidate) (models.ArtworkCandidate, bool) {
	tiers := r.TiersFor(entityType)
	if r.Aspect != "" {
		var narrowed []models.ArtworkCandidate
		for _, c := range candidates {
			if strings.EqualFold(c.Aspect, r.Aspect) {
				narrowed = append(narrowed, c)
			}
		}
		if c, ok := Resolve(narrowed, tiers); ok {
			return c, true
		}
	}
	return Resolve(candidates, tiers)
}
