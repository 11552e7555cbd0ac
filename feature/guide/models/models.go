package models

import (
	"encoding/json"
	"sort"
	"time"
)

// PlaceholderServiceID is the identifier of the synthetic service appended to every document.
const PlaceholderServiceID = "DUMMY"

// PlaceholderServiceName is the display name of the synthetic service.
const PlaceholderServiceName = "DUMMY Station"

// Service is a channel/station of the lineup.
type Service struct {
	ID          string `json:"stationID"`
	CallSign    string `json:"callsign"`
	Name        string `json:"name"`
	Affiliate   string `json:"affiliate,omitempty"`
	LogoURI     string `json:"logo,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// PlaceholderService returns the synthetic default mapping target.
func PlaceholderService() Service {
	return Service{
		ID:          PlaceholderServiceID,
		CallSign:    PlaceholderServiceID,
		Name:        PlaceholderServiceName,
		Placeholder: true,
	}
}

// ArtworkCandidate is one image offered for an element.
type ArtworkCandidate struct {
	Tier     string `json:"tier"`
	URI      string `json:"uri"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Aspect   string `json:"aspect,omitempty"`
	Size     string `json:"size,omitempty"`
	Category string `json:"category,omitempty"`
}

// CacheEntry is the durable record for one element.
type CacheEntry struct {
	Key      string             `json:"key"`
	Hash     string             `json:"hash"`
	Payload  json.RawMessage    `json:"payload,omitempty"`
	Images   []ArtworkCandidate `json:"images,omitempty"`
	LastSeen time.Time          `json:"lastSeen"`
}

// ContentHash returns the hash of the stored payload.
func (e CacheEntry) ContentHash() string { return e.Hash }

// HasPayload reports whether a non-empty JSON payload is stored.
func (e CacheEntry) HasPayload() bool {
	if len(e.Payload) == 0 {
		return false
	}
	switch string(e.Payload) {
	case "null", "{}", `""`:
		return false
	}
	return true
}

// HasImages reports whether artwork candidates are stored.
func (e CacheEntry) HasImages() bool { return len(e.Images) > 0 }

// FetchResponse is one element returned by a batch call.
// Data is nil when the element was requested but not delivered.
type FetchResponse struct {
	Key  string          `json:"key"`
	Hash string          `json:"hash,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Miss reports whether the response carries no data.
func (r FetchResponse) Miss() bool { return len(r.Data) == 0 }

// Entity types carried in program payloads.
const (
	EntityShow    = "Show"
	EntityEpisode = "Episode"
	EntitySports  = "Sports"
	EntityMovie   = "Movie"
)

// Title is a program title.
type Title struct {
	Title120 string `json:"title120"`
}

// Description is a program description of a given length.
type Description struct {
	Language string `json:"descriptionLanguage,omitempty"`
	Text     string `json:"description"`
}

// Descriptions groups the short and long descriptions of a program.
type Descriptions struct {
	Description100  []Description `json:"description100,omitempty"`
	Description1000 []Description `json:"description1000,omitempty"`
}

// Airing places a program on a service at a time.
type Airing struct {
	StationID   string    `json:"stationID"`
	AirDateTime time.Time `json:"airDateTime"`
	Duration    int       `json:"duration"`
}

// Program is the decoded form of a cached payload.
type Program struct {
	ProgramID       string        `json:"programID"`
	Titles          []Title       `json:"titles"`
	EpisodeTitle    string        `json:"episodeTitle150,omitempty"`
	Descriptions    *Descriptions `json:"descriptions,omitempty"`
	EntityType      string        `json:"entityType,omitempty"`
	SeriesID        string        `json:"seriesID,omitempty"`
	Genres          []string      `json:"genres,omitempty"`
	OriginalAirDate string        `json:"originalAirDate,omitempty"`
	Airings         []Airing      `json:"airings,omitempty"`
}

// Title returns the first title, or an empty string.
func (p Program) Title() string {
	if len(p.Titles) == 0 {
		return ""
	}
	return p.Titles[0].Title120
}

// Description returns the longest description available.
func (p Program) Description() string {
	if p.Descriptions == nil {
		return ""
	}
	if len(p.Descriptions.Description1000) > 0 {
		return p.Descriptions.Description1000[0].Text
	}
	if len(p.Descriptions.Description100) > 0 {
		return p.Descriptions.Description100[0].Text
	}
	return ""
}

// Element is a resolved guide item of the document.
type Element struct {
	ID           string            `json:"id"`
	Hash         string            `json:"hash"`
	Title        string            `json:"title"`
	EpisodeTitle string            `json:"episodeTitle,omitempty"`
	Description  string            `json:"description,omitempty"`
	EntityType   string            `json:"entityType,omitempty"`
	SeriesID     string            `json:"seriesID,omitempty"`
	Genres       []string          `json:"genres,omitempty"`
	Airings      []Airing          `json:"airings,omitempty"`
	Image        *ArtworkCandidate `json:"image,omitempty"`
	Fresh        bool              `json:"fresh"`
	Payload      json.RawMessage   `json:"-"`
}

// Summary holds the document counts.
type Summary struct {
	Services   int `json:"services"`
	Elements   int `json:"elements"`
	ImageLinks int `json:"imageLinks"`
}

// Document is the assembled guide. It must not be mutated after assembly.
type Document struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Services    []Service `json:"services"`
	Elements    []Element `json:"elements"`
	Summary     Summary   `json:"summary"`
}

// Service returns the service with the given id.
func (d *Document) Service(id string) (Service, bool) {
	i := sort.Search(len(d.Services), func(i int) bool { return d.Services[i].ID >= id })
	if i < len(d.Services) && d.Services[i].ID == id {
		return d.Services[i], true
	}
	// The placeholder is appended after the sorted services
	for _, s := range d.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Element returns the element with the given id.
func (d *Document) Element(id string) (Element, bool) {
	i := sort.Search(len(d.Elements), func(i int) bool { return d.Elements[i].ID >= id })
	if i < len(d.Elements) && d.Elements[i].ID == id {
		return d.Elements[i], true
	}
	return Element{}, false
}

// Progress is a snapshot of the run counters.
type Progress struct {
	RunID     string `json:"runId,omitempty"`
	Stage     int    `json:"stage"`
	StageName string `json:"stageName"`
	Processed int64  `json:"processed"`
	Total     int64  `json:"total"`
}
