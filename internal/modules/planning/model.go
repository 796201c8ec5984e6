// README: Trip-planning data shapes, section table and sentinel errors.
package planning

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrInvalidChunk      = errors.New("invalid chunk id")
	ErrUnknownTraveler   = errors.New("unknown traveler type")
	ErrShapeMismatch     = errors.New("response does not match the expected shape")
	ErrStreamUnsupported = errors.New("provider does not support streaming")
)

// Source tells the client whether data came from the model or from mock substitution.
const (
	SourceAI       = "ai"
	SourceMock     = "mock"
	SourceFallback = "fallback"
)

type TravelerType struct {
	ID          string `json:"id" binding:"required,travelertype"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Destination struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" binding:"required"`
	Country     string   `json:"country"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	BestTime    string   `json:"bestTime,omitempty"`
	Budget      string   `json:"budget,omitempty"`
}

type TripPreferences struct {
	Duration            string   `json:"duration,omitempty"`
	Budget              string   `json:"budget,omitempty"`
	Accommodation       string   `json:"accommodation,omitempty"`
	Transportation      string   `json:"transportation,omitempty"`
	ActivityLevel       string   `json:"activityLevel,omitempty"`
	GroupSize           string   `json:"groupSize,omitempty"`
	TravelDates         string   `json:"travelDates,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	SpecialRequests     string   `json:"specialRequests,omitempty"`
}

// TripRequest is the payload shared by the plan, manifest, chunked and stream endpoints.
type TripRequest struct {
	Destination  *Destination     `json:"destination" binding:"required"`
	TravelerType *TravelerType    `json:"travelerType" binding:"required"`
	Preferences  *TripPreferences `json:"preferences" binding:"required"`
	// Chunk may also arrive as the ?chunk= query parameter, which wins.
	Chunk *json.RawMessage `json:"chunk,omitempty"`
}

// Validate enforces the required fields without relying on the HTTP binding layer.
func (r *TripRequest) Validate() error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: empty request", ErrBadRequest)
	case r.Destination == nil || strings.TrimSpace(r.Destination.Name) == "":
		return fmt.Errorf("%w: destination is required", ErrBadRequest)
	case r.TravelerType == nil || strings.TrimSpace(r.TravelerType.ID) == "":
		return fmt.Errorf("%w: travelerType is required", ErrBadRequest)
	case r.Preferences == nil:
		return fmt.Errorf("%w: preferences are required", ErrBadRequest)
	}
	if _, ok := LookupTravelerType(r.TravelerType.ID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTraveler, r.TravelerType.ID)
	}
	return nil
}

// normalize fills catalog data into the traveler type and destination.
func (r *TripRequest) normalize() {
	if tt, ok := LookupTravelerType(r.TravelerType.ID); ok {
		if r.TravelerType.Name == "" {
			r.TravelerType.Name = tt.Name
		}
		if r.TravelerType.Description == "" {
			r.TravelerType.Description = tt.Description
		}
	}
	resolved := ResolveDestination(r.Destination.Name, r.Destination.Country)
	if r.Destination.ID == "" {
		r.Destination.ID = resolved.ID
	}
	if r.Destination.Country == "" {
		r.Destination.Country = resolved.Country
	}
}

// meta is what the mock provider needs to synthesize section data.
func (r *TripRequest) meta() map[string]string {
	return map[string]string{
		"destination":  r.Destination.Name,
		"country":      r.Destination.Country,
		"travelerType": r.TravelerType.ID,
		"duration":     r.Preferences.Duration,
	}
}

// Section is one independently prompted slice of a trip plan.
type Section struct {
	ID           int      `json:"chunkId"`
	Name         string   `json:"section"`
	Description  string   `json:"description"`
	RequiredKeys []string `json:"-"`
	prompt       func(*TripRequest) string
	mock         func(*TripRequest) map[string]any
}

// TotalChunks is the fixed number of plan sections.
const TotalChunks = 4

// Sections lists the plan sections in chunk order.
var Sections = []Section{
	{
		ID:           1,
		Name:         "locations",
		Description:  "Neighborhoods to stay in and hotel recommendations",
		RequiredKeys: []string{"neighborhoods", "hotelRecommendations"},
		prompt:       LocationsPrompt,
		mock:         mockLocations,
	},
	{
		ID:           2,
		Name:         "food",
		Description:  "Restaurants, must-try dishes and top attractions",
		RequiredKeys: []string{"restaurants", "mustTryFoods", "topAttractions"},
		prompt:       FoodPrompt,
		mock:         mockFood,
	},
	{
		ID:           3,
		Name:         "practical",
		Description:  "Getting around, budget, safety and packing",
		RequiredKeys: []string{"transportation", "budget", "safety", "packingList"},
		prompt:       PracticalPrompt,
		mock:         mockPractical,
	},
	{
		ID:           4,
		Name:         "cultural",
		Description:  "Cultural insights, day-by-day itinerary and hidden gems",
		RequiredKeys: []string{"culturalInsights", "itinerary", "hiddenGems"},
		prompt:       CulturalPrompt,
		mock:         mockCultural,
	},
}

// ValidChunkIDs is echoed back to clients that ask for an unknown chunk.
func ValidChunkIDs() []int {
	ids := make([]int, len(Sections))
	for i, s := range Sections {
		ids[i] = s.ID
	}
	return ids
}

func SectionByID(id int) (Section, error) {
	for _, s := range Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("%w: %d", ErrInvalidChunk, id)
}

// Task names the provider call for logs, metrics and the mock provider.
func (s Section) Task() string { return "chunk_" + s.Name }

// ChunkMeta tags a chunk result.
type ChunkMeta struct {
	ChunkID     int    `json:"chunkId"`
	TotalChunks int    `json:"totalChunks"`
	Section     string `json:"section"`
	Description string `json:"description"`
}

func (s Section) meta() ChunkMeta {
	return ChunkMeta{ChunkID: s.ID, TotalChunks: TotalChunks, Section: s.Name, Description: s.Description}
}

type ChunkResult struct {
	Chunk ChunkMeta      `json:"chunk"`
	Data  map[string]any `json:"data"`
	// IsComplete is always false; callers track completion across all sections.
	IsComplete bool `json:"isComplete"`
}

// SectionList is returned by the chunked endpoint when no chunk id is given.
type SectionList struct {
	TotalChunks int         `json:"totalChunks"`
	Chunks      []ChunkMeta `json:"chunks"`
}

type ManifestSection struct {
	ChunkMeta
	Status string `json:"status"`
}

type QuickRecommendations struct {
	TopAttractions []string `json:"topAttractions"`
	MustTryFoods   []string `json:"mustTryFoods"`
	Neighborhoods  []string `json:"neighborhoods"`
}

type Manifest struct {
	SessionID            string               `json:"sessionId"`
	Overview             string               `json:"overview"`
	Sections             []ManifestSection    `json:"sections"`
	QuickRecommendations QuickRecommendations `json:"quickRecommendations"`
	Source               string               `json:"source"`
}

// DestinationRequest asks for destination ideas.
type DestinationRequest struct {
	TravelerType *TravelerType    `json:"travelerType" binding:"required"`
	Preferences  *TripPreferences `json:"preferences"`
	// DestinationKnowledge is "yes" when the traveler already has a place in mind
	// (named in KnownDestination), "no" or "unsure" otherwise.
	DestinationKnowledge string `json:"destinationKnowledge"`
	KnownDestination     string `json:"knownDestination,omitempty"`
}

func (r *DestinationRequest) Validate() error {
	if r == nil || r.TravelerType == nil || strings.TrimSpace(r.TravelerType.ID) == "" {
		return fmt.Errorf("%w: travelerType is required", ErrBadRequest)
	}
	if _, ok := LookupTravelerType(r.TravelerType.ID); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTraveler, r.TravelerType.ID)
	}
	return nil
}

type DestinationRecommendation struct {
	Name            string     `json:"name"`
	Country         string     `json:"country"`
	Description     string     `json:"description"`
	BestTimeToVisit flexString `json:"bestTimeToVisit"`
	KeyActivities   flexString `json:"keyActivities"`
	MatchReason     string     `json:"matchReason"`
	EstimatedCost   flexString `json:"estimatedCost"`
	Details         string     `json:"details"`
}

func (d DestinationRecommendation) complete() bool {
	return d.Name != "" && d.Country != "" && d.Description != "" &&
		d.BestTimeToVisit != "" && d.KeyActivities != "" && d.MatchReason != "" &&
		d.EstimatedCost != "" && d.Details != ""
}

type DestinationsResponse struct {
	Destinations []DestinationRecommendation `json:"destinations"`
	Reasoning    string                      `json:"reasoning"`
	Confidence   float64                     `json:"confidence"`
	Source       string                      `json:"source"`
}

type TripPlanResponse struct {
	Plan             map[string]any `json:"plan"`
	Reasoning        string         `json:"reasoning"`
	Confidence       float64        `json:"confidence"`
	Personalizations []string       `json:"personalizations"`
	Source           string         `json:"source"`
}

// flexString accepts a JSON string, number or array of strings; models are not
// consistent about which one they emit for list-like fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = flexString(strings.Join(list, ", "))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}
	return fmt.Errorf("cannot decode %s into a string", b)
}
