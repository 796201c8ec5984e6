package planning

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"voyage/internal/ai"
)

// Tasks served by the mock provider besides the per-section chunk tasks.
const (
	TaskDestinations = "destinations"
	TaskTripPlan     = "trip_plan"
	TaskManifest     = "manifest"
)

// MockProvider answers every prompt with synthesized JSON after a random delay.
// It is used when no provider credentials are configured.
type MockProvider struct {
	maxDelay time.Duration
}

func NewMockProvider(maxDelay time.Duration) *MockProvider {
	return &MockProvider{maxDelay: maxDelay}
}

func (m *MockProvider) Name() string  { return "mock" }
func (m *MockProvider) Model() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, req ai.Request) (string, error) {
	if m.maxDelay > 0 {
		delay := time.Duration(rand.Int63n(int64(m.maxDelay)))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	var payload any
	switch req.Task {
	case TaskDestinations:
		payload = mockDestinations(req.Meta["travelerType"])
	case TaskTripPlan:
		payload = mockTripPlan(requestFromMeta(req.Meta))
	case TaskManifest:
		payload = mockManifestBody(requestFromMeta(req.Meta))
	default:
		sec, ok := sectionForTask(req.Task)
		if !ok {
			return "", fmt.Errorf("mock: unknown task %q", req.Task)
		}
		payload = sec.mock(requestFromMeta(req.Meta))
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mock: marshal: %w", err)
	}
	return string(b), nil
}

func sectionForTask(task string) (Section, bool) {
	for _, s := range Sections {
		if s.Task() == task {
			return s, true
		}
	}
	return Section{}, false
}

func requestFromMeta(meta map[string]string) *TripRequest {
	tt, ok := LookupTravelerType(meta["travelerType"])
	if !ok {
		tt = travelerTypes[0]
	}
	name := meta["destination"]
	if name == "" {
		name = "Lisbon"
	}
	return &TripRequest{
		Destination:  &Destination{Name: name, Country: meta["country"]},
		TravelerType: &tt,
		Preferences:  &TripPreferences{Duration: meta["duration"]},
	}
}

// mockDestinations picks 2-3 catalog destinations suited to the traveler type.
func mockDestinations(travelerType string) DestinationsResponse {
	tt, ok := LookupTravelerType(travelerType)
	if !ok {
		tt = travelerTypes[0]
	}
	pool := destinationsFor(tt.ID)
	if len(pool) < 2 {
		pool = destinations
	}
	pool = append([]catalogEntry(nil), pool...)
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := 2 + rand.Intn(2)
	if n > len(pool) {
		n = len(pool)
	}

	recs := make([]DestinationRecommendation, 0, n)
	for _, d := range pool[:n] {
		recs = append(recs, DestinationRecommendation{
			Name:            d.Name,
			Country:         d.Country,
			Description:     d.Description,
			BestTimeToVisit: flexString(d.BestTime),
			KeyActivities:   flexString(strings.Join(d.activities, ", ")),
			MatchReason:     fmt.Sprintf("%s suits a %s: %s.", d.Name, strings.ToLower(tt.Name), strings.ToLower(tt.Description)),
			EstimatedCost:   flexString(d.cost),
			Details:         fmt.Sprintf("Base yourself near %s and plan at least one day for %s.", d.Highlights[0], d.activities[0]),
		})
	}
	return DestinationsResponse{
		Destinations: recs,
		Reasoning:    fmt.Sprintf("Picked destinations known for what a %s enjoys most.", strings.ToLower(tt.Name)),
		Confidence:   0.8 + rand.Float64()*0.15,
		Source:       SourceFallback,
	}
}

// highlightsFor returns catalog highlights or generic district names.
func highlightsFor(r *TripRequest) []string {
	for _, d := range destinations {
		if strings.EqualFold(d.Name, r.Destination.Name) {
			return d.Highlights
		}
	}
	return []string{"Old Town", "City Center", "Waterfront"}
}

func mockLocations(r *TripRequest) map[string]any {
	name := r.Destination.Name
	hl := highlightsFor(r)
	hoods := make([]any, 0, len(hl))
	hotels := make([]any, 0, len(hl))
	prices := []string{"budget", "moderate", "luxury"}
	for i, h := range hl {
		hoods = append(hoods, map[string]any{
			"name":             h,
			"description":      fmt.Sprintf("A lively part of %s around %s.", name, h),
			"bestFor":          r.TravelerType.Name,
			"walkabilityScore": 7 + i%3,
			"priceLevel":       prices[i%len(prices)],
			"highlights":       []string{h, "local cafes", "evening strolls"},
		})
		hotels = append(hotels, map[string]any{
			"name":         fmt.Sprintf("%s %s Hotel", name, h),
			"neighborhood": h,
			"priceRange":   []string{"$80-120", "$140-220", "$260-400"}[i%3],
			"description":  fmt.Sprintf("Comfortable base a short walk from %s.", h),
			"amenities":    []string{"free wifi", "breakfast", "24h reception"},
			"bookingTip":   "Book at least four weeks ahead for weekend stays.",
		})
	}
	return map[string]any{"neighborhoods": hoods, "hotelRecommendations": hotels}
}

func mockFood(r *TripRequest) map[string]any {
	name := r.Destination.Name
	hl := highlightsFor(r)
	restaurants := []any{
		map[string]any{"name": "Casa " + name, "cuisine": "Local", "neighborhood": hl[0], "priceRange": "$$",
			"description": "Family-run spot serving regional classics.", "specialties": []string{"house stew", "seasonal dessert"}},
		map[string]any{"name": name + " Market Hall", "cuisine": "Street food", "neighborhood": hl[len(hl)-1], "priceRange": "$",
			"description": "Dozens of stalls under one roof.", "specialties": []string{"grilled skewers", "fresh juice"}},
		map[string]any{"name": "The " + name + " Table", "cuisine": "Modern", "neighborhood": hl[0], "priceRange": "$$$",
			"description": "Tasting menu built on local producers.", "specialties": []string{"chef's tasting menu"}},
	}
	foods := []any{
		map[string]any{"name": "Signature street snack", "description": "The snack every local grew up on.", "whereToFind": name + " Market Hall", "priceRange": "$2-5"},
		map[string]any{"name": "Regional stew", "description": "Slow-cooked and served with bread.", "whereToFind": "Casa " + name, "priceRange": "$10-15"},
		map[string]any{"name": "Local pastry", "description": "Best eaten warm in the morning.", "whereToFind": "Neighborhood bakeries", "priceRange": "$1-3"},
	}
	attractions := make([]any, 0, len(hl))
	for _, h := range hl {
		attractions = append(attractions, map[string]any{
			"name": h, "description": fmt.Sprintf("One of the defining sights of %s.", name),
			"category": "sightseeing", "duration": "2-3 hours", "cost": "varies",
		})
	}
	return map[string]any{"restaurants": restaurants, "mustTryFoods": foods, "topAttractions": attractions}
}

func mockPractical(r *TripRequest) map[string]any {
	name := r.Destination.Name
	return map[string]any{
		"transportation": map[string]any{
			"gettingThere":   fmt.Sprintf("Fly into the main international airport serving %s and take the airport rail link or a taxi.", name),
			"gettingAround":  "Walk the central districts and use public transport for longer hops.",
			"localTransport": []string{"metro", "buses", "taxis", "bike share"},
		},
		"budget": map[string]any{
			"currency":       "local currency",
			"accommodation":  "$60-200 per night",
			"food":           "$30-70 per day",
			"activities":     "$20-60 per day",
			"transportation": "$5-15 per day",
			"dailyTotal":     "$115-345",
		},
		"safety":      []string{"Watch for pickpockets in crowded areas", "Use licensed taxis or ride-hailing apps", "Keep digital copies of your documents"},
		"packingList": []string{"comfortable walking shoes", "universal power adapter", "light rain jacket", "reusable water bottle"},
		"emergencyNumbers": map[string]any{
			"police":    "112",
			"ambulance": "112",
		},
	}
}

func mockCultural(r *TripRequest) map[string]any {
	name := r.Destination.Name
	hl := highlightsFor(r)
	days := durationDays(r.Preferences)
	itinerary := make([]any, 0, days)
	for d := 1; d <= days; d++ {
		h := hl[(d-1)%len(hl)]
		itinerary = append(itinerary, map[string]any{
			"day":       d,
			"title":     fmt.Sprintf("Day %d: %s", d, h),
			"morning":   fmt.Sprintf("Explore %s before the crowds arrive.", h),
			"afternoon": "Lunch at a local spot, then a museum or market.",
			"evening":   fmt.Sprintf("Dinner and a stroll through %s.", hl[d%len(hl)]),
		})
	}
	return map[string]any{
		"culturalInsights": map[string]any{
			"etiquette":    []string{"Greet shopkeepers when entering", "Dress modestly at religious sites"},
			"localCustoms": []string{fmt.Sprintf("Meals in %s tend to run late and unhurried", name)},
			"language": map[string]any{
				"basicPhrases": []any{
					map[string]any{"phrase": "Hello", "meaning": "Greeting"},
					map[string]any{"phrase": "Thank you", "meaning": "Gratitude"},
				},
			},
		},
		"itinerary": itinerary,
		"hiddenGems": []any{
			map[string]any{"name": "Neighborhood viewpoint", "description": "A quiet lookout locals use at sunset.", "whyVisit": "Best free view in " + name},
			map[string]any{"name": "Morning market", "description": "Produce and breakfast stalls.", "whyVisit": "See daily life up close"},
		},
	}
}

// durationDays reads a leading number of days from the free-text duration, 3 by default.
func durationDays(p *TripPreferences) int {
	if p == nil {
		return 3
	}
	fields := strings.Fields(p.Duration)
	if len(fields) == 0 {
		return 3
	}
	n, err := strconv.Atoi(strings.Split(fields[0], "-")[0])
	if err != nil || n < 1 {
		return 3
	}
	if n > 14 {
		n = 14
	}
	return n
}

func mockTripPlan(r *TripRequest) TripPlanResponse {
	loc := mockLocations(r)
	food := mockFood(r)
	prac := mockPractical(r)
	cult := mockCultural(r)
	plan := map[string]any{
		"destination":          r.Destination.Name,
		"overview":             mockOverview(r),
		"neighborhoods":        loc["neighborhoods"],
		"hotelRecommendations": loc["hotelRecommendations"],
		"restaurants":          food["restaurants"],
		"mustTryFoods":         food["mustTryFoods"],
		"topAttractions":       food["topAttractions"],
		"itinerary":            cult["itinerary"],
		"practicalInfo":        prac,
		"culturalInsights":     cult["culturalInsights"],
	}
	return TripPlanResponse{
		Plan:       plan,
		Reasoning:  fmt.Sprintf("Built around what a %s looks for in %s.", strings.ToLower(r.TravelerType.Name), r.Destination.Name),
		Confidence: 0.8 + rand.Float64()*0.15,
		Personalizations: []string{
			"Neighborhoods chosen for " + strings.ToLower(r.TravelerType.Name) + "s",
			"Itinerary paced for the requested trip length",
		},
		Source: SourceFallback,
	}
}

func mockOverview(r *TripRequest) string {
	return fmt.Sprintf("%s is a great match for a %s. Expect a mix of signature sights, local food and time to wander.",
		r.Destination.Name, strings.ToLower(r.TravelerType.Name))
}

type manifestBody struct {
	Overview             string               `json:"overview"`
	QuickRecommendations QuickRecommendations `json:"quickRecommendations"`
}

func mockManifestBody(r *TripRequest) manifestBody {
	hl := highlightsFor(r)
	return manifestBody{
		Overview: mockOverview(r),
		QuickRecommendations: QuickRecommendations{
			TopAttractions: hl,
			MustTryFoods:   []string{"Signature street snack", "Regional stew", "Local pastry"},
			Neighborhoods:  hl[:2],
		},
	}
}
