package planning

import (
	"fmt"
	"strings"
)

const jsonOnly = "Respond with JSON only. Do not wrap the JSON in markdown and do not add any commentary."

// tripContext renders the traveler/destination/preferences triple shared by every prompt.
func tripContext(r *TripRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s", r.Destination.Name)
	if r.Destination.Country != "" {
		fmt.Fprintf(&b, ", %s", r.Destination.Country)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Traveler type: %s", r.TravelerType.Name)
	if r.TravelerType.Description != "" {
		fmt.Fprintf(&b, " (%s)", r.TravelerType.Description)
	}
	b.WriteString("\n")
	b.WriteString(preferencesBlock(r.Preferences))
	return b.String()
}

func preferencesBlock(p *TripPreferences) string {
	if p == nil {
		return "Preferences: none given\n"
	}
	var b strings.Builder
	b.WriteString("Preferences:\n")
	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	line("Duration", p.Duration)
	line("Budget", p.Budget)
	line("Accommodation", p.Accommodation)
	line("Transportation", p.Transportation)
	line("Activity level", p.ActivityLevel)
	line("Group size", p.GroupSize)
	line("Travel dates", p.TravelDates)
	line("Interests", strings.Join(p.Interests, ", "))
	line("Dietary restrictions", strings.Join(p.DietaryRestrictions, ", "))
	line("Special requests", p.SpecialRequests)
	return b.String()
}

func sectionPrompt(r *TripRequest, task, template string) string {
	return fmt.Sprintf(`You are planning one section of a personalized trip.

%s
Task: %s

Return a JSON object with exactly this structure:
%s

%s`, tripContext(r), task, template, jsonOnly)
}

// LocationsPrompt asks for neighborhoods and hotels (section 1).
func LocationsPrompt(r *TripRequest) string {
	return sectionPrompt(r,
		"Recommend 3-4 neighborhoods to stay in and 3-4 hotels that fit this traveler's budget and style.",
		`{
  "neighborhoods": [
    {
      "name": "string",
      "description": "string",
      "bestFor": "string",
      "walkabilityScore": 0,
      "priceLevel": "budget | moderate | luxury",
      "highlights": ["string"]
    }
  ],
  "hotelRecommendations": [
    {
      "name": "string",
      "neighborhood": "string",
      "priceRange": "string",
      "description": "string",
      "amenities": ["string"],
      "bookingTip": "string"
    }
  ]
}`)
}

// FoodPrompt asks for restaurants, dishes and attractions (section 2).
func FoodPrompt(r *TripRequest) string {
	return sectionPrompt(r,
		"Recommend 4-6 restaurants, 4-5 local dishes to try and 4-6 top attractions. Respect any dietary restrictions.",
		`{
  "restaurants": [
    {
      "name": "string",
      "cuisine": "string",
      "neighborhood": "string",
      "priceRange": "$ | $$ | $$$ | $$$$",
      "description": "string",
      "specialties": ["string"]
    }
  ],
  "mustTryFoods": [
    {
      "name": "string",
      "description": "string",
      "whereToFind": "string",
      "priceRange": "string"
    }
  ],
  "topAttractions": [
    {
      "name": "string",
      "description": "string",
      "category": "string",
      "duration": "string",
      "cost": "string"
    }
  ]
}`)
}

// PracticalPrompt asks for transport, money, safety and packing (section 3).
func PracticalPrompt(r *TripRequest) string {
	return sectionPrompt(r,
		"Give practical travel information: how to get there and around, a daily budget breakdown, safety advice and a packing list.",
		`{
  "transportation": {
    "gettingThere": "string",
    "gettingAround": "string",
    "localTransport": ["string"]
  },
  "budget": {
    "currency": "string",
    "accommodation": "string",
    "food": "string",
    "activities": "string",
    "transportation": "string",
    "dailyTotal": "string"
  },
  "safety": ["string"],
  "packingList": ["string"],
  "emergencyNumbers": {
    "police": "string",
    "ambulance": "string"
  }
}`)
}

// CulturalPrompt asks for etiquette, an itinerary and hidden gems (section 4).
func CulturalPrompt(r *TripRequest) string {
	days := "each day of the trip"
	if r.Preferences != nil && r.Preferences.Duration != "" {
		days = "each day of the " + r.Preferences.Duration + " trip"
	}
	return sectionPrompt(r,
		"Explain local etiquette and customs, give a day-by-day itinerary for "+days+" and list 3-5 hidden gems.",
		`{
  "culturalInsights": {
    "etiquette": ["string"],
    "localCustoms": ["string"],
    "language": {
      "basicPhrases": [
        {"phrase": "string", "meaning": "string"}
      ]
    }
  },
  "itinerary": [
    {
      "day": 1,
      "title": "string",
      "morning": "string",
      "afternoon": "string",
      "evening": "string"
    }
  ],
  "hiddenGems": [
    {"name": "string", "description": "string", "whyVisit": "string"}
  ]
}`)
}

// TripPlanPrompt asks for the whole plan in one response.
func TripPlanPrompt(r *TripRequest) string {
	return fmt.Sprintf(`You are an expert travel planner creating a complete, personalized trip plan.

%s
Return a JSON object with exactly this structure:
{
  "plan": {
    "destination": "string",
    "overview": "string",
    "neighborhoods": [{"name": "string", "description": "string", "bestFor": "string"}],
    "hotelRecommendations": [{"name": "string", "neighborhood": "string", "priceRange": "string", "description": "string"}],
    "restaurants": [{"name": "string", "cuisine": "string", "priceRange": "string", "description": "string"}],
    "mustTryFoods": [{"name": "string", "description": "string"}],
    "topAttractions": [{"name": "string", "description": "string", "duration": "string"}],
    "itinerary": [{"day": 1, "title": "string", "morning": "string", "afternoon": "string", "evening": "string"}],
    "practicalInfo": {"gettingAround": "string", "dailyBudget": "string", "safety": ["string"], "packingList": ["string"]},
    "culturalInsights": {"etiquette": ["string"], "localCustoms": ["string"]}
  },
  "reasoning": "string explaining why this plan fits the traveler",
  "confidence": 0.0,
  "personalizations": ["string"]
}

%s`, tripContext(r), jsonOnly)
}

// ManifestPrompt asks for a short overview and teaser lists.
func ManifestPrompt(r *TripRequest) string {
	return fmt.Sprintf(`Give a quick preview of a trip. Keep it short: the full plan is generated separately.

%s
Return a JSON object with exactly this structure:
{
  "overview": "2-3 sentence summary of the trip",
  "quickRecommendations": {
    "topAttractions": ["string", "string", "string"],
    "mustTryFoods": ["string", "string", "string"],
    "neighborhoods": ["string", "string"]
  }
}

%s`, tripContext(r), jsonOnly)
}

// DestinationsPrompt asks for 2-3 destination ideas for a traveler.
func DestinationsPrompt(r *DestinationRequest, tt TravelerType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend 2-3 travel destinations for a %s (%s).\n", tt.Name, tt.Description)
	b.WriteString(preferencesBlock(r.Preferences))
	switch strings.ToLower(r.DestinationKnowledge) {
	case "yes":
		if r.KnownDestination != "" {
			fmt.Fprintf(&b, "The traveler is already considering %s. Include it first if it fits, then similar alternatives.\n", r.KnownDestination)
		}
	case "no":
		b.WriteString("The traveler has no destination in mind; suggest varied options.\n")
	default:
		b.WriteString("The traveler is open to suggestions.\n")
	}
	fmt.Fprintf(&b, `
Return a JSON object with exactly this structure:
{
  "destinations": [
    {
      "name": "string",
      "country": "string",
      "description": "string",
      "bestTimeToVisit": "string",
      "keyActivities": "comma-separated string",
      "matchReason": "string",
      "estimatedCost": "string, e.g. $100-150 per day",
      "details": "string"
    }
  ],
  "reasoning": "string",
  "confidence": 0.0
}

%s`, jsonOnly)
	return b.String()
}
