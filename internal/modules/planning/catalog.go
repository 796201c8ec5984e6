package planning

import (
	"regexp"
	"strings"
)

var travelerTypes = []TravelerType{
	{ID: "culture", Name: "Culture Seeker", Description: "Museums, history, architecture and local traditions"},
	{ID: "adventure", Name: "Adventure Traveler", Description: "Hiking, outdoor sports and off-the-beaten-path experiences"},
	{ID: "relaxation", Name: "Relaxation Traveler", Description: "Beaches, spas, slow mornings and scenic views"},
	{ID: "foodie", Name: "Food Explorer", Description: "Markets, street food, cooking classes and memorable restaurants"},
	{ID: "family", Name: "Family Traveler", Description: "Kid-friendly activities, easy logistics and safe neighborhoods"},
	{ID: "budget", Name: "Budget Backpacker", Description: "Hostels, free sights, public transport and cheap eats"},
}

// TravelerTypes returns the closed set of traveler personas.
func TravelerTypes() []TravelerType {
	out := make([]TravelerType, len(travelerTypes))
	copy(out, travelerTypes)
	return out
}

func TravelerTypeIDs() []string {
	ids := make([]string, len(travelerTypes))
	for i, t := range travelerTypes {
		ids[i] = t.ID
	}
	return ids
}

func LookupTravelerType(id string) (TravelerType, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, t := range travelerTypes {
		if t.ID == id {
			return t, true
		}
	}
	return TravelerType{}, false
}

// catalogEntry is a well-known destination plus the personas it suits.
type catalogEntry struct {
	Destination
	suits      []string
	activities []string
	cost       string
}

var destinations = []catalogEntry{
	{
		Destination: Destination{ID: "kyoto-japan", Name: "Kyoto", Country: "Japan",
			Description: "Former imperial capital with over a thousand temples, wooden machiya townhouses and seasonal gardens.",
			Highlights:  []string{"Fushimi Inari Taisha", "Gion", "Arashiyama Bamboo Grove"},
			BestTime:    "March to May and October to November", Budget: "moderate"},
		suits:      []string{"culture", "foodie", "relaxation"},
		activities: []string{"temple hopping at dawn", "tea ceremony in Uji", "kaiseki dinner", "evening walk through Gion"},
		cost:       "$150-250 per day",
	},
	{
		Destination: Destination{ID: "rome-italy", Name: "Rome", Country: "Italy",
			Description: "Layers of ancient, Renaissance and baroque history packed into walkable piazzas.",
			Highlights:  []string{"Colosseum", "Vatican Museums", "Trastevere"},
			BestTime:    "April to June and September to October", Budget: "moderate"},
		suits:      []string{"culture", "foodie", "family"},
		activities: []string{"Colosseum underground tour", "Vatican Museums early entry", "carbonara crawl in Testaccio", "Appian Way bike ride"},
		cost:       "$140-230 per day",
	},
	{
		Destination: Destination{ID: "istanbul-turkey", Name: "Istanbul", Country: "Turkey",
			Description: "A city on two continents where Byzantine mosaics meet Ottoman bazaars.",
			Highlights:  []string{"Hagia Sophia", "Grand Bazaar", "Bosphorus"},
			BestTime:    "April to May and September to November", Budget: "budget"},
		suits:      []string{"culture", "foodie", "budget"},
		activities: []string{"Hagia Sophia and Topkapi Palace", "Bosphorus ferry at sunset", "meze tasting in Kadikoy", "hammam visit"},
		cost:       "$70-130 per day",
	},
	{
		Destination: Destination{ID: "mexico-city-mexico", Name: "Mexico City", Country: "Mexico",
			Description: "Sprawling capital with world-class museums, murals and an unrivalled street-food scene.",
			Highlights:  []string{"Museo Nacional de Antropologia", "Coyoacan", "Teotihuacan"},
			BestTime:    "March to May", Budget: "budget"},
		suits:      []string{"culture", "foodie", "budget"},
		activities: []string{"Frida Kahlo museum", "taco tour in Roma Norte", "Teotihuacan pyramids at sunrise", "Xochimilco trajineras"},
		cost:       "$60-120 per day",
	},
	{
		Destination: Destination{ID: "queenstown-new-zealand", Name: "Queenstown", Country: "New Zealand",
			Description: "Lakeside adventure capital surrounded by the Remarkables range.",
			Highlights:  []string{"Milford Sound", "Shotover River", "Ben Lomond Track"},
			BestTime:    "December to February for hiking, June to August for skiing", Budget: "luxury"},
		suits:      []string{"adventure", "relaxation"},
		activities: []string{"bungee jumping at Kawarau Bridge", "Milford Sound cruise", "Routeburn Track day hike", "jet boating on the Shotover"},
		cost:       "$180-320 per day",
	},
	{
		Destination: Destination{ID: "reykjavik-iceland", Name: "Reykjavik", Country: "Iceland",
			Description: "Compact capital and base for glaciers, geysers and northern lights.",
			Highlights:  []string{"Golden Circle", "Blue Lagoon", "Hallgrimskirkja"},
			BestTime:    "June to August, or September to March for auroras", Budget: "luxury"},
		suits:      []string{"adventure", "relaxation"},
		activities: []string{"Golden Circle drive", "glacier hike on Solheimajokull", "northern lights hunt", "geothermal lagoon soak"},
		cost:       "$200-350 per day",
	},
	{
		Destination: Destination{ID: "cusco-peru", Name: "Cusco", Country: "Peru",
			Description: "High-altitude Inca capital and gateway to the Sacred Valley and Machu Picchu.",
			Highlights:  []string{"Machu Picchu", "Sacred Valley", "Rainbow Mountain"},
			BestTime:    "May to September", Budget: "budget"},
		suits:      []string{"adventure", "culture", "budget"},
		activities: []string{"Inca Trail trek", "Sacred Valley markets", "Rainbow Mountain hike", "San Pedro market breakfast"},
		cost:       "$50-110 per day",
	},
	{
		Destination: Destination{ID: "bali-indonesia", Name: "Bali", Country: "Indonesia",
			Description: "Rice terraces, surf beaches and a deep Hindu temple culture.",
			Highlights:  []string{"Ubud", "Uluwatu", "Tegallalang"},
			BestTime:    "April to October", Budget: "budget"},
		suits:      []string{"relaxation", "adventure", "budget", "family"},
		activities: []string{"sunrise trek on Mount Batur", "Ubud yoga retreat", "Uluwatu cliff temple at sunset", "snorkeling in Amed"},
		cost:       "$50-120 per day",
	},
	{
		Destination: Destination{ID: "santorini-greece", Name: "Santorini", Country: "Greece",
			Description: "Whitewashed cliff villages above a flooded volcanic caldera.",
			Highlights:  []string{"Oia", "Red Beach", "Akrotiri"},
			BestTime:    "May to June and September", Budget: "luxury"},
		suits:      []string{"relaxation", "foodie"},
		activities: []string{"caldera sunset in Oia", "winery tour", "catamaran cruise", "Akrotiri excavations"},
		cost:       "$180-300 per day",
	},
	{
		Destination: Destination{ID: "bangkok-thailand", Name: "Bangkok", Country: "Thailand",
			Description: "Temples, canals and night markets in a city that never stops eating.",
			Highlights:  []string{"Wat Pho", "Chatuchak Market", "Chinatown"},
			BestTime:    "November to February", Budget: "budget"},
		suits:      []string{"foodie", "budget", "culture"},
		activities: []string{"Yaowarat street food night", "Wat Arun by long-tail boat", "Chatuchak weekend market", "Thai cooking class"},
		cost:       "$45-100 per day",
	},
	{
		Destination: Destination{ID: "copenhagen-denmark", Name: "Copenhagen", Country: "Denmark",
			Description: "Bike-friendly harbor city with New Nordic dining and design.",
			Highlights:  []string{"Nyhavn", "Tivoli Gardens", "Christiania"},
			BestTime:    "May to September", Budget: "luxury"},
		suits:      []string{"family", "foodie", "relaxation"},
		activities: []string{"Tivoli Gardens evening", "harbor bath swim", "smorrebrod lunch", "bike tour of the canals"},
		cost:       "$190-320 per day",
	},
	{
		Destination: Destination{ID: "orlando-usa", Name: "Orlando", Country: "United States",
			Description: "Theme-park capital with easy logistics for families.",
			Highlights:  []string{"Walt Disney World", "Universal Orlando", "Kennedy Space Center"},
			BestTime:    "March to May and October to November", Budget: "moderate"},
		suits:      []string{"family"},
		activities: []string{"Magic Kingdom day", "Kennedy Space Center launch viewing", "springs kayaking", "Universal Studios"},
		cost:       "$200-350 per day",
	},
	{
		Destination: Destination{ID: "lisbon-portugal", Name: "Lisbon", Country: "Portugal",
			Description: "Hilly, sunlit capital of tiled facades, fado bars and custard tarts.",
			Highlights:  []string{"Alfama", "Belem", "Sintra"},
			BestTime:    "March to May and September to October", Budget: "moderate"},
		suits:      []string{"culture", "foodie", "family", "budget"},
		activities: []string{"tram 28 through Alfama", "pasteis de nata in Belem", "Sintra palaces day trip", "fado night"},
		cost:       "$90-170 per day",
	},
}

// Destinations returns the static destination catalog.
func Destinations() []Destination {
	out := make([]Destination, len(destinations))
	for i, d := range destinations {
		out[i] = d.Destination
	}
	return out
}

func destinationsFor(travelerType string) []catalogEntry {
	var out []catalogEntry
	for _, d := range destinations {
		for _, s := range d.suits {
			if s == travelerType {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(parts ...string) string {
	var kept []string
	for _, p := range parts {
		s := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(p), "-"), "-")
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "-")
}

// ResolveDestination returns the catalog entry matching name (case-insensitive),
// or a destination synthesized from the given name and country.
func ResolveDestination(name, country string) Destination {
	name = strings.TrimSpace(name)
	for _, d := range destinations {
		if strings.EqualFold(d.Name, name) && (country == "" || strings.EqualFold(d.Country, country)) {
			return d.Destination
		}
	}
	return Destination{ID: slugify(name, country), Name: name, Country: strings.TrimSpace(country)}
}

// DestinationFromRecommendation turns a model recommendation into a Destination.
func DestinationFromRecommendation(rec DestinationRecommendation) Destination {
	d := ResolveDestination(rec.Name, rec.Country)
	if d.Description == "" {
		d.Description = rec.Description
	}
	if d.BestTime == "" {
		d.BestTime = string(rec.BestTimeToVisit)
	}
	if len(d.Highlights) == 0 && rec.KeyActivities != "" {
		for _, a := range strings.Split(string(rec.KeyActivities), ",") {
			if a = strings.TrimSpace(a); a != "" {
				d.Highlights = append(d.Highlights, a)
			}
		}
	}
	if d.Budget == "" {
		d.Budget = budgetBand(string(rec.EstimatedCost))
	}
	return d
}

var firstNumber = regexp.MustCompile(`\d+`)

// budgetBand maps a free-text daily cost ("$80-150 per day") to a coarse band.
func budgetBand(cost string) string {
	m := firstNumber.FindString(strings.ReplaceAll(cost, ",", ""))
	if m == "" {
		return ""
	}
	n := 0
	for _, c := range m {
		n = n*10 + int(c-'0')
	}
	switch {
	case n < 100:
		return "budget"
	case n < 180:
		return "moderate"
	default:
		return "luxury"
	}
}
