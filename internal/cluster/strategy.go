package cluster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index/tokenizer"
)

// region is one entry of the fixed geographic classification table. Order
// matters: a document joins the first region it matches.
type region struct {
	key       string
	name      string
	countries []string
	keywords  []string
}

var regions = []region{
	{
		key:       "southeast-asia",
		name:      "Southeast Asia",
		countries: []string{"th", "vn", "kh", "la", "mm", "my", "sg", "id", "ph"},
		keywords: []string{
			"thailand", "bangkok", "chiang", "phuket", "vietnam", "hanoi",
			"saigon", "cambodia", "angkor", "laos", "myanmar", "malaysia",
			"singapore", "indonesia", "bali", "jakarta", "philippines", "manila",
		},
	},
	{
		key:       "east-asia",
		name:      "East Asia",
		countries: []string{"jp", "kr", "cn", "tw", "hk"},
		keywords: []string{
			"japan", "tokyo", "kyoto", "osaka", "korea", "seoul", "china",
			"beijing", "shanghai", "taiwan", "taipei", "hong", "kong",
		},
	},
	{
		key:       "south-asia",
		name:      "South Asia",
		countries: []string{"in", "np", "lk", "bd", "pk"},
		keywords: []string{
			"india", "delhi", "mumbai", "rajasthan", "kerala", "nepal",
			"kathmandu", "himalaya", "lanka", "colombo",
		},
	},
	{
		key:       "south-america",
		name:      "South America",
		countries: []string{"co", "pe", "br", "ar", "cl", "bo", "ec", "uy"},
		keywords: []string{
			"colombia", "medellin", "bogota", "cartagena", "peru", "lima",
			"cusco", "machu", "picchu", "brazil", "rio", "argentina",
			"patagonia", "chile", "bolivia", "ecuador", "galapagos",
		},
	},
	{
		key:       "central-america",
		name:      "Central America & Caribbean",
		countries: []string{"mx", "gt", "cr", "pa", "ni", "cu", "do"},
		keywords: []string{
			"mexico", "oaxaca", "yucatan", "guatemala", "costa", "rica",
			"panama", "nicaragua", "cuba", "havana", "caribbean",
		},
	},
	{
		key:       "europe",
		name:      "Europe",
		countries: []string{"es", "pt", "fr", "it", "de", "gr", "hr", "gb", "ie", "nl", "cz", "hu", "pl"},
		keywords: []string{
			"spain", "barcelona", "madrid", "portugal", "lisbon", "france",
			"paris", "italy", "rome", "tuscany", "germany", "berlin",
			"greece", "athens", "santorini", "croatia", "london", "amsterdam",
			"prague", "budapest",
		},
	},
	{
		key:       "africa",
		name:      "Africa",
		countries: []string{"ma", "eg", "za", "ke", "tz", "na"},
		keywords: []string{
			"morocco", "marrakech", "egypt", "cairo", "safari", "kenya",
			"tanzania", "zanzibar", "namibia", "cape", "town",
		},
	},
	{
		key:       "oceania",
		name:      "Oceania",
		countries: []string{"au", "nz", "fj"},
		keywords: []string{
			"australia", "sydney", "melbourne", "zealand", "queenstown", "fiji",
		},
	},
	{
		key:       "north-america",
		name:      "North America",
		countries: []string{"us", "ca"},
		keywords: []string{
			"usa", "california", "york", "hawaii", "alaska", "canada",
			"vancouver", "banff",
		},
	},
}

// activityCategory is one entry of the fixed activity table. Assignment is
// non-exclusive: a document joins every category it matches with at least
// two distinct keywords.
type activityCategory struct {
	key      string
	name     string
	keywords []string
}

var activityCategories = []activityCategory{
	{
		key:  "food",
		name: "Food & Drink",
		keywords: []string{
			"food", "restaurant", "eat", "eating", "dish", "cuisine",
			"street", "market", "cooking", "coffee", "meal", "taste",
		},
	},
	{
		key:  "adventure",
		name: "Adventure & Outdoors",
		keywords: []string{
			"hike", "hiking", "trek", "trekking", "climb", "climbing",
			"dive", "diving", "surf", "surfing", "kayak", "rafting",
			"adventure", "motorbike",
		},
	},
	{
		key:  "culture",
		name: "Culture & History",
		keywords: []string{
			"temple", "museum", "history", "historic", "culture", "festival",
			"art", "architecture", "heritage", "tradition", "ruins",
		},
	},
	{
		key:  "beaches",
		name: "Beaches & Islands",
		keywords: []string{
			"beach", "beaches", "island", "islands", "snorkel", "snorkeling",
			"sand", "coast", "bay", "lagoon",
		},
	},
	{
		key:  "nature",
		name: "Nature & Wildlife",
		keywords: []string{
			"wildlife", "jungle", "safari", "national", "park", "waterfall",
			"mountain", "mountains", "nature", "rainforest",
		},
	},
	{
		key:  "budget",
		name: "Budget Travel",
		keywords: []string{
			"budget", "cheap", "hostel", "hostels", "backpack", "backpacking",
			"save", "saving", "affordable",
		},
	},
	{
		key:  "nightlife",
		name: "Nightlife",
		keywords: []string{
			"nightlife", "bar", "bars", "club", "clubs", "party", "rooftop",
		},
	},
}

// contentType is one entry of the fixed content-type table, matched against
// title and excerpt only. The first matching type wins; a single keyword
// suffices.
type contentType struct {
	key      string
	name     string
	keywords []string
}

var contentTypes = []contentType{
	{key: "guide", name: "Guides", keywords: []string{"guide", "itinerary", "complete", "ultimate", "everything"}},
	{key: "story", name: "Stories", keywords: []string{"story", "journey", "diary", "experience", "chronicles"}},
	{key: "tip", name: "Tips", keywords: []string{"tip", "tips", "advice", "hacks", "mistakes"}},
	{key: "photo-essay", name: "Photo Essays", keywords: []string{"photo", "photos", "photography", "pictures"}},
	{key: "review", name: "Reviews", keywords: []string{"review", "reviewed", "honest", "verdict"}},
}

// candidate is an unoptimized cluster. A document may appear in several
// candidates until the optimization pass resolves ownership.
type candidate struct {
	id          string
	name        string
	description string
	strategy    Strategy
	members     []string
}

// docProfile is the lowercased term set a document exposes to keyword
// classification: body terms plus tags, location, and country.
func docProfile(doc *content.Document) map[string]struct{} {
	profile := tokenizer.TermSet(doc.FullText())
	for tag := range doc.TagSet() {
		profile[tag] = struct{}{}
	}
	if doc.Location != "" {
		for _, t := range tokenizer.Tokenize(doc.Location) {
			profile[t] = struct{}{}
		}
	}
	if doc.Country != "" {
		profile[strings.ToLower(doc.Country)] = struct{}{}
	}
	return profile
}

// geographicCandidates assigns each document to the first region (in table
// order) matching at least one keyword or the document's country code.
func geographicCandidates(snap *index.Snapshot) []candidate {
	members := make(map[string][]string, len(regions))
	for _, id := range snap.DocIDs {
		doc := snap.Document(id)
		profile := docProfile(doc)
		country := strings.ToLower(doc.Country)
		for _, r := range regions {
			if matchesRegion(r, profile, country) {
				members[r.key] = append(members[r.key], id)
				break
			}
		}
	}
	candidates := make([]candidate, 0)
	for _, r := range regions {
		ids := members[r.key]
		if len(ids) < minClusterSize[StrategyGeographic] {
			continue
		}
		candidates = append(candidates, candidate{
			id:          "geo-" + r.key,
			name:        r.name,
			description: fmt.Sprintf("Posts about travel in %s", r.name),
			strategy:    StrategyGeographic,
			members:     ids,
		})
	}
	return candidates
}

func matchesRegion(r region, profile map[string]struct{}, country string) bool {
	for _, code := range r.countries {
		if code == country {
			return true
		}
	}
	for _, kw := range r.keywords {
		if _, ok := profile[kw]; ok {
			return true
		}
	}
	return false
}

// activityCandidates assigns documents to every activity category matching
// at least two distinct keywords.
func activityCandidates(snap *index.Snapshot) []candidate {
	members := make(map[string][]string, len(activityCategories))
	for _, id := range snap.DocIDs {
		profile := docProfile(snap.Document(id))
		for _, cat := range activityCategories {
			distinct := 0
			for _, kw := range cat.keywords {
				if _, ok := profile[kw]; ok {
					distinct++
					if distinct >= 2 {
						break
					}
				}
			}
			if distinct >= 2 {
				members[cat.key] = append(members[cat.key], id)
			}
		}
	}
	candidates := make([]candidate, 0)
	for _, cat := range activityCategories {
		ids := members[cat.key]
		if len(ids) < minClusterSize[StrategyActivity] {
			continue
		}
		candidates = append(candidates, candidate{
			id:          "activity-" + cat.key,
			name:        cat.name,
			description: fmt.Sprintf("Posts about %s", strings.ToLower(cat.name)),
			strategy:    StrategyActivity,
			members:     ids,
		})
	}
	return candidates
}

// contentTypeCandidates classifies documents by title and excerpt alone;
// the first matching type wins.
func contentTypeCandidates(snap *index.Snapshot) []candidate {
	members := make(map[string][]string, len(contentTypes))
	for _, id := range snap.DocIDs {
		doc := snap.Document(id)
		head := tokenizer.TermSet(doc.Title + " " + doc.Excerpt)
		for _, ct := range contentTypes {
			if matchesAny(ct.keywords, head) {
				members[ct.key] = append(members[ct.key], id)
				break
			}
		}
	}
	candidates := make([]candidate, 0)
	for _, ct := range contentTypes {
		ids := members[ct.key]
		if len(ids) < minClusterSize[StrategyContentType] {
			continue
		}
		candidates = append(candidates, candidate{
			id:          "type-" + ct.key,
			name:        ct.name,
			description: fmt.Sprintf("%s from the blog", ct.name),
			strategy:    StrategyContentType,
			members:     ids,
		})
	}
	return candidates
}

func matchesAny(keywords []string, profile map[string]struct{}) bool {
	for _, kw := range keywords {
		if _, ok := profile[kw]; ok {
			return true
		}
	}
	return false
}

// semanticCandidates greedily groups documents by similarity threshold.
// Iteration follows sorted document ID order, so repeated runs over the
// same corpus produce identical clusters.
func semanticCandidates(snap *index.Snapshot, graph *Graph, threshold float64) []candidate {
	assigned := make(map[string]struct{}, snap.DocCount())
	candidates := make([]candidate, 0)
	for _, seed := range snap.DocIDs {
		if _, done := assigned[seed]; done {
			continue
		}
		members := []string{seed}
		for _, other := range snap.DocIDs {
			if other == seed {
				continue
			}
			if _, done := assigned[other]; done {
				continue
			}
			if graph.Score(seed, other) >= threshold {
				members = append(members, other)
			}
		}
		if len(members) < minClusterSize[StrategySemantic] {
			continue
		}
		for _, id := range members {
			assigned[id] = struct{}{}
		}
		sort.Strings(members)
		seedDoc := snap.Document(seed)
		candidates = append(candidates, candidate{
			id:          "semantic-" + seed,
			name:        "Related to " + seedDoc.Title,
			description: fmt.Sprintf("Posts similar to %q", seedDoc.Title),
			strategy:    StrategySemantic,
			members:     members,
		})
	}
	return candidates
}
