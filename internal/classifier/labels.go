package classifier

// Label is one of the conditions the model can assign to a potato plant image.
type Label string

const (
	Bacteria    Label = "Bacteria"
	Fungi       Label = "Fungi"
	Nematode    Label = "Nematode"
	Pest        Label = "Pest"
	Pythopthora Label = "Pythopthora"
	Virus       Label = "Virus"
	Healthy     Label = "Healthy"
)

// Labels holds the canonical class order. The model's output vector is
// positionally aligned to this slice, so the order must never change.
var Labels = []Label{
	Bacteria,
	Fungi,
	Nematode,
	Pest,
	Pythopthora,
	Virus,
	Healthy,
}

// ClassCount is the length of the model's output vector.
const ClassCount = 7

var recommendations = map[Label][]string{
	Bacteria: {
		"Apply copper-based bactericides as preventive measure",
		"Ensure proper field drainage to reduce moisture",
		"Rotate crops with non-host plants for 2-3 years",
		"Remove and destroy infected plant debris",
		"Use certified disease-free seed potatoes",
	},
	Fungi: {
		"Apply fungicide treatments during favorable weather conditions",
		"Improve air circulation around plants by proper spacing",
		"Avoid overhead irrigation to reduce leaf wetness",
		"Practice crop rotation with non-susceptible crops",
		"Remove infected plant material and dispose properly",
	},
	Nematode: {
		"Use nematode-resistant potato varieties when available",
		"Apply organic soil amendments like compost to improve soil health",
		"Practice long-term crop rotation with non-host crops",
		"Consider soil solarization in heavily infested areas",
		"Use beneficial nematodes as biological control agents",
	},
	Pest: {
		"Monitor fields regularly for early pest detection",
		"Use integrated pest management (IPM) strategies",
		"Apply targeted insecticides only when threshold levels are reached",
		"Encourage beneficial insects by maintaining habitat diversity",
		"Remove weeds that may harbor pest insects",
	},
	Pythopthora: {
		"Improve soil drainage and avoid waterlogged conditions",
		"Apply preventive fungicide treatments during wet periods",
		"Plant in raised beds to improve drainage",
		"Use resistant potato varieties when available",
		"Avoid working in fields when plants are wet",
	},
	Virus: {
		"Control aphid vectors through insecticide applications",
		"Use certified virus-free seed potatoes",
		"Remove infected plants immediately to prevent spread",
		"Control weeds that may serve as virus reservoirs",
		"Practice good field sanitation and equipment cleaning",
	},
	Healthy: {
		"Continue current management practices as they are effective",
		"Monitor plants regularly for any signs of disease or stress",
		"Maintain proper fertilization and irrigation schedules",
		"Keep fields clean of weeds and plant debris",
		"Rotate crops to prevent soil-borne disease buildup",
	},
}

// fallbackRecommendations is returned for a label with no table entry. Every
// canonical label has an entry, so this only covers future label additions.
var fallbackRecommendations = []string{
	"Consult with a plant pathologist for specific treatment recommendations",
	"Monitor the affected area closely for changes",
	"Consider laboratory testing for accurate diagnosis",
	"Implement general good agricultural practices",
	"Keep detailed records of symptoms and treatments",
}

// RecommendationsFor returns the five treatment recommendations for a label.
func RecommendationsFor(label Label) []string {
	if recs, ok := recommendations[label]; ok {
		return recs
	}
	return fallbackRecommendations
}
