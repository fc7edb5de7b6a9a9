// internal/common/llm/fallback.go
package llm

import "strings"

// AnalysisIntent is the keyword-derived intent category for a free-text query.
type AnalysisIntent string

const (
	IntentFloodAnalysis       AnalysisIntent = "flood_analysis"
	IntentBuildingDamage      AnalysisIntent = "building_damage"
	IntentSocialVulnerability AnalysisIntent = "social_vulnerability"
	IntentRiskAssessment      AnalysisIntent = "risk_assessment"
	IntentGeneralAnalysis     AnalysisIntent = "general_analysis"
)

// ExtractAnalysisIntent classifies a query by keyword matching. It never
// needs a provider and is used both for response metadata and as the
// fallback path when the provider is down.
func ExtractAnalysisIntent(query string) AnalysisIntent {
	q := strings.ToLower(query)

	switch {
	case containsAny(q, "flood", "flooding", "water", "inundation"):
		return IntentFloodAnalysis
	case containsAny(q, "building", "damage", "infrastructure", "structure"):
		return IntentBuildingDamage
	case containsAny(q, "vulnerability", "social", "population", "community"):
		return IntentSocialVulnerability
	case containsAny(q, "risk", "assessment", "evaluation"):
		return IntentRiskAssessment
	default:
		return IntentGeneralAnalysis
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var fallbackResponses = map[AnalysisIntent]string{
	IntentFloodAnalysis:       "Analyzing flood vulnerability using satellite data and elevation models. This includes water detection from SAR imagery and topographic analysis.",
	IntentBuildingDamage:      "Assessing building damage potential using optical satellite imagery and building footprint detection algorithms.",
	IntentSocialVulnerability: "Evaluating social vulnerability using demographic data and infrastructure proximity analysis.",
	IntentRiskAssessment:      "Conducting comprehensive risk assessment combining flood probability, building exposure, and population vulnerability.",
	IntentGeneralAnalysis:     "Performing general disaster risk analysis using available geospatial datasets and Earth observation data.",
}

var suggestedActions = map[AnalysisIntent][]string{
	IntentFloodAnalysis: {
		"View flood risk zones on map",
		"Check historical flood data",
		"Analyze drainage patterns",
		"Assess elevation vulnerability",
	},
	IntentBuildingDamage: {
		"Identify vulnerable structures",
		"Calculate exposure metrics",
		"Map critical infrastructure",
		"Estimate repair costs",
	},
	IntentSocialVulnerability: {
		"Map population density",
		"Identify vulnerable communities",
		"Assess evacuation routes",
		"Locate emergency facilities",
	},
	IntentRiskAssessment: {
		"Generate risk report",
		"Create vulnerability map",
		"Plan mitigation strategies",
		"Design early warning system",
	},
}

var defaultActions = []string{
	"Analyze available data",
	"Generate basic report",
	"View satellite imagery",
	"Export analysis results",
}

// FallbackResponse returns the canned response for an intent.
func FallbackResponse(intent AnalysisIntent) string {
	if resp, ok := fallbackResponses[intent]; ok {
		return resp
	}
	return fallbackResponses[IntentGeneralAnalysis]
}

// SuggestedActions returns the action list for an intent.
func SuggestedActions(intent AnalysisIntent) []string {
	if actions, ok := suggestedActions[intent]; ok {
		return actions
	}
	return defaultActions
}
