// Package routing provides a deterministic keyword-density routing engine.
//
// Text chunks are scored against specialist profiles ("feature
// fingerprints") and routed to the model whose profile matches best. When
// no profile clears the confidence threshold the chunk falls back to the
// default efficiency model. Scoring is pure keyword counting; the same
// input always routes the same way.
package routing

import (
	"regexp"
	"strings"
)

// Profile describes a specialist: a name, the model it routes to, and
// the weighted keywords that fingerprint its domain.
type Profile struct {
	Name     string
	ModelID  string
	Keywords map[string]float64
}

// DefaultThreshold is the minimum confidence to accept a profile match.
const DefaultThreshold = 0.3

// DefaultModelID receives chunks no profile claims with confidence.
const DefaultModelID = "deepseek-v3.2"

// DefaultProfiles returns the built-in specialist roster.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:    "Architect",
			ModelID: "claude-opus-4-5-20251101",
			Keywords: map[string]float64{
				// Coding
				"class": 2.0, "def": 2.0, "import": 2.0, "return": 1.5,
				"async": 2.0, "await": 2.0, "interface": 2.0, "implements": 2.0,
				"public": 1.5, "static": 1.5, "void": 1.5, "function": 1.5,
				"method": 1.5,
				// Legal
				"section": 1.5, "clause": 2.0, "agreement": 2.0, "party": 1.5,
				"hereby": 2.0, "terms": 1.5, "conditions": 1.5, "contract": 2.0,
				"legal": 1.5,
				// Structural
				"architecture": 1.5, "refactor": 2.0, "multi-file": 1.5,
			},
		},
		{
			Name:    "Project Manager",
			ModelID: "gpt-5.2",
			Keywords: map[string]float64{
				// Database
				"select": 2.0, "insert": 2.0, "update": 2.0, "delete": 2.0,
				"join": 2.0, "union": 2.0, "primary": 1.5, "foreign": 1.5,
				"key": 1.0, "schema": 2.0, "table": 1.5, "database": 1.5,
				"sql": 2.0,
				// Data formats
				"json": 2.0, "yaml": 2.0, "xml": 2.0,
				// Planning
				"step": 1.5, "phase": 1.5, "milestone": 1.5, "deliverable": 1.5,
				"workflow": 1.5, "roadmap": 1.5, "plan": 1.0, "schedule": 1.5,
				"timeline": 1.5,
			},
		},
		{
			Name:    "Creative Director",
			ModelID: "gemini-3-pro",
			Keywords: map[string]float64{
				// Narrative
				"story": 1.5, "character": 1.5, "plot": 1.5, "setting": 1.0,
				"theme": 1.0, "narrative": 2.0, "chapter": 1.5, "scene": 1.0,
				// Visual
				"image": 1.5, "video": 1.5, "slide": 1.5, "presentation": 1.5,
				"deck": 1.5, "graph": 1.5, "chart": 1.5, "visual": 1.5,
				"graphic": 1.5,
				// Research
				"study": 1.5, "findings": 1.5, "abstract": 2.0, "conclusion": 1.5,
				"literature": 1.5, "review": 1.0, "research": 1.5, "analysis": 1.0,
				"summarize": 1.5, "summary": 1.5,
			},
		},
		{
			Name:    "News Analyst",
			ModelID: "grok-4.1",
			Keywords: map[string]float64{
				// Temporal markers
				"today": 2.0, "yesterday": 2.0, "current": 1.5, "breaking": 2.0,
				"live": 2.0, "update": 1.5, "2026": 2.0, "2025": 1.5,
				"latest": 1.5, "recent": 1.5, "now": 1.5,
				// Social signals
				"twitter": 2.0, "x-com": 2.0, "trend": 1.5, "viral": 2.0,
				"sentiment": 1.5, "social": 1.0, "media": 1.0, "hashtag": 2.0,
				"tweet": 2.0,
				// Tone
				"roast": 2.0, "joke": 1.5, "meme": 1.5, "news": 1.5,
				"event": 1.0,
			},
		},
		{
			Name:    "Efficiency Expert",
			ModelID: "deepseek-v3.2",
			Keywords: map[string]float64{
				// Mathematical notation
				"latex": 2.0, "equation": 2.0, "theorem": 2.0, "proof": 2.0,
				"calculate": 1.5, "solve": 1.5, "integral": 2.0, "derivative": 2.0,
				"formula": 1.5, "mathematics": 1.5, "math": 1.5,
				// Logic
				"logic": 1.5, "puzzle": 1.5, "syllogism": 2.0,
				// Very common words, low weight
				"if": 0.5, "then": 0.5,
			},
		},
	}
}

// Engine routes text chunks to models by keyword-density scoring.
type Engine struct {
	profiles     []Profile
	threshold    float64
	defaultModel string
}

// NewEngine creates an engine with the default roster, threshold, and
// fallback model.
func NewEngine() *Engine {
	return &Engine{
		profiles:     DefaultProfiles(),
		threshold:    DefaultThreshold,
		defaultModel: DefaultModelID,
	}
}

// WithProfiles replaces the specialist roster.
func (e *Engine) WithProfiles(profiles []Profile) *Engine {
	e.profiles = profiles
	return e
}

// WithThreshold sets the minimum confidence to accept a profile match.
func (e *Engine) WithThreshold(threshold float64) *Engine {
	e.threshold = threshold
	return e
}

// WithDefaultModel sets the below-threshold fallback model.
func (e *Engine) WithDefaultModel(modelID string) *Engine {
	e.defaultModel = modelID
	return e
}

var tokenRe = regexp.MustCompile(`[\w-]+`)

// Tokenize lowercases text and splits it into word tokens (alphanumeric,
// underscores, and hyphens).
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Score computes the confidence of one profile for a chunk: the weighted
// keyword hit count normalized by token count, scaled, and capped at 1.0.
func (e *Engine) Score(text string, profile Profile) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	totalScore := 0.0
	totalWeight := 0.0
	for keyword, weight := range profile.Keywords {
		if count, ok := counts[strings.ToLower(keyword)]; ok {
			totalScore += float64(count) * weight
			totalWeight += weight
		}
	}
	if totalWeight == 0 {
		return 0.0
	}

	// Keyword density, scaled so moderately dense chunks reach 1.0.
	density := totalScore / float64(len(tokens))
	if score := density * 10; score < 1.0 {
		return score
	}
	return 1.0
}

// Route scores a chunk against every profile and returns the winning
// model plus all per-profile scores. Ties break toward the earlier
// profile in roster order, keeping routing deterministic.
func (e *Engine) Route(text string) (string, map[string]float64) {
	scores := make(map[string]float64, len(e.profiles))
	best := -1
	bestScore := 0.0
	for i, profile := range e.profiles {
		score := e.Score(text, profile)
		scores[profile.Name] = score
		if best == -1 || score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best == -1 || bestScore < e.threshold {
		return e.defaultModel, scores
	}
	return e.profiles[best].ModelID, scores
}

// Decision is the detailed outcome of one routing call.
type Decision struct {
	ModelID     string             `json:"model_id"`
	ProfileName string             `json:"profile_name"`
	Confidence  float64            `json:"confidence"`
	Scores      map[string]float64 `json:"all_scores"`
	Fallback    bool               `json:"is_fallback"`
}

// RouteDetails routes a chunk and reports the winning profile, its
// confidence, and whether the default fallback was used.
func (e *Engine) RouteDetails(text string) Decision {
	modelID, scores := e.Route(text)
	fallback := modelID == e.defaultModel

	if len(scores) == 0 {
		return Decision{
			ModelID:     modelID,
			ProfileName: "Default",
			Confidence:  0.0,
			Scores:      scores,
			Fallback:    true,
		}
	}

	bestName := ""
	bestScore := -1.0
	for _, profile := range e.profiles {
		if score := scores[profile.Name]; score > bestScore {
			bestName = profile.Name
			bestScore = score
		}
	}

	name := bestName
	if fallback && bestScore < e.threshold {
		name = "Default (below threshold)"
	} else if fallback {
		name = "Default"
	}

	return Decision{
		ModelID:     modelID,
		ProfileName: name,
		Confidence:  bestScore,
		Scores:      scores,
		Fallback:    fallback,
	}
}

// RouteText routes a chunk with default settings (simple interface).
func RouteText(text string) string {
	modelID, _ := NewEngine().Route(text)
	return modelID
}
