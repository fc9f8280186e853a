package llm

// Mode selects the optimisation style for a forge request.
type Mode string

const (
	ModeGeneral   Mode = "General Purpose"
	ModeCreative  Mode = "Creative Writing"
	ModeTechnical Mode = "Technical"
	ModeAcademic  Mode = "Academic"
	ModeBusiness  Mode = "Business"
	ModeCode      Mode = "Code Generation"
)

var knownModes = map[Mode]bool{
	ModeGeneral: true, ModeCreative: true, ModeTechnical: true,
	ModeAcademic: true, ModeBusiness: true, ModeCode: true,
}

// ParseMode maps client input to a Mode. Empty or unknown input falls back
// to ModeGeneral.
func ParseMode(s string) Mode {
	if m := Mode(s); knownModes[m] {
		return m
	}
	return ModeGeneral
}

// Metrics are the six 0-100 sub-scores of an analysis.
type Metrics struct {
	Clarity         float64 `json:"clarity"`
	Specificity     float64 `json:"specificity"`
	Context         float64 `json:"context"`
	GoalOrientation float64 `json:"goalOrientation"`
	Structure       float64 `json:"structure"`
	Constraints     float64 `json:"constraints"`
}

// Analysis is the structured result of forging a prompt.
type Analysis struct {
	Score            float64  `json:"score"`
	Difficulty       string   `json:"difficulty"`
	UseCase          string   `json:"useCase"`
	DetailedAnalysis string   `json:"detailedAnalysis"`
	Metrics          Metrics  `json:"metrics"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	ImprovedPrompt   string   `json:"improvedPrompt"`
}

// wireAnalysis mirrors Analysis with pointers so missing fields are detectable.
type wireAnalysis struct {
	Score            *float64 `json:"score"`
	Difficulty       *string  `json:"difficulty"`
	UseCase          *string  `json:"useCase"`
	DetailedAnalysis *string  `json:"detailedAnalysis"`
	Metrics          *struct {
		Clarity         *float64 `json:"clarity"`
		Specificity     *float64 `json:"specificity"`
		Context         *float64 `json:"context"`
		GoalOrientation *float64 `json:"goalOrientation"`
		Structure       *float64 `json:"structure"`
		Constraints     *float64 `json:"constraints"`
	} `json:"metrics"`
	Strengths      *[]string `json:"strengths"`
	Improvements   *[]string `json:"improvements"`
	ImprovedPrompt *string   `json:"improvedPrompt"`
}

func (w *wireAnalysis) toAnalysis() (*Analysis, bool) {
	if w.Score == nil || w.Difficulty == nil || w.UseCase == nil || w.DetailedAnalysis == nil ||
		w.Metrics == nil || w.Strengths == nil || w.Improvements == nil || w.ImprovedPrompt == nil {
		return nil, false
	}
	m := w.Metrics
	if m.Clarity == nil || m.Specificity == nil || m.Context == nil ||
		m.GoalOrientation == nil || m.Structure == nil || m.Constraints == nil {
		return nil, false
	}
	return &Analysis{
		Score:            *w.Score,
		Difficulty:       *w.Difficulty,
		UseCase:          *w.UseCase,
		DetailedAnalysis: *w.DetailedAnalysis,
		Metrics: Metrics{
			Clarity:         *m.Clarity,
			Specificity:     *m.Specificity,
			Context:         *m.Context,
			GoalOrientation: *m.GoalOrientation,
			Structure:       *m.Structure,
			Constraints:     *m.Constraints,
		},
		Strengths:      *w.Strengths,
		Improvements:   *w.Improvements,
		ImprovedPrompt: *w.ImprovedPrompt,
	}, true
}
