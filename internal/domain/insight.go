package domain

import "time"

// Insight is a FeatureRow plus scores, eligibility flags and run tags.
// Raw weighted values are kept even for ineligible rows; only the final
// scores are forced to zero.
type Insight struct {
	FeatureRow

	RawValorization   float64 `json:"raw_val"`
	ValorizationScore float64 `json:"score_valorizacao"`
	RawGem            float64 `json:"raw_joia"`
	GemScore          float64 `json:"score_joia_escondida"`

	ValorizationEligible bool `json:"elegivel_valorizacao"`
	GemEligible          bool `json:"elegivel_joia"`

	Level        Level `json:"nivel"`
	WindowMonths int   `json:"janela_meses"`
}

// InsightReport is the full output of one orchestration run.
type InsightReport struct {
	FormulaVersion string
	GeneratedAt    time.Time
	WindowsMonths  []int
	Levels         []Level
	Deflator       map[int]float64
	Insights       []*Insight
}

// EligibleValorizationCount returns how many rows passed the
// valorization eligibility gate.
func (r *InsightReport) EligibleValorizationCount() int {
	n := 0
	for _, ins := range r.Insights {
		if ins.ValorizationEligible {
			n++
		}
	}
	return n
}

// EligibleGemCount returns how many rows passed the gem eligibility gate.
func (r *InsightReport) EligibleGemCount() int {
	n := 0
	for _, ins := range r.Insights {
		if ins.GemEligible {
			n++
		}
	}
	return n
}
