package contracts

// ComponentScore is the uniform output of every component scorer.
// Values are discrete band scores in [0,100]; insufficient input never
// errors, it produces value 0 with Available=false and a warning.
// ⭐ SSOT: 컴포넌트 점수 구조는 여기서만 정의
type ComponentScore struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`  // 0 ~ 100
	Weight    float64 `json:"weight"` // 0 ~ 1, as configured
	Available bool    `json:"available"`
	Warning   string  `json:"warning,omitempty"`
}

// Weighted returns the component's contribution to the composite.
// Unavailable components contribute nothing.
func (c ComponentScore) Weighted() float64 {
	if !c.Available {
		return 0
	}
	return c.Value * c.Weight
}

// GradeBand maps a score threshold to a grade with operator-facing
// text. Bands are configuration, not logic: each scorer family ships
// its own table, ordered by descending threshold.
type GradeBand struct {
	Threshold   float64 `json:"threshold" yaml:"threshold"`
	Grade       string  `json:"grade" yaml:"grade"`
	Description string  `json:"description" yaml:"description"`
	Guidance    string  `json:"guidance" yaml:"guidance"`
}

// CompositeResult is the aggregated setup quality for one evaluation.
// WeightTotal is the sum of weights that actually entered the score;
// unavailable components are excluded from both the numerator and this
// total, so results are only comparable across equal component sets.
type CompositeResult struct {
	Score            float64          `json:"score"` // 0 ~ 100, one decimal
	Grade            string           `json:"grade"`
	GradeDescription string           `json:"grade_description"`
	Guidance         string           `json:"guidance"`
	Weakest          string           `json:"weakest_component"`  // by raw value
	Strongest        string           `json:"strongest_component"` // by raw value
	WeightTotal      float64          `json:"weight_total"`
	Components       []ComponentScore `json:"components"`
}

// Excluded lists the components that did not enter the composite.
// Composites are only directly comparable when this set matches.
func (r *CompositeResult) Excluded() []string {
	var names []string
	for _, c := range r.Components {
		if !c.Available {
			names = append(names, c.Name)
		}
	}
	return names
}

// Facts carries named numeric inputs that are not derivable from the
// bar series itself, e.g. institutional flow sums scraped from a
// finance portal. Scorers look facts up by name and degrade to a
// warning when one is missing.
type Facts map[string]float64

// Get returns a named fact
func (f Facts) Get(name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f[name]
	return v, ok
}

// Well-known fact names
// 수급 데이터 (외국인/기관 순매수)
const (
	FactForeignNet5D = "foreign_net_5d"
	FactInstNet5D    = "inst_net_5d"
)

// Component names shared between the scorers, the weight table in the
// strategy file, and the composite.
const (
	ComponentProximity   = "proximity"
	ComponentContraction = "contraction"
	ComponentVolume      = "volume"
	ComponentTrend       = "trend"
	ComponentFlow        = "flow"
)
