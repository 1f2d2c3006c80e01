package scoring

// RiskGrade is an S&P-style letter grade, ordered best to worst
type RiskGrade string

// Risk grades from lowest to highest probability of default
const (
	GradeAPlus  RiskGrade = "A+"
	GradeA      RiskGrade = "A"
	GradeAMinus RiskGrade = "A-"
	GradeBPlus  RiskGrade = "B+"
	GradeB      RiskGrade = "B"
	GradeBMinus RiskGrade = "B-"
	GradeCPlus  RiskGrade = "C+"
	GradeC      RiskGrade = "C"
	GradeCMinus RiskGrade = "C-"
	GradeD      RiskGrade = "D"
	GradeF      RiskGrade = "F"
)

// GradeBand is the half-open probability-of-default interval [Lower, Upper) of a grade
type GradeBand struct {
	Grade       RiskGrade `json:"grade"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
	Description string    `json:"description"`
}

// gradeBands must stay ordered best to worst: the first band containing a PD wins.
var gradeBands = []GradeBand{
	{Grade: GradeAPlus, Lower: 0.00, Upper: 0.01, Description: "Exceptional creditworthiness with minimal default risk"},
	{Grade: GradeA, Lower: 0.01, Upper: 0.03, Description: "Strong credit profile with very low default probability"},
	{Grade: GradeAMinus, Lower: 0.03, Upper: 0.05, Description: "Good credit standing with low risk indicators"},
	{Grade: GradeBPlus, Lower: 0.05, Upper: 0.10, Description: "Satisfactory credit profile with moderate-low risk"},
	{Grade: GradeB, Lower: 0.10, Upper: 0.15, Description: "Acceptable credit standing with moderate risk factors"},
	{Grade: GradeBMinus, Lower: 0.15, Upper: 0.25, Description: "Fair credit profile requiring standard monitoring"},
	{Grade: GradeCPlus, Lower: 0.25, Upper: 0.35, Description: "Below average credit with elevated risk indicators"},
	{Grade: GradeC, Lower: 0.35, Upper: 0.50, Description: "Weak credit profile with significant risk factors"},
	{Grade: GradeCMinus, Lower: 0.50, Upper: 0.65, Description: "Poor credit standing requiring enhanced due diligence"},
	{Grade: GradeD, Lower: 0.65, Upper: 0.85, Description: "Very high risk profile with substantial default probability"},
	{Grade: GradeF, Lower: 0.85, Upper: 1.00, Description: "Critical risk level - not recommended for factoring"},
}

// GradeBands returns a copy of the grade partition, best grade first
func GradeBands() []GradeBand {
	bands := make([]GradeBand, len(gradeBands))
	copy(bands, gradeBands)
	return bands
}

// GradeForPD maps a probability of default to its grade. Anything not covered by
// a band, including NaN, is graded F.
func GradeForPD(pd float64) RiskGrade {
	for _, band := range gradeBands {
		if band.Lower <= pd && pd < band.Upper {
			return band.Grade
		}
	}
	return GradeF
}

// Description returns the one-line narrative used in assessment summaries
func (g RiskGrade) Description() string {
	for _, band := range gradeBands {
		if band.Grade == g {
			return band.Description
		}
	}
	return "Credit assessment completed"
}

// Rank returns the position of the grade from best (0) to worst (10), or -1 if unknown
func (g RiskGrade) Rank() int {
	for i, band := range gradeBands {
		if band.Grade == g {
			return i
		}
	}
	return -1
}

// IsValid reports whether g is one of the eleven known grades
func (g RiskGrade) IsValid() bool {
	return g.Rank() >= 0
}
