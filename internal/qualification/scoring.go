package qualification

import (
	"math"
	"strings"

	"procurement-workers/internal/models"
)

// Criterion weights in percent. They sum to 100.
const (
	WeightDocumentCompliance  = 20
	WeightTechnicalCapability = 25
	WeightFinancialStrength   = 20
	WeightExperience          = 25
	WeightResponsiveness      = 10
)

// Vendor classes.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
	ClassD = "D"
)

// Breakdown is the weighted contribution of each criterion to the total.
type Breakdown struct {
	DocumentCompliance  float64 `json:"documentCompliance"`
	TechnicalCapability float64 `json:"technicalCapability"`
	FinancialStrength   float64 `json:"financialStrength"`
	Experience          float64 `json:"experience"`
	Responsiveness      float64 `json:"responsiveness"`
}

// Qualification is the derived score and class for one set of scores.
type Qualification struct {
	TotalScore  float64   `json:"totalScore"`
	VendorClass string    `json:"vendorClass"`
	Breakdown   Breakdown `json:"breakdown"`
}

type criterion struct {
	field  string
	score  int
	weight int
}

func criteria(s models.Scores) []criterion {
	return []criterion{
		{"documentCompliance", s.DocumentCompliance, WeightDocumentCompliance},
		{"technicalCapability", s.TechnicalCapability, WeightTechnicalCapability},
		{"financialStrength", s.FinancialStrength, WeightFinancialStrength},
		{"experience", s.Experience, WeightExperience},
		{"responsiveness", s.Responsiveness, WeightResponsiveness},
	}
}

// ScoreRangeError is returned by ComputeQualification when any score is out
// of range.
type ScoreRangeError struct {
	Issues []FieldError
}

func (e *ScoreRangeError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Error())
	}
	return "invalid scores: " + strings.Join(parts, "; ")
}

// ValidateScores reports every score outside 0-100.
func ValidateScores(s models.Scores) []FieldError {
	var issues []FieldError
	for _, c := range criteria(s) {
		if c.score < 0 || c.score > 100 {
			issues = append(issues, newFieldError(c.field, KindRange, "must be between 0 and 100, got %d", c.score))
		}
	}
	return issues
}

// ClassFor maps a total score to a vendor class.
func ClassFor(total float64) string {
	switch {
	case total >= 85:
		return ClassA
	case total >= 70:
		return ClassB
	case total >= 55:
		return ClassC
	default:
		return ClassD
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeQualification returns the weighted total (one decimal) and class.
// It holds no state; call it again whenever any score changes. Out-of-range
// scores are rejected with a *ScoreRangeError.
func ComputeQualification(s models.Scores) (Qualification, error) {
	if issues := ValidateScores(s); len(issues) > 0 {
		return Qualification{}, &ScoreRangeError{Issues: issues}
	}

	// Sum in integer hundredths so the rounding step sees exact values.
	sum := 0
	for _, c := range criteria(s) {
		sum += c.score * c.weight
	}
	total := math.Round(float64(sum)/10) / 10

	return Qualification{
		TotalScore:  total,
		VendorClass: ClassFor(total),
		Breakdown: Breakdown{
			DocumentCompliance:  roundTenth(float64(s.DocumentCompliance*WeightDocumentCompliance) / 100),
			TechnicalCapability: roundTenth(float64(s.TechnicalCapability*WeightTechnicalCapability) / 100),
			FinancialStrength:   roundTenth(float64(s.FinancialStrength*WeightFinancialStrength) / 100),
			Experience:          roundTenth(float64(s.Experience*WeightExperience) / 100),
			Responsiveness:      roundTenth(float64(s.Responsiveness*WeightResponsiveness) / 100),
		},
	}, nil
}
