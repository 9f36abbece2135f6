// internal/workers/qualification/record-qualification-evaluation/models.go
package recordqualificationevaluation

import (
	"time"

	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"
)

type Input struct {
	VendorID   string        `json:"vendorId"`
	ReviewerID string        `json:"reviewerId"`
	Scores     models.Scores `json:"scores"`
	Notes      string        `json:"notes,omitempty"`
}

type Output struct {
	EvaluationID string                  `json:"evaluationId"`
	VendorID     string                  `json:"vendorId"`
	TotalScore   float64                 `json:"totalScore"`
	VendorClass  string                  `json:"vendorClass"`
	Breakdown    qualification.Breakdown `json:"breakdown"`
	EvaluatedAt  time.Time               `json:"evaluatedAt"`
	Indexed      bool                    `json:"indexed"`
}
