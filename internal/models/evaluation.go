// internal/models/evaluation.go
package models

import "time"

// Scores are the five reviewer-assigned criteria, each 0-100.
type Scores struct {
	DocumentCompliance  int `json:"documentCompliance"`
	TechnicalCapability int `json:"technicalCapability"`
	FinancialStrength   int `json:"financialStrength"`
	Experience          int `json:"experience"`
	Responsiveness      int `json:"responsiveness"`
}

// QualificationEvaluation is one persisted reviewer evaluation. Records are
// appended; an existing evaluation is never rewritten.
type QualificationEvaluation struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendorId"`
	ReviewerID  string    `json:"reviewerId"`
	Scores      Scores    `json:"scores"`
	TotalScore  float64   `json:"totalScore"`
	VendorClass string    `json:"vendorClass"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
