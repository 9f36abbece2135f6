// internal/workers/qualification/compute-vendor-qualification/models.go
package computevendorqualification

import (
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"
)

type Input struct {
	VendorID string        `json:"vendorId"`
	Scores   models.Scores `json:"scores"`
}

type Output struct {
	VendorID    string                  `json:"vendorId,omitempty"`
	TotalScore  float64                 `json:"totalScore"`
	VendorClass string                  `json:"vendorClass"`
	Breakdown   qualification.Breakdown `json:"breakdown"`
}
