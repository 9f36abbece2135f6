// internal/workers/qualification/check-document-expiry/models.go
package checkdocumentexpiry

import "procurement-workers/internal/models"

type Input struct {
	VendorID  string                          `json:"vendorId"`
	LegalName string                          `json:"legalName,omitempty"`
	Documents map[string]models.DocumentEntry `json:"documents"`
	Contact   Contact                         `json:"contact"`
	// Notify defaults to true when omitted.
	Notify *bool `json:"notify,omitempty"`
}

type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type ExpiringDocument struct {
	Key           string `json:"key"`
	Label         string `json:"label"`
	ExpiryDate    string `json:"expiryDate"`
	DaysRemaining int    `json:"daysRemaining"`
}

// Notification is the outcome of one reminder channel.
type Notification struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`

	err error
}

type Output struct {
	VendorID      string             `json:"vendorId"`
	Expired       []ExpiringDocument `json:"expired"`
	ExpiringSoon  []ExpiringDocument `json:"expiringSoon"`
	InvalidDates  []string           `json:"invalidDates,omitempty"`
	HasExpired    bool               `json:"hasExpired"`
	Notifications []Notification     `json:"notifications,omitempty"`
}
