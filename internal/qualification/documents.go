package qualification

import (
	"strings"
	"time"

	"procurement-workers/internal/models"
)

// checkDocument returns the first problem with one document entry, or nil.
func (c *Catalog) checkDocument(key string, entry models.DocumentEntry, present bool, now time.Time) *FieldError {
	req, known := c.byKey[key]
	if !known {
		req = models.DocumentRequirement{Key: key, Label: key}
	}

	if !present || strings.TrimSpace(entry.FileRef) == "" {
		e := newFieldError(key, KindMissingDocument, "%s is mandatory and must be uploaded", req.Label)
		return &e
	}

	if req.HasExpiry && strings.TrimSpace(entry.ExpiryDate) != "" {
		if res := NotExpiredDate(entry.ExpiryDate, now); !res.Valid {
			e := *res.issue(key)
			e.Message = req.Label + " expiry date " + e.Message
			return &e
		}
	}

	if req.HasNumber && strings.TrimSpace(entry.Number) == "" {
		label := req.NumberLabel
		if label == "" {
			label = req.Label + " number"
		}
		e := newFieldError(key, KindFormat, "%s is required", label)
		return &e
	}
	return nil
}

// ValidateDocumentEntries checks every required document and returns one
// issue per failing document. It never stops at the first failure.
func (c *Catalog) ValidateDocumentEntries(entries map[string]models.DocumentEntry, required DocumentSet, now time.Time) []FieldError {
	var issues []FieldError
	for _, key := range required.Keys() {
		entry, present := entries[key]
		if issue := c.checkDocument(key, entry, present, now); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// ValidateOptionalDocuments checks supplied documents outside the required
// set. Unknown keys are rejected; entries without a file are ignored.
func (c *Catalog) ValidateOptionalDocuments(entries map[string]models.DocumentEntry, required DocumentSet, now time.Time) []FieldError {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if !required.Has(k) {
			keys = append(keys, k)
		}
	}
	var issues []FieldError
	for _, key := range NewDocumentSet(keys...).Keys() {
		if _, known := c.byKey[key]; !known {
			issues = append(issues, newFieldError(key, KindFormat, "unknown document type %q", key))
			continue
		}
		entry := entries[key]
		if strings.TrimSpace(entry.FileRef) == "" {
			continue
		}
		if issue := c.checkDocument(key, entry, true, now); issue != nil {
			issues = append(issues, *issue)
		}
	}
	return issues
}

// ValidateDocumentSet returns a message per failing required document keyed
// by document key. An empty map means every required document is valid.
func (c *Catalog) ValidateDocumentSet(entries map[string]models.DocumentEntry, required DocumentSet, now time.Time) map[string]string {
	issues := c.ValidateDocumentEntries(entries, required, now)
	out := make(map[string]string, len(issues))
	for _, issue := range issues {
		out[issue.Field] = issue.Message
	}
	return out
}

// ValidateDocumentSet validates against the default catalog.
func ValidateDocumentSet(entries map[string]models.DocumentEntry, required DocumentSet, now time.Time) map[string]string {
	return defaultCatalog.ValidateDocumentSet(entries, required, now)
}
