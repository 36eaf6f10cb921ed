package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JobMetadata is the payload attached to a dispatched call job.
type JobMetadata struct {
	PhoneNumber string `json:"phone_number"`
}

// ParseJobMetadata decodes and validates job metadata. A missing or
// blank phone number is a fatal precondition: the caller must not start
// a session or dial. Malformed JSON is reported, not silently ignored.
func ParseJobMetadata(raw string) (*JobMetadata, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingPhoneNumber
	}

	var md JobMetadata
	if err := json.Unmarshal([]byte(raw), &md); err != nil {
		return nil, fmt.Errorf("invalid job metadata: %w", err)
	}

	md.PhoneNumber = strings.TrimSpace(md.PhoneNumber)
	if md.PhoneNumber == "" {
		return nil, ErrMissingPhoneNumber
	}
	return &md, nil
}
