package quarantine

import (
	"fmt"
	"strings"
)

// Status represents the review state of a quarantined artifact.
type Status string

const (
	// StatusPending indicates the artifact is staged and awaiting review.
	StatusPending Status = "pending"

	// StatusApproved indicates the artifact passed review.
	StatusApproved Status = "approved"

	// StatusRejected indicates the artifact failed review and its staged
	// files were deleted.
	StatusRejected Status = "rejected"
)

// IsValid returns true if the status is a recognized value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal returns true if no further transitions are allowed from this
// status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("quarantine: unknown status %q", s)
	}
	return status, nil
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}
