// Package validation provides input validation utilities.
package validation

import (
	"fmt"
	"strings"
)

const (
	maxNoteLength = 2000
	maxBatchSize  = 50
)

// ValidateID checks that a caller-supplied record identifier has a usable
// shape. Zero and negative values never resolve to a record.
func ValidateID(id int) error {
	if id <= 0 {
		return fmt.Errorf("identifier must be a positive integer")
	}
	return nil
}

// NormalizeNote trims an optional free-text note and enforces its length cap.
func NormalizeNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return "", fmt.Errorf("note must not exceed %d characters", maxNoteLength)
	}
	return note, nil
}

// ValidateBatchSize bounds the number of items a single batch request may carry.
func ValidateBatchSize(n int) error {
	if n == 0 {
		return fmt.Errorf("at least one item is required")
	}
	if n > maxBatchSize {
		return fmt.Errorf("batch must not exceed %d items", maxBatchSize)
	}
	return nil
}
