package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
)

// String length limits
const (
	MaxIDLength    = 64
	MaxTokenLength = 4096
)

// SafeIDPattern allows alphanumeric, hyphens, underscores. Basecamp IDs end
// up as URL path segments, so nothing else is accepted.
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString checks length and rejects control characters
func ValidateString(value, fieldName string, maxLen int, required bool) error {
	if value == "" {
		if required {
			return apierr.NewValidationError(fmt.Sprintf("%s is required", fieldName))
		}
		return nil
	}

	if utf8.RuneCountInString(value) > maxLen {
		return apierr.NewValidationError(fmt.Sprintf("%s must not exceed %d characters", fieldName, maxLen))
	}

	if strings.ContainsFunc(value, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return apierr.NewValidationError(fmt.Sprintf("%s contains invalid characters", fieldName))
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return apierr.NewValidationError(fmt.Sprintf(
			"%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName))
	}

	return nil
}

// ValidateToken validates a credential token
func ValidateToken(token, fieldName string, required bool) error {
	if err := ValidateString(token, fieldName, MaxTokenLength, required); err != nil {
		return err
	}
	if strings.ContainsAny(token, " \t") {
		return apierr.NewValidationError(fmt.Sprintf("%s must not contain whitespace", fieldName))
	}
	return nil
}
