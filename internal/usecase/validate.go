package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"gitproof/internal/domain"
)

const (
	thresholdMin = 1
	thresholdMax = 10000
)

// Platform rules: alphanumeric and hyphens, no leading/trailing
// hyphen, max 39 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)

func ValidateUsername(username string) error {
	if username == "" || len(username) > 39 {
		return fmt.Errorf("%w: username must be between 1 and 39 characters", domain.ErrValidation)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username may contain only alphanumerics and hyphens and cannot start or end with a hyphen", domain.ErrValidation)
	}
	if strings.Contains(username, "--") {
		return fmt.Errorf("%w: username cannot contain consecutive hyphens", domain.ErrValidation)
	}
	return nil
}

func validateThreshold(threshold int) error {
	if threshold < thresholdMin || threshold > thresholdMax {
		return fmt.Errorf("%w: threshold must be between %d and %d", domain.ErrValidation, thresholdMin, thresholdMax)
	}
	return nil
}
