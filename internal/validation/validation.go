// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPasswordBytes is the longest password bcrypt can hash without truncation.
	MaxPasswordBytes = 72
	MaxEmailLength   = 254
	MaxNameLength    = 100
	MaxBioLength     = 500
	MaxHandleLength  = 39
	MaxTechStackSize = 30
	MaxTechLength    = 50
)

var (
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)
)

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword checks the password is present and within bcrypt's input limit.
// Strength rules are left to the client.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}
	return nil
}

// ValidateName checks the display name length.
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name must not exceed %d characters", MaxNameLength)
	}
	return nil
}

// ValidateBio checks the bio length.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return fmt.Errorf("bio must not exceed %d characters", MaxBioLength)
	}
	return nil
}

// ValidateHandle checks a GitHub or Twitter handle. Empty clears the handle.
func ValidateHandle(field, handle string) error {
	if len(handle) > MaxHandleLength {
		return fmt.Errorf("%s must not exceed %d characters", field, MaxHandleLength)
	}
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("%s can only contain letters, numbers, underscores, and hyphens", field)
	}
	return nil
}

// ValidateTechStack checks the number and length of tech stack entries.
func ValidateTechStack(stack []string) error {
	if len(stack) > MaxTechStackSize {
		return fmt.Errorf("techStack must not exceed %d entries", MaxTechStackSize)
	}
	for _, tech := range stack {
		tech = strings.TrimSpace(tech)
		if tech == "" {
			return fmt.Errorf("techStack entries must not be empty")
		}
		if utf8.RuneCountInString(tech) > MaxTechLength {
			return fmt.Errorf("techStack entries must not exceed %d characters", MaxTechLength)
		}
	}
	return nil
}
