package utils

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Size limits (in bytes)
const (
	MaxRequestSize = 1 * 1024 * 1024  // 1MB - JSON request bodies
	MaxImageSize   = 10 * 1024 * 1024 // 10MB - vision uploads
	MaxPromptSize  = 16 * 1024        // 16KB - free-text prompts and chat messages
)

// String length limits (in characters)
const (
	MaxNameLength        = 256
	MaxDescriptionLength = 2048
)

// plainText strips all markup from user-entered fields.
var plainText = bluemonday.StrictPolicy()

// maxSanitizePasses bounds nested entity encoding such as &amp;lt;.
const maxSanitizePasses = 4

// SanitizeText removes any HTML from s and trims surrounding whitespace.
// Entities are decoded so "&" stays "&" in the stored document, and the
// decoded text is sanitized again until it no longer changes. Input that
// is still changing after maxSanitizePasses is returned entity-escaped.
func SanitizeText(s string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		clean := html.UnescapeString(plainText.Sanitize(s))
		if clean == s {
			return strings.TrimSpace(clean)
		}
		s = clean
	}
	return strings.TrimSpace(plainText.Sanitize(s))
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s is not valid UTF-8", fieldName)
	}

	return nil
}

// ValidateName validates a short free-text field such as a person or organisation name
func ValidateName(name, fieldName string, required bool) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, required)
}

// ValidateDescription validates a longer free-text field
func ValidateDescription(description, fieldName string, required bool) error {
	return ValidateString(description, fieldName, 1, MaxDescriptionLength, required)
}

// ValidatePrompt validates a prompt typed by the user. Markup is allowed
// since it is never rendered, but the size is bounded.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(prompt) > MaxPromptSize {
		return fmt.Errorf("prompt size %d bytes exceeds maximum %d bytes", len(prompt), MaxPromptSize)
	}
	if strings.Contains(prompt, "\x00") {
		return fmt.Errorf("prompt contains invalid characters")
	}
	return nil
}
