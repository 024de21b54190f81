package middleware

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxPromptLength bounds a single chat prompt.
const MaxPromptLength = 100000

// MaxTitleLength bounds list, item and session titles.
const MaxTitleLength = 256

// ValidatePrompt validates chat prompt content.
func ValidatePrompt(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("prompt cannot be empty")
	}
	if len(content) > MaxPromptLength {
		return errors.New("prompt exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("prompt must be valid UTF-8")
	}
	return nil
}

// ValidateTitle validates a list, item or session title.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ParseID parses a positive integer path parameter.
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
