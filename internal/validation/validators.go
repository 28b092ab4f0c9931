package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxTitleLength is the maximum length for a task title
	MaxTitleLength = 200
	// MaxDescriptionLength is the maximum length for a task description
	MaxDescriptionLength = 1000
	// MaxEstimatedTime is the maximum estimated time in minutes (~7 days)
	MaxEstimatedTime = 9999
	// MaxTagNameLength is the maximum length for a tag name
	MaxTagNameLength = 50
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// tagNamePattern allows word characters, spaces, hyphens and underscores
	tagNamePattern = regexp.MustCompile(`^[\w\s-]+$`)
)

func init() {
	Validate = validator.New()

	if err := Validate.RegisterValidation("tag_name", validateTagNameField); err != nil {
		panic(fmt.Sprintf("failed to register tag_name validator: %v", err))
	}
}

// validateTagNameField adapts ValidateTagName for struct-tag use.
func validateTagNameField(fl validator.FieldLevel) bool {
	return ValidateTagName(fl.Field().String()) == nil
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTitle validates a task title (non-empty, at most 200 characters).
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("title is too long (max %d characters)", MaxTitleLength)
	}
	return nil
}

// ValidateDescription validates an optional task description (at most 1000 characters).
func ValidateDescription(description *string) error {
	if description == nil {
		return nil
	}
	if len(*description) > MaxDescriptionLength {
		return fmt.Errorf("description is too long (max %d characters)", MaxDescriptionLength)
	}
	return nil
}

// ValidateEstimatedTime validates estimated time in minutes (1..9999).
func ValidateEstimatedTime(estimatedTime int) error {
	if estimatedTime <= 0 {
		return fmt.Errorf("estimated time must be greater than 0")
	}
	if estimatedTime > MaxEstimatedTime {
		return fmt.Errorf("estimated time is too long (max %d minutes)", MaxEstimatedTime)
	}
	return nil
}

// ValidatePriority validates a task priority (1..5).
func ValidatePriority(priority int) error {
	if priority < 1 || priority > 5 {
		return fmt.Errorf("priority must be between 1 and 5")
	}
	return nil
}

// ValidateTagName validates a tag name: non-empty, at most 50 characters,
// word/space/hyphen/underscore characters only.
func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tag name cannot be empty")
	}
	if len(name) > MaxTagNameLength {
		return fmt.Errorf("tag name is too long (max %d characters)", MaxTagNameLength)
	}
	if !tagNamePattern.MatchString(name) {
		return fmt.Errorf("tag name contains invalid characters")
	}
	return nil
}

// ValidateTelegramID validates an external chat-platform identity string.
func ValidateTelegramID(telegramID string) error {
	if telegramID == "" {
		return fmt.Errorf("telegram ID cannot be empty")
	}
	for _, r := range telegramID {
		if r < '0' || r > '9' {
			return fmt.Errorf("telegram ID must be a number")
		}
	}
	return nil
}
