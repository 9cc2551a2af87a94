package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/pkg/apperrors"
)

// ContentTag is the struct tag registered with the gin binding validator.
const ContentTag = "guestbook_content"

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizeContent trims surrounding whitespace and enforces the length
// limits shared by messages and replies. Length is counted in characters.
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if err := checkContent(trimmed); err != nil {
		return "", apperrors.InvalidArg(err.Message)
	}
	return trimmed, nil
}

func checkContent(trimmed string) *ValidationError {
	n := utf8.RuneCountInString(trimmed)
	if n < models.MinContentLength {
		return &ValidationError{Field: "content", Message: "content is required"}
	}
	if n > models.MaxContentLength {
		return &ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("content exceeds maximum of %d characters (has %d)", models.MaxContentLength, n),
		}
	}
	return nil
}

// ValidateAuthor checks the caller identity handed to the service
func ValidateAuthor(user models.UserRef) error {
	if strings.TrimSpace(user.ID) == "" {
		return apperrors.InvalidArg("author id is required")
	}
	return nil
}

// ValidateContentField is the validator.Func behind ContentTag
func ValidateContentField(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return checkContent(strings.TrimSpace(s)) == nil
}

// RegisterTags installs the guestbook validation tags on v
func RegisterTags(v *validator.Validate) error {
	return v.RegisterValidation(ContentTag, ValidateContentField)
}
