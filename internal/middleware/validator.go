package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// MaxScriptBytes bounds script content accepted over HTTP.
const MaxScriptBytes = 256 << 10

var (
	workspaceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	validate           = newValidator()
)

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateWorkspaceID validates workspace ID format
func ValidateWorkspaceID(id string) error {
	if id == "" {
		return fmt.Errorf("workspace ID cannot be empty")
	}
	if !workspaceIDPattern.MatchString(id) {
		return fmt.Errorf("invalid workspace ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateScriptID validates script ID format (uuid)
func ValidateScriptID(id string) error {
	if id == "" {
		return fmt.Errorf("script ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid script ID format")
	}
	return nil
}

// ValidateStruct runs `validate` tags on a decoded request body and
// flattens the failures into one readable error.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
