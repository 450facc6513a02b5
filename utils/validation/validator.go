package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sahilchouksey/college-admin-api/utils/apperror"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	codeTag     = "code"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// messages renders a failed tag. field is the JSON name, param the tag argument.
var messages = map[string]func(field, param string) string{
	"required":  func(f, _ string) string { return f + " is required" },
	notBlankTag: func(f, _ string) string { return f + " must not be blank" },
	"email":     func(string, string) string { return "Invalid email format" },
	"url":       func(string, string) string { return "Invalid URL" },
	codeTag:     func(f, _ string) string { return f + " may only contain letters, digits, '-' and '_'" },
	"min":       func(f, p string) string { return fmt.Sprintf("%s must be at least %s characters", f, p) },
	"max":       func(f, p string) string { return fmt.Sprintf("%s must be at most %s characters", f, p) },
	"oneof":     func(f, p string) string { return fmt.Sprintf("%s must be one of: %s", f, p) },
}

// Validator wraps the go-playground validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their JSON names
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation(codeTag, func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// ValidateStruct validates a struct using struct tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// DecodeStrict unmarshals a JSON body and rejects fields dst does not declare
func DecodeStrict(body []byte, dst interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Bind decodes a JSON body strictly into dst and validates it. Failures come back
// as apperror validation errors carrying field-level messages.
func (v *Validator) Bind(body []byte, dst interface{}) error {
	if err := DecodeStrict(body, dst); err != nil {
		return apperror.Validation("Invalid request body", map[string]string{"body": err.Error()})
	}
	if err := v.ValidateStruct(dst); err != nil {
		return apperror.Validation("Validation failed", FormatValidationErrors(err))
	}
	return nil
}

// FormatValidationErrors maps each failing field path to a readable message
func FormatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fields
	}
	for _, e := range validationErrs {
		render, known := messages[e.Tag()]
		if !known {
			render = func(f, _ string) string { return f + " is invalid" }
		}
		fields[fieldPath(e.Namespace())] = render(e.Field(), e.Param())
	}
	return fields
}

// fieldPath drops the top-level struct name: "CreateRequest.institutionalHead.email"
// becomes "institutionalHead.email".
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

// SanitizeString strips NUL bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// NormalizeEmail trims and lower-cases an email for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(SanitizeString(email))
}
