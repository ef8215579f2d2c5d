package flow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// check validates v and converts failures into a ValidationError.
func check(v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("flow: validate: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Namespace(),
			Message: ruleMessage(fe),
		})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "numeric":
		return "must be numeric"
	}
	return "failed " + fe.Tag() + " rule"
}

// checkSettings validates settings on their own and against the node category.
func checkSettings(category string, s *Settings) error {
	if s == nil {
		return nil
	}
	variant := s.Variant()
	if variant == "multiple" {
		return invalid("settings", "only one settings variant may be set")
	}
	if want := SettingsVariantFor(category); variant != want {
		if want == VariantNone {
			return invalid("settings", fmt.Sprintf("category %q takes no settings", category))
		}
		return invalid("settings", fmt.Sprintf("category %q takes %s settings, got %s", category, want, variant))
	}
	return check(s)
}
