package validation

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/ticvision/ticvision/internal/analytics"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Report JSON field names in validation errors
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("event_date", validateEventDate); err != nil {
		panic(fmt.Sprintf("failed to register event_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("time_of_day", validateTimeOfDay); err != nil {
		panic(fmt.Sprintf("failed to register time_of_day validator: %v", err))
	}
}

// validateEventDate accepts calendar dates in YYYY-MM-DD form
func validateEventDate(fl validator.FieldLevel) bool {
	return ValidateEventDate(fl.Field().String()) == nil
}

// validateTimeOfDay accepts a time-of-day label or a clock time
func validateTimeOfDay(fl validator.FieldLevel) bool {
	return ValidateTimeOfDay(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateEventDate validates a YYYY-MM-DD date string
func ValidateEventDate(value string) error {
	if _, err := time.Parse(analytics.DateLayout, value); err != nil {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}

// ValidateTimeOfDay validates a time-of-day label or clock time
func ValidateTimeOfDay(value string) error {
	if _, ok := analytics.ParseTimeOfDay(value); !ok {
		return fmt.Errorf("invalid time_of_day: %s (must be 'morning', 'afternoon', 'evening', 'night' or a clock time such as 14:30)", value)
	}
	return nil
}

// FieldErrorMessage returns a client-facing message for the first validation failure in err
func FieldErrorMessage(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", fe.Field())
		case "event_date":
			return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field())
		case "time_of_day":
			return fmt.Sprintf("%s must be morning, afternoon, evening, night or a clock time", fe.Field())
		case "min", "max", "gte", "lte":
			return fmt.Sprintf("%s is out of range (%s=%s)", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("Validation failed: %s", fe.Error())
	}
	return "Validation failed"
}
