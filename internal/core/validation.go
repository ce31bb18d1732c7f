package core

// validation.go checks form submissions before they reach the store.
//
// Only create and update run validation. Imports pass values through as
// they appear in the file so that a backup always restores.

import (
	"errors"
	"fmt"
	"strings"
)

// Validator checks records of one collection against its field specs.
type Validator struct {
	def    CollectionDefinition
	extras map[string][]string // column -> allowed values beyond FieldEnum specs
}

// NewValidator creates a validator for def. allowed adds or overrides the
// allowed values of a column, e.g. the configured owner list.
func NewValidator(def CollectionDefinition, allowed map[string][]string) *Validator {
	return &Validator{def: def, extras: allowed}
}

// Validate returns every problem found, joined, or nil.
// Errors unwrap to *ValidationError.
func (v *Validator) Validate(rec ExternalRecord) error {
	var errs []error

	for _, spec := range v.def.FieldSpecs {
		raw, present := rec[spec.Column]
		if !present {
			continue
		}

		if spec.Required && strings.TrimSpace(textValue(raw)) == "" {
			errs = append(errs, &ValidationError{Field: spec.Name, Message: "required field is empty"})
			continue
		}

		allowed := spec.EnumValues
		if extra, ok := v.extras[spec.Column]; ok {
			allowed = extra
		}
		if len(allowed) == 0 {
			continue
		}
		if err := ValidateEnum(spec.Name, textValue(raw), allowed); err != nil {
			errs = append(errs, err)
		}
	}

	if due, ok := rec["due_date"]; ok {
		if err := ValidateDate("dueDate", textValue(due)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateEnum checks value against allowed. Empty values pass.
func ValidateEnum(field, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("invalid enum value: must be one of %s", strings.Join(allowed, ", ")),
	}
}

// ValidateDate checks a YYYY-MM-DD date. Empty values pass.
func ValidateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := parseCalendarDate(value); err != nil {
		return &ValidationError{Field: field, Value: value, Message: "invalid date (use YYYY-MM-DD)"}
	}
	return nil
}
