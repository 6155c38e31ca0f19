// Package validation checks registration payloads against their declared
// shape. It never touches storage.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jesa/internal/registration/catalog"
	dErrors "jesa/pkg/domain-errors"
)

// Issue is one field-level failure.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error carries every failing field of a payload.
type Error struct {
	Issues []Issue `json:"issues"`
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IssuesOf extracts the field issues from err, if it carries any.
func IssuesOf(err error) ([]Issue, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Issues, true
	}
	return nil, false
}

// Validator is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	catalog  *catalog.Catalog
}

// New builds a validator whose enum rules read from c.
func New(c *catalog.Catalog) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	for _, enum := range c.Enumerations() {
		// RegisterValidation only fails for an empty tag or a nil func.
		_ = v.RegisterValidation(enum, func(fl validator.FieldLevel) bool {
			return c.Contains(enum, fl.Field().String())
		})
	}
	return &Validator{validate: v, catalog: c}
}

// Struct validates a payload. Failures are returned as a CodeValidation
// domain error wrapping *Error.
func (v *Validator) Struct(payload any) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "validator misconfigured")
	}

	verr := &Error{Issues: make([]Issue, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Issues = append(verr.Issues, Issue{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: v.message(fe),
		})
	}
	return dErrors.Wrap(verr, dErrors.CodeValidation, "validation failed")
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		cond := strings.SplitN(fe.Param(), " ", 2)
		if len(cond) == 2 {
			return fmt.Sprintf("%s is required when %s is %s", field, cond[0], cond[1])
		}
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "gender":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(v.catalog.Genders(), ", "))
	case "university":
		return field + " is not a recognised university"
	case "academic_year":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(v.catalog.AcademicYears(), ", "))
	case "award":
		return field + " is not a recognised award"
	case "faculty":
		return field + " is not a recognised faculty"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
