package plan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinWeight = 30.0
	MaxWeight = 300.0
)

// ValidationError reports user input outside the domain. It is always
// returned before anything is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks a goal before it is created or replaced.
func Validate(g Goal) error {
	if err := validate.Struct(g); err != nil {
		return translate(err)
	}
	if g.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Message: "start date is required"}
	}
	return nil
}

// ValidateWeight checks a single weigh-in.
func ValidateWeight(w float64) error {
	if err := validate.Var(w, fmt.Sprintf("gte=%g,lte=%g", MinWeight, MaxWeight)); err != nil {
		return &ValidationError{
			Field:   "weight",
			Message: fmt.Sprintf("weight must be between %g and %g kg", MinWeight, MaxWeight),
		}
	}
	return nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	msg := fmt.Sprintf("%s is invalid", fe.Field())
	switch fe.Field() + "." + fe.Tag() {
	case "startWeight.gt":
		msg = "start weight must be greater than 0"
	case "targetWeight.gt":
		msg = "target weight must be greater than 0"
	case "targetWeight.ltfield":
		msg = "target weight must be less than start weight"
	case "numberOfDays.min":
		msg = "number of days must be at least 1"
	case "weightingTime.oneof":
		msg = "weighting time must be tonight or yesterday"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
