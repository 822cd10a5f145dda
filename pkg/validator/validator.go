package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

// romanPattern accepts 1..3999, optionally written as "No. XII" the way prescriptions do.
var romanPattern = regexp.MustCompile(`^(?i:no\.?\s*)?M{0,3}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	ValidateField(field string, value interface{}, rules ...string) error
}

type validator struct {
	v *playground.Validate
}

func New() Validator {
	v := playground.New()
	v.RegisterTagNameFunc(jsonTagName)
	Register(v)
	return &validator{v: v}
}

// Register installs the custom rules on an existing engine, e.g. gin's binding validator.
func Register(v *playground.Validate) {
	_ = v.RegisterValidation("roman", func(fl playground.FieldLevel) bool {
		return IsRoman(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl playground.FieldLevel) bool {
		switch fl.Field().String() {
		case "doctor", "patient", "pharmacy":
			return true
		}
		return false
	})
}

func (v *validator) Validate(obj interface{}) error {
	if err := v.v.Struct(obj); err != nil {
		return translate(err)
	}
	return nil
}

func (v *validator) ValidateField(field string, value interface{}, rules ...string) error {
	if err := v.v.Var(value, strings.Join(rules, ",")); err != nil {
		var errs playground.ValidationErrors
		if ok := asValidationErrors(err, &errs); ok && len(errs) > 0 {
			return fmt.Errorf("%s %s", field, describe(errs[0]))
		}
		return err
	}
	return nil
}

// IsRoman reports whether s is a non-empty Roman numeral quantity.
func IsRoman(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if !romanPattern.MatchString(s) {
		return false
	}
	// the pattern also matches a bare "No." prefix
	digits := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "no."), "no"))
	return digits != ""
}

func translate(err error) error {
	var errs playground.ValidationErrors
	if !asValidationErrors(err, &errs) || len(errs) == 0 {
		return err
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Namespace(), describe(e)))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describe(e playground.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "email":
		return "must be a valid email"
	case "roman":
		return "must be a Roman numeral"
	case "role":
		return "must be one of doctor, patient, pharmacy"
	case "oneof":
		return fmt.Sprintf("must be one of %s", e.Param())
	}
	return fmt.Sprintf("failed %q validation", e.Tag())
}

func asValidationErrors(err error, target *playground.ValidationErrors) bool {
	errs, ok := err.(playground.ValidationErrors)
	if ok {
		*target = errs
	}
	return ok
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
