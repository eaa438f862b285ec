package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var instance = sync.OnceValue(func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	return v
})

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	var b strings.Builder
	for i, failure := range v {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(failure.Field)
		b.WriteString(" failed on ")
		b.WriteString(failure.Tag)
		if failure.Param != "" {
			b.WriteString("=")
			b.WriteString(failure.Param)
		}
	}
	return b.String()
}

// ValidateStruct validates a struct using registered rules. Field names in
// failures come from json tags so error messages match the wire payload.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	failures := make(ValidationErrors, len(ve))
	for i, fe := range ve {
		failures[i] = ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
	}
	return failures
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

func jsonFieldName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	if tag == "" || tag == "-" {
		return fld.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
