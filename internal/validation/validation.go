// Package validation wraps go-playground/validator with the project's field
// naming (JSON names) and custom tags, and renders the first failure as a
// short message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var funnelStagePattern = regexp.MustCompile(`^(tofu|mofu|bofu)(_[a-z]+)?$`)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared, configured validator.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("funnel_stage", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
			return funnelStagePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool { //nolint:errcheck // static tag
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns the first failure as a *FieldError.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		format, args := describe(ves[0])
		return &FieldError{
			Path:    fieldPath(ves[0]),
			Message: fmt.Sprintf(format, args...),
			Format:  format,
			Args:    args,
		}
	}
	return err
}

// FieldError is the first failed constraint. Format and Args reproduce
// Message and serve as a translation key.
type FieldError struct {
	Path    string
	Message string
	Format  string
	Args    []any
}

func (e *FieldError) Error() string {
	return e.Message
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) (string, []any) {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required", "notblank":
		return "%s is required", []any{field}
	case "max":
		if isCollection(fe.Kind()) {
			return "%s must have at most %s items", []any{field, fe.Param()}
		}
		if fe.Kind() == reflect.String {
			return "%s must be at most %s characters", []any{field, fe.Param()}
		}
		return "%s must be at most %s", []any{field, fe.Param()}
	case "min":
		if isCollection(fe.Kind()) {
			return "%s must have at least %s items", []any{field, fe.Param()}
		}
		if fe.Kind() == reflect.String {
			return "%s must be at least %s characters", []any{field, fe.Param()}
		}
		return "%s must be at least %s", []any{field, fe.Param()}
	case "len":
		if isCollection(fe.Kind()) {
			return "%s must have exactly %s items", []any{field, fe.Param()}
		}
		return "%s must be exactly %s characters", []any{field, fe.Param()}
	case "oneof":
		return "%s must be one of: %s", []any{field, strings.ReplaceAll(fe.Param(), " ", ", ")}
	case "funnel_stage":
		return "%s must be a funnel stage such as tofu_problem, mofu or bofu_decision", []any{field}
	case "unique":
		return "%s must not contain duplicates", []any{field}
	default:
		return "%s failed %s validation", []any{field, fe.Tag()}
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}
