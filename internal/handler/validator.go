package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditory-booking/internal/model"
	"github.com/iliyamo/auditory-booking/internal/service"
)

// RequestValidator adapts go-playground/validator to echo.Validator and
// reports failures as *service.ValidationError keyed by JSON field name.
type RequestValidator struct {
	v *validator.Validate
}

// NewValidator returns a validator that understands model.Optional fields.
func NewValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(optionalValue,
		model.Optional[string]{},
		model.Optional[int]{},
		model.Optional[bool]{},
	)
	return &RequestValidator{v: v}
}

func optionalValue(field reflect.Value) any {
	if o, ok := field.Interface().(interface{ ValidationValue() any }); ok {
		return o.ValidationValue()
	}
	return nil
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &service.ValidationError{Fields: make([]service.FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.Fields = append(out.Fields, service.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isText {
			if fe.Param() == "1" {
				return "must not be empty"
			}
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if isText {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

// bindAndValidate decodes the request body into dst and validates it.
// Malformed JSON, a JSON null for a patch field and failed validation are
// all reported as *service.ValidationError.
func bindAndValidate(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return bindError(err)
	}
	return c.Validate(dst)
}

func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		err = he.Internal
	}
	if errors.Is(err, model.ErrNullValue) {
		return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: "fields must not be null"}}}
	}
	return &service.ValidationError{Fields: []service.FieldError{{Field: "body", Message: "malformed JSON body"}}}
}
