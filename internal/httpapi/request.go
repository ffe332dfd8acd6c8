package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bookly-io/bookly/internal/errors"
)

var validate = newValidator()

// newValidator builds a validator that reports field names from json tags
// so validation details line up with the request body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. Failures surface as validation errors with per-field details.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	// An empty body is treated as an empty object so PATCH endpoints can
	// be called without a payload.
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Validation("Invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			se := errors.Validation("Request validation failed")
			for _, fe := range verrs {
				se.WithDetails(fe.Field(), validationMessage(fe))
			}
			return se
		}
		return errors.Validation("Request validation failed")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return "failed validation rule " + fe.Tag()
	}
}
