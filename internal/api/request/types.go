package request

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// UpsertPlayerRequest is the request body for PUT /api/v1/players/{id}
type UpsertPlayerRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=64"`
}

// Decode reads a JSON body into v and validates it
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(verrs[0].Field() + " failed " + verrs[0].Tag() + " validation")
		}
		return err
	}
	return nil
}
