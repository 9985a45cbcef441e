package serverutils

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest validates a request DTO against its validate tags.
func ValidateRequest(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// DecodeParams fills a typed parameter struct from a string parameter
// bag using `param` tags, then validates it. out must be a pointer to
// a struct of string fields.
func DecodeParams(params map[string]string, out interface{}) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode params: out must be a struct pointer")
	}
	elem := v.Elem()
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("param")
		if tag == "" {
			continue
		}
		if value, ok := params[tag]; ok {
			elem.Field(i).SetString(value)
		}
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid action parameters: %w", err)
	}
	return nil
}
