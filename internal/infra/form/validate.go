package form

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

//nolint:gochecknoglobals
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// errors carry input names, not Go field names
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _ := parseTag(sf)
		if name == "" {
			return sf.Name
		}

		return name
	})

	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}

	return v
}

// maxBytes bounds the encoded length of a string, e.g. for bcrypt inputs.
func maxBytes(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(fl.Field().String()) <= n
}

func message(rt reflect.Type, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "eqfield":
		return "Field must be equal to " + inputName(rt, fe.Param()) + "."
	case "min", "max":
		return lengthMessage(rt, fe.StructField())
	case "maxbytes":
		return fmt.Sprintf("Field cannot be longer than %s bytes.", fe.Param())
	default:
		return msgInvalid
	}
}

func inputName(rt reflect.Type, fieldName string) string {
	sf, ok := rt.FieldByName(fieldName)
	if !ok {
		return fieldName
	}

	if name, _ := parseTag(sf); name != "" {
		return name
	}

	return fieldName
}

// lengthMessage words min and max failures from both bounds of the field.
func lengthMessage(rt reflect.Type, fieldName string) string {
	var minimum, maximum string

	if sf, ok := rt.FieldByName(fieldName); ok {
		for _, rule := range strings.Split(sf.Tag.Get(tagValidate), ",") {
			key, param, _ := strings.Cut(rule, "=")

			switch key {
			case "min":
				minimum = param
			case "max":
				maximum = param
			}
		}
	}

	switch {
	case minimum != "" && maximum != "":
		return fmt.Sprintf("Field must be between %s and %s characters long.", minimum, maximum)
	case maximum != "":
		return fmt.Sprintf("Field cannot be longer than %s characters.", maximum)
	default:
		return fmt.Sprintf("Field must be at least %s characters long.", minimum)
	}
}
