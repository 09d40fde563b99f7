// Package form decodes submitted values into tagged structs and validates
// them with go-playground/validator. Non-string fields are coerced with
// juju/schema checkers.
//
// A field is bound with a form tag naming its input; the "notrim" option
// keeps surrounding whitespace:
//
//	type loginInput struct {
//		Email    string `form:"email" validate:"required,email"`
//		Password string `form:"password,notrim" validate:"notblank,maxbytes=72"`
//	}
package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/schema"
)

const (
	tagForm     = "form"
	tagValidate = "validate"
	optNoTrim   = "notrim"

	msgInvalid = "Not a valid value."
)

var (
	ErrNotStructPointer = errors.New("form destination must be a pointer to a struct")
	ErrUnsupportedKind  = errors.New("unsupported form field kind")
)

// Result holds the submitted values and per-field error messages of one
// submission, keyed by input name.
type Result struct {
	Data   map[string]any
	Errors map[string][]string
}

// Decode copies values into the struct pointed to by dst and validates it.
// Validation failures are reported in the result; the error is only set for
// destinations Decode cannot handle.
func Decode(values url.Values, dst any) (*Result, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrNotStructPointer, dst)
	}

	rv = rv.Elem()
	rt := rv.Type()
	result := Fill(make(map[string]any, rt.NumField()))

	for i := range rt.NumField() {
		sf := rt.Field(i)

		name, opts := parseTag(sf)
		if name == "" || !sf.IsExported() {
			continue
		}

		raw := values.Get(name)
		if !slices.Contains(opts, optNoTrim) {
			raw = strings.TrimSpace(raw)
		}

		if err := setField(rv.Field(i), raw); err != nil {
			if !errors.Is(err, errCoerce) {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}

			result.Data[name] = raw
			result.AddError(name, msgInvalid)

			continue
		}

		result.Data[name] = rv.Field(i).Interface()
	}

	var fieldErrs validator.ValidationErrors

	switch err := validate.Struct(dst); {
	case err == nil:
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			if len(result.Errors[fe.Field()]) > 0 {
				continue
			}

			result.AddError(fe.Field(), message(rt, fe))
		}
	default:
		return nil, fmt.Errorf("validate: %w", err)
	}

	return result, nil
}

func parseTag(sf reflect.StructField) (string, []string) {
	tag, ok := sf.Tag.Lookup(tagForm)
	if !ok || tag == "-" {
		return "", nil
	}

	name, rest, _ := strings.Cut(tag, ",")
	if rest == "" {
		return name, nil
	}

	return name, strings.Split(rest, ",")
}

var errCoerce = errors.New("coerce")

func setField(v reflect.Value, raw string) error {
	//nolint:exhaustive
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		if raw == "" {
			v.SetBool(false)

			return nil
		}

		coerced, err := schema.Bool().Coerce(raw, nil)
		if err != nil {
			return errors.Join(errCoerce, err)
		}

		v.SetBool(coerced.(bool)) //nolint:forcetypeassert
	case reflect.Int, reflect.Int64:
		if raw == "" {
			v.SetInt(0)

			return nil
		}

		coerced, err := schema.ForceInt().Coerce(raw, nil)
		if err != nil {
			return errors.Join(errCoerce, err)
		}

		v.SetInt(int64(coerced.(int))) //nolint:forcetypeassert
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, v.Kind())
	}

	return nil
}

// Fill returns a result pre-populated with data and no errors, used to
// render a form for editing.
func Fill(data map[string]any) *Result {
	return &Result{Data: data, Errors: make(map[string][]string)}
}

// Valid reports whether no field has an error.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// AddError attaches msg to the named field.
func (r *Result) AddError(name, msg string) {
	r.Errors[name] = append(r.Errors[name], msg)
}

// String returns the text value of the named field.
func (r *Result) String(name string) string {
	if v, ok := r.Data[name]; ok && v != nil {
		return fmt.Sprint(v)
	}

	return ""
}

// Bool returns the checkbox value of the named field.
func (r *Result) Bool(name string) bool {
	b, _ := r.Data[name].(bool)

	return b
}

// FieldErrors returns the messages of the named field.
func (r *Result) FieldErrors(name string) []string {
	return r.Errors[name]
}

// Int coerces a query parameter to an integer, returning def when it is
// absent, malformed or below min.
func Int(values url.Values, name string, def, minimum int) int {
	raw := values.Get(name)
	if raw == "" {
		return def
	}

	v, err := schema.ForceInt().Coerce(raw, []string{name})
	if err != nil {
		return def
	}

	n, ok := v.(int)
	if !ok || n < minimum {
		return def
	}

	return n
}
