// Package validate checks request structs against `validate` struct tags and
// returns human-readable messages keyed by JSON field name.
//
// Rules are comma separated and run in order; the first failure per field
// wins.
//
//	required      not zero or blank
//	nullable      skip remaining rules when empty
//	email         looks like an address
//	min=N max=N   number bounds, or string length for strings
//	gte=N         number (or numeric string) >= N
//	integer       whole number
//	decimal=N     numeric string with at most N fraction digits
//	date=LAYOUT   parses with the Go layout (default 2006-01-02)
//	in=a|b|c      one of the listed values
//	confirmed     equals the sibling <field>_confirmation
//
//	type AddItemInput struct {
//	    ProductID uint `json:"product_id" validate:"required"`
//	    Quantity  int  `json:"quantity"   validate:"required,min=1"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Struct validates the exported fields of v that carry a `validate` tag.
// The returned map is empty when v is valid.
func Struct(v any) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || !field.IsExported() {
			continue
		}
		value := rv.Field(i)
		name := jsonFieldName(field)
		rules := strings.Split(tag, ",")

		for _, rule := range rules {
			if rule == "nullable" {
				if isEmpty(value) {
					break
				}
				continue
			}
			if msg := apply(rule, name, value, rv); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether errs holds any message.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

func apply(rule, field string, v, parent reflect.Value) string {
	key, param, _ := strings.Cut(strings.TrimSpace(rule), "=")
	raw := fmt.Sprint(v.Interface())
	if v.Kind() == reflect.Ptr && !v.IsNil() {
		raw = fmt.Sprint(v.Elem().Interface())
	}

	switch key {
	case "required":
		if isEmpty(v) {
			return fmt.Sprintf("The %s field is required.", label(field))
		}
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", label(field))
		}
	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s must be an integer.", label(field))
		}
	case "min", "max":
		n, _ := strconv.ParseFloat(param, 64)
		if v.Kind() == reflect.String {
			l := float64(len([]rune(raw)))
			if key == "min" && l < n {
				return fmt.Sprintf("The %s must be at least %s characters.", label(field), param)
			}
			if key == "max" && l > n {
				return fmt.Sprintf("The %s must not be greater than %s characters.", label(field), param)
			}
			return ""
		}
		f, ok := number(v)
		if key == "min" && (!ok || f < n) {
			return fmt.Sprintf("The %s must be at least %s.", label(field), param)
		}
		if key == "max" && (!ok || f > n) {
			return fmt.Sprintf("The %s must not be greater than %s.", label(field), param)
		}
	case "gte":
		n, _ := strconv.ParseFloat(param, 64)
		if f, ok := number(v); !ok || f < n {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", label(field), param)
		}
	case "decimal":
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Sprintf("The %s must be a number.", label(field))
		}
		if places, _ := strconv.Atoi(param); param != "" && -d.Exponent() > int32(places) {
			return fmt.Sprintf("The %s must have at most %s decimal places.", label(field), param)
		}
	case "date":
		layout := param
		if layout == "" {
			layout = "2006-01-02"
		}
		if _, err := time.Parse(layout, raw); err != nil {
			return fmt.Sprintf("The %s does not match the format %s.", label(field), layout)
		}
	case "in":
		for _, allowed := range strings.Split(param, "|") {
			if raw == allowed {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", label(field))
	case "confirmed":
		other, ok := sibling(parent, field+"_confirmation")
		if !ok || fmt.Sprint(other.Interface()) != raw {
			return fmt.Sprintf("The %s confirmation does not match.", label(field))
		}
	}
	return ""
}

// label turns product_id into "product id".
func label(field string) string { return strings.ReplaceAll(field, "_", " ") }

func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		return f, err == nil
	case reflect.Ptr:
		if v.IsNil() {
			return 0, false
		}
		return number(v.Elem())
	}
	return 0, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false
	}
	return v.IsZero()
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

func sibling(parent reflect.Value, name string) (reflect.Value, bool) {
	rt := parent.Type()
	for i := 0; i < rt.NumField(); i++ {
		if jsonFieldName(rt.Field(i)) == name {
			return parent.Field(i), true
		}
	}
	return reflect.Value{}, false
}
