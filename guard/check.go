package guard

import (
	"reflect"
	"strings"
)

// NotNil fails when value is nil, including typed nil pointers, maps,
// slices, funcs, channels and interfaces.
func NotNil(value any, arg string) error {
	if isNil(value) {
		return Argument(arg, "value must not be nil")
	}
	return nil
}

// NotEmpty fails when value is empty or whitespace only.
func NotEmpty(value, arg string) error {
	if strings.TrimSpace(value) == "" {
		return Argument(arg, "value must not be empty or whitespace")
	}
	return nil
}

// NotNullOrEmpty fails when value is nil or has no elements. Strings, maps,
// slices, arrays and channels are accepted.
func NotNullOrEmpty(value any, arg string) error {
	if isNil(value) {
		return Argument(arg, "value must not be nil or empty")
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Map, reflect.Slice, reflect.Array, reflect.Chan:
		if v.Len() == 0 {
			return Argument(arg, "value must not be nil or empty")
		}
		return nil
	default:
		return Argument(arg, "value of kind %s has no length", v.Kind())
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
