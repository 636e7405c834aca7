package reflection

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/xshape/guard"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// MemberValue reads the exported field or zero-argument getter method called
// name from obj. Fields win over methods. A getter may return (T) or (T, error).
func MemberValue(obj any, name string) (any, error) {
	if err := guard.NotNil(obj, "obj"); err != nil {
		return nil, err
	}
	if err := guard.NotEmpty(name, "name"); err != nil {
		return nil, err
	}

	v := reflect.ValueOf(obj)
	if field, ok := lookupField(v, name); ok {
		return field.Interface(), nil
	}

	if m, ok := lookupMethod(v, name); ok && m.Type().NumIn() == 0 {
		out := m.Call(nil)
		switch {
		case len(out) == 1:
			return out[0].Interface(), nil
		case len(out) == 2 && out[1].Type() == errorType:
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		}
	}

	return nil, guard.MemberNotFound(v.Type(), name)
}

// TryMemberValue is MemberValue that reports absence instead of failing.
// A nil obj or empty name yields (nil, false).
func TryMemberValue(obj any, name string) (any, bool) {
	value, err := MemberValue(obj, name)
	if err != nil {
		return nil, false
	}
	return value, true
}

// MemberValueOf reads a member and asserts it to T.
func MemberValueOf[T any](obj any, name string) (T, error) {
	var zero T
	value, err := MemberValue(obj, name)
	if err != nil {
		return zero, err
	}
	if value == nil {
		// nil getter result for a nilable T
		if IsNullable(reflect.TypeOf((*T)(nil)).Elem()) {
			return zero, nil
		}
		return zero, guard.InvalidCast(nil, reflect.TypeOf((*T)(nil)).Elem())
	}
	typed, ok := value.(T)
	if !ok {
		return zero, guard.InvalidCast(reflect.TypeOf(value), reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}

// Invoke calls the exported method called name on obj. Nil arguments bind
// the zero value of nilable parameters. Results are returned in order; a
// trailing non-nil error result is returned as the error.
func Invoke(obj any, name string, args ...any) ([]any, error) {
	if err := guard.NotNil(obj, "obj"); err != nil {
		return nil, err
	}
	if err := guard.NotEmpty(name, "method"); err != nil {
		return nil, err
	}

	v := reflect.ValueOf(obj)
	m, ok := lookupMethod(v, name)
	if !ok {
		return nil, guard.MemberNotFound(v.Type(), name)
	}

	in, err := bindArguments(m.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("invoke %s.%s: %w", v.Type(), name, err)
	}

	out := m.Call(in)
	results := make([]any, 0, len(out))
	for i, o := range out {
		if i == len(out)-1 && o.Type() == errorType {
			if err, _ := o.Interface().(error); err != nil {
				return results, err
			}
			continue
		}
		results = append(results, o.Interface())
	}
	return results, nil
}

func bindArguments(ft reflect.Type, args []any) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, guard.Argument("args", "want at least %d arguments, got %d", n-1, len(args))
		}
	} else if len(args) != n {
		return nil, guard.Argument("args", "want %d arguments, got %d", n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if ft.IsVariadic() && i >= n-1 {
			pt = ft.In(n - 1).Elem()
		} else {
			pt = ft.In(i)
		}
		val, err := BindValue(arg, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = val
	}
	return in, nil
}

// BindValue converts arg to a reflect.Value assignable to pt. Value kinds
// require an identical type; nilable kinds accept nil and assignable types.
func BindValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		if IsNullable(pt) {
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, guard.InvalidCast(nil, pt)
	}
	v := reflect.ValueOf(arg)
	if v.Type() == pt || (IsNullable(pt) && v.Type().AssignableTo(pt)) {
		return v, nil
	}
	return reflect.Value{}, guard.InvalidCast(v.Type(), pt)
}

func lookupField(v reflect.Value, name string) (reflect.Value, bool) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	sf, ok := v.Type().FieldByName(name)
	if !ok || !sf.IsExported() {
		return reflect.Value{}, false
	}
	field, err := v.FieldByIndexErr(sf.Index)
	if err != nil {
		// nil embedded pointer on the path
		return reflect.Value{}, false
	}
	return field, true
}

func lookupMethod(v reflect.Value, name string) (reflect.Value, bool) {
	if m := v.MethodByName(name); m.IsValid() {
		return m, true
	}
	// pointer-receiver methods on a value argument
	if v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		if m := ptr.MethodByName(name); m.IsValid() {
			return m, true
		}
	}
	return reflect.Value{}, false
}
