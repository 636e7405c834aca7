package dynamic

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/signature"
)

// Overload is one registered constructor of a declaring struct type.
type Overload struct {
	Declaring reflect.Type   // struct type, never a pointer
	Params    []reflect.Type // parameter types in order
	Result    reflect.Type   // Declaring or *Declaring

	call func(args []any) (any, error)
	err  error // deferred validation error from a typed helper
}

func (o *Overload) String() string {
	var b strings.Builder
	b.WriteString(reflection.FullName(o.Declaring))
	b.WriteByte('(')
	for i, p := range o.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(reflection.FullName(p))
	}
	b.WriteString(") ")
	b.WriteString(reflection.FullName(o.Result))
	return b.String()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

// declaringOf maps a constructor result type to its declaring struct type.
func declaringOf(result reflect.Type) (reflect.Type, error) {
	t := result
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, guard.Argument("fn", "constructor result %s is not a struct or pointer to struct", reflection.FullName(result))
	}
	return t, nil
}

func newTypedOverload(result reflect.Type, params []reflect.Type, call func([]any) (any, error)) *Overload {
	declaring, err := declaringOf(result)
	return &Overload{Declaring: declaring, Params: params, Result: result, call: call, err: err}
}

// bindArg converts args[i] to A. Null markers and nil bind the zero value
// of a nilable A.
func bindArg[A any](args []any, i int) (A, error) {
	var zero A
	switch v := args[i].(type) {
	case signature.NullArg:
		if v.Type() != nil && v.Type().AssignableTo(typeOf[A]()) {
			return zero, nil
		}
	case A:
		return v, nil
	case nil:
		if reflection.IsNullable(typeOf[A]()) {
			return zero, nil
		}
	default:
		// assignable but not identical, e.g. unnamed to named map type
		if bound, err := reflection.BindValue(v, typeOf[A]()); err == nil {
			out := reflect.New(typeOf[A]()).Elem()
			out.Set(bound)
			return out.Interface().(A), nil
		}
	}
	return zero, fmt.Errorf("argument %d: %w", i, guard.InvalidCast(argType(args[i]), typeOf[A]()))
}

func argType(arg any) reflect.Type {
	if n, ok := arg.(signature.NullArg); ok {
		return n.Type()
	}
	return reflect.TypeOf(arg)
}

// Constructor0 registers a zero-argument constructor.
func Constructor0[T any](fn func() T) *Overload {
	return newTypedOverload(typeOf[T](), nil, func([]any) (any, error) {
		return fn(), nil
	})
}

// Constructor1 registers a one-argument constructor.
func Constructor1[A, T any](fn func(A) T) *Overload {
	return newTypedOverload(typeOf[T](), []reflect.Type{typeOf[A]()}, func(args []any) (any, error) {
		a, err := bindArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return fn(a), nil
	})
}

// Constructor2 registers a two-argument constructor.
func Constructor2[A, B, T any](fn func(A, B) T) *Overload {
	return newTypedOverload(typeOf[T](), []reflect.Type{typeOf[A](), typeOf[B]()}, func(args []any) (any, error) {
		a, err := bindArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := bindArg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return fn(a, b), nil
	})
}

// Constructor3 registers a three-argument constructor.
func Constructor3[A, B, C, T any](fn func(A, B, C) T) *Overload {
	return newTypedOverload(typeOf[T](), []reflect.Type{typeOf[A](), typeOf[B](), typeOf[C]()}, func(args []any) (any, error) {
		a, err := bindArg[A](args, 0)
		if err != nil {
			return nil, err
		}
		b, err := bindArg[B](args, 1)
		if err != nil {
			return nil, err
		}
		c, err := bindArg[C](args, 2)
		if err != nil {
			return nil, err
		}
		return fn(a, b, c), nil
	})
}

// Func wraps an arbitrary constructor function of the form
// func(args...) T or func(args...) (T, error), where T is a struct or a
// pointer to one. Arguments are bound by reflection.
func Func(fn any) *Overload {
	o, err := reflectOverload(fn)
	if err != nil {
		return &Overload{err: err}
	}
	return o
}

func reflectOverload(fn any) (*Overload, error) {
	if fn == nil {
		return nil, guard.Argument("fn", "value must not be nil")
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	switch {
	case ft.Kind() != reflect.Func:
		return nil, guard.Argument("fn", "%s is not a function", ft)
	case fv.IsNil():
		return nil, guard.Argument("fn", "value must not be nil")
	case ft.IsVariadic():
		return nil, guard.Argument("fn", "variadic constructor %s is not supported", reflection.FullName(ft))
	case ft.NumIn() > signature.MaxArguments:
		return nil, guard.Argument("fn", "constructor takes %d arguments, at most %d are supported", ft.NumIn(), signature.MaxArguments)
	case ft.NumOut() == 0 || ft.NumOut() > 2:
		return nil, guard.Argument("fn", "constructor %s must return T or (T, error)", reflection.FullName(ft))
	case ft.NumOut() == 2 && ft.Out(1) != errorType:
		return nil, guard.Argument("fn", "second result of %s must be error", reflection.FullName(ft))
	}

	result := ft.Out(0)
	declaring, err := declaringOf(result)
	if err != nil {
		return nil, err
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	returnsErr := ft.NumOut() == 2

	call := func(args []any) (any, error) {
		in := make([]reflect.Value, len(args))
		for i, arg := range args {
			if n, ok := arg.(signature.NullArg); ok {
				if n.Type() == nil || !n.Type().AssignableTo(params[i]) {
					return nil, fmt.Errorf("argument %d: %w", i, guard.InvalidCast(n.Type(), params[i]))
				}
				arg = nil
			}
			v, err := reflection.BindValue(arg, params[i])
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			in[i] = v
		}
		out := fv.Call(in)
		if returnsErr {
			if err, _ := out[1].Interface().(error); err != nil {
				return nil, err
			}
		}
		return out[0].Interface(), nil
	}

	return &Overload{Declaring: declaring, Params: params, Result: result, call: call}, nil
}
