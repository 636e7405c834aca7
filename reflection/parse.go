package reflection

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Konsultn-Engineering/xshape/guard"
)

var typeNames sync.Map // map[string]reflect.Type

func init() {
	registerBuiltin[bool]("bool")
	registerBuiltin[string]("string")
	registerBuiltin[int]("int")
	registerBuiltin[int8]("int8")
	registerBuiltin[int16]("int16")
	registerBuiltin[int32]("int32")
	registerBuiltin[int64]("int64")
	registerBuiltin[uint]("uint")
	registerBuiltin[uint8]("uint8")
	registerBuiltin[uint16]("uint16")
	registerBuiltin[uint32]("uint32")
	registerBuiltin[uint64]("uint64")
	registerBuiltin[uintptr]("uintptr")
	registerBuiltin[float32]("float32")
	registerBuiltin[float64]("float64")
	registerBuiltin[complex64]("complex64")
	registerBuiltin[complex128]("complex128")
	registerBuiltin[byte]("byte")
	registerBuiltin[rune]("rune")
	registerBuiltin[any]("any")
	registerBuiltin[error]("error")
	registerBuiltin[time.Time]("time.Time")
	registerBuiltin[time.Duration]("time.Duration")
	registerBuiltin[json.RawMessage]("json.RawMessage")
}

func registerBuiltin[T any](name string) {
	typeNames.Store(name, reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterTypeName makes t resolvable by ParseTypeName under name.
func RegisterTypeName(name string, t reflect.Type) error {
	if err := guard.NotEmpty(name, "name"); err != nil {
		return err
	}
	if t == nil {
		return guard.Argument("type", "value must not be nil")
	}
	typeNames.Store(name, t)
	return nil
}

// RegisterType registers T under its FullName and returns that name.
func RegisterType[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	name := FullName(t)
	typeNames.Store(name, t)
	return name
}

// ParseTypeName resolves a Go type expression built from registered names
// and the composite forms *T, []T, [N]T and map[K]V.
func ParseTypeName(s string) (reflect.Type, error) {
	expr := strings.TrimSpace(s)
	if expr == "" {
		return nil, guard.Argument("type", "type name must not be empty")
	}

	switch {
	case strings.HasPrefix(expr, "*"):
		elem, err := ParseTypeName(expr[1:])
		if err != nil {
			return nil, err
		}
		return reflect.PointerTo(elem), nil

	case strings.HasPrefix(expr, "[]"):
		elem, err := ParseTypeName(expr[2:])
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil

	case strings.HasPrefix(expr, "["):
		end := strings.IndexByte(expr, ']')
		if end < 0 {
			return nil, guard.Argument("type", "unterminated array length in %q", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(expr[1:end]))
		if err != nil || n < 0 {
			return nil, guard.Argument("type", "invalid array length in %q", s)
		}
		elem, err := ParseTypeName(expr[end+1:])
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil

	case strings.HasPrefix(expr, "map["):
		end := matchingBracket(expr, len("map"))
		if end < 0 {
			return nil, guard.Argument("type", "unterminated map key in %q", s)
		}
		key, err := ParseTypeName(expr[len("map["):end])
		if err != nil {
			return nil, err
		}
		if !key.Comparable() {
			return nil, guard.Argument("type", "map key %s is not comparable", key)
		}
		elem, err := ParseTypeName(expr[end+1:])
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(key, elem), nil
	}

	if t, ok := typeNames.Load(expr); ok {
		return t.(reflect.Type), nil
	}
	return nil, guard.Argument("type", "unknown type name %q", expr)
}

// matchingBracket returns the index of the ']' closing the '[' at open.
func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
