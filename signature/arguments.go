package signature

import (
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/utils"
)

// MaxArguments bounds the arity of an ArgumentKey so the key stays comparable.
const MaxArguments = 16

// ArgumentKey identifies a (declaring type, argument types) pair. It is
// comparable and used directly as a map key.
type ArgumentKey struct {
	Declaring reflect.Type
	Count     int
	Types     [MaxArguments]reflect.Type
}

// NullArg is an explicit typed nil argument. An untyped nil carries no
// runtime type and cannot take part in overload resolution.
type NullArg struct {
	t reflect.Type
}

// Null returns a null marker for the nilable type T.
func Null[T any]() NullArg {
	return NullArg{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// NullOf returns a null marker for t.
func NullOf(t reflect.Type) NullArg { return NullArg{t: t} }

// Type returns the marker's parameter type.
func (n NullArg) Type() reflect.Type { return n.t }

// Arguments derives the key for constructing declaring from args. Pointer
// declaring types are normalized to their element type.
func Arguments(declaring reflect.Type, args []any) (ArgumentKey, error) {
	if declaring == nil {
		return ArgumentKey{}, guard.Argument("type", "value must not be nil")
	}
	if declaring.Kind() == reflect.Ptr {
		declaring = declaring.Elem()
	}
	if len(args) > MaxArguments {
		return ArgumentKey{}, guard.Argument("args", "at most %d arguments are supported, got %d", MaxArguments, len(args))
	}

	key := ArgumentKey{Declaring: declaring, Count: len(args)}
	for i, arg := range args {
		t, err := ArgumentType(arg)
		if err != nil {
			return ArgumentKey{}, guard.Argument("args", "argument %d: %v", i, err)
		}
		key.Types[i] = t
	}
	return key, nil
}

// ArgumentType returns the runtime type an argument contributes to a key.
func ArgumentType(arg any) (reflect.Type, error) {
	switch a := arg.(type) {
	case nil:
		return nil, guard.Argument("arg", "nil has no runtime type; pass signature.Null[T]()")
	case NullArg:
		if !reflection.IsNullable(a.t) {
			return nil, guard.Argument("arg", "null marker type %s is not nilable", reflection.FullName(a.t))
		}
		return a.t, nil
	default:
		return reflect.TypeOf(arg), nil
	}
}

// Args returns the argument types in order.
func (k ArgumentKey) Args() []reflect.Type {
	out := make([]reflect.Type, k.Count)
	copy(out, k.Types[:k.Count])
	return out
}

// String renders the key as "pkg.Type(arg, arg)".
func (k ArgumentKey) String() string {
	var b strings.Builder
	b.WriteString(reflection.FullName(k.Declaring))
	b.WriteByte('(')
	for i := 0; i < k.Count; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(reflection.FullName(k.Types[i]))
	}
	b.WriteByte(')')
	return b.String()
}

// Fingerprint hashes the declaring type and argument types in order, for
// logs and display.
func (k ArgumentKey) Fingerprint() uint64 {
	h := utils.U64(reflection.FullName(k.Declaring))
	for i := 0; i < k.Count; i++ {
		h = utils.Mix64(h, utils.U64(reflection.FullName(k.Types[i])))
	}
	return h
}
