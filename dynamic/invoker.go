package dynamic

import (
	"fmt"
	"reflect"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/signature"
)

// Invoker is a resolved constructor for one (declaring type, argument
// types) pair. It is immutable and safe for concurrent use.
type Invoker struct {
	ID       string
	Key      signature.ArgumentKey
	Overload *Overload // nil for the implicit zero-argument constructor

	call func(args []any) (any, error)
}

func newInvoker(id string, key signature.ArgumentKey, o *Overload) *Invoker {
	return &Invoker{ID: id, Key: key, Overload: o, call: o.call}
}

func newImplicitInvoker(id string, key signature.ArgumentKey) *Invoker {
	t := key.Declaring
	return &Invoker{
		ID:  id,
		Key: key,
		call: func([]any) (any, error) {
			return reflect.New(t).Interface(), nil
		},
	}
}

// Invoke constructs a new instance from args. A wrong argument count or an
// argument that does not bind to its parameter fails with
// guard.ErrTypeMismatch; errors returned by the constructor are wrapped.
func (i *Invoker) Invoke(args ...any) (any, error) {
	if len(args) != i.Key.Count {
		return nil, fmt.Errorf("%w: %s takes %d arguments, got %d", guard.ErrTypeMismatch, i.Key, i.Key.Count, len(args))
	}
	v, err := i.call(args)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", i.Key, err)
	}
	return v, nil
}

// Implicit reports whether the invoker uses the zero-argument new(T).
func (i *Invoker) Implicit() bool { return i.Overload == nil }
