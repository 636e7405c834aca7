package schema

import (
	"reflect"
	"sync"

	"github.com/Konsultn-Engineering/xshape/guard"
)

var entityCache sync.Map // map[reflect.Type]*EntityMeta

// Introspect retrieves or builds metadata for a given struct type. Pointer
// types are normalized to their element type.
func Introspect(t reflect.Type) (*EntityMeta, error) {
	if t == nil {
		return nil, guard.Argument("type", "value must not be nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, guard.Argument("type", "invalid source type: %s (expected struct)", t.Kind())
	}

	if meta, ok := entityCache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}

	meta, err := buildMeta(t)
	if err != nil {
		return nil, err
	}
	actual, _ := entityCache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

// IntrospectOf is Introspect for a type parameter.
func IntrospectOf[T any]() (*EntityMeta, error) {
	return Introspect(reflect.TypeOf((*T)(nil)).Elem())
}

// CacheLen returns the number of cached entity types.
func CacheLen() int {
	n := 0
	entityCache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ClearCache drops cached metadata. Metadata already handed out stays valid.
func ClearCache() {
	entityCache.Range(func(key, _ any) bool {
		entityCache.Delete(key)
		return true
	})
}
