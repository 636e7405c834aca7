package signature

import (
	"go/token"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/utils"
)

// Field is one (name, type) entry of a structural shape.
type Field struct {
	Name string
	Type reflect.Type
}

// FieldSignature is an immutable, order-independent set of fields. Two
// signatures with the same (name, type) pairs have equal identities.
type FieldSignature struct {
	fields   []Field // sorted by name
	key      string  // display form
	identity string  // names and interned type ids
}

var (
	typeIDs    sync.Map // map[reflect.Type]string
	nextTypeID atomic.Uint64
)

// typeID returns a process-wide id for t. Distinct types never share an id,
// even when their names render identically.
func typeID(t reflect.Type) string {
	if id, ok := typeIDs.Load(t); ok {
		return id.(string)
	}
	id, _ := typeIDs.LoadOrStore(t, strconv.FormatUint(nextTypeID.Add(1), 36))
	return id.(string)
}

// Fields builds a signature from a name→type mapping.
func Fields(mapping map[string]reflect.Type) (FieldSignature, error) {
	if err := guard.NotNullOrEmpty(mapping, "fields"); err != nil {
		return FieldSignature{}, err
	}
	list := make([]Field, 0, len(mapping))
	for name, t := range mapping {
		list = append(list, Field{Name: name, Type: t})
	}
	return build(list)
}

// FromList builds a signature from an ordered field list. Order is
// discarded; duplicate names are rejected.
func FromList(fields []Field) (FieldSignature, error) {
	if len(fields) == 0 {
		return FieldSignature{}, guard.Argument("fields", "value must not be nil or empty")
	}
	list := make([]Field, len(fields))
	copy(list, fields)
	return build(list)
}

// Of is Fields for a statically known mapping; it panics on invalid input.
func Of(mapping map[string]reflect.Type) FieldSignature {
	sig, err := Fields(mapping)
	if err != nil {
		panic(err)
	}
	return sig
}

func build(list []Field) (FieldSignature, error) {
	slices.SortFunc(list, func(a, b Field) int { return strings.Compare(a.Name, b.Name) })

	var b, id strings.Builder
	b.WriteString("T<")
	for i, f := range list {
		if !token.IsIdentifier(f.Name) || !token.IsExported(f.Name) {
			return FieldSignature{}, guard.Argument("fields", "field name %q is not an exported identifier", f.Name)
		}
		if f.Type == nil {
			return FieldSignature{}, guard.Argument("fields", "field %q has no type", f.Name)
		}
		if i > 0 {
			if list[i-1].Name == f.Name {
				return FieldSignature{}, guard.Argument("fields", "duplicate field name %q", f.Name)
			}
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte('_')
		b.WriteString(reflection.FullName(f.Type))

		id.WriteString(f.Name)
		id.WriteByte(0)
		id.WriteString(typeID(f.Type))
		id.WriteByte(0)
	}
	b.WriteByte('>')

	return FieldSignature{fields: list, key: b.String(), identity: id.String()}, nil
}

// Key returns the canonical display key. Distinct types with the same name,
// such as function-local types, render alike; use Identity for caching.
func (s FieldSignature) Key() string { return s.key }

// Identity returns the cache key. It is equal for two signatures exactly
// when their (name, type) pairs are.
func (s FieldSignature) Identity() string { return s.identity }

// Fingerprint returns the FNV-64a hash of Key, for logs and display.
func (s FieldSignature) Fingerprint() uint64 { return utils.U64(s.key) }

// Len returns the number of fields.
func (s FieldSignature) Len() int { return len(s.fields) }

// IsZero reports whether s was never built.
func (s FieldSignature) IsZero() bool { return len(s.fields) == 0 }

// Fields returns a copy of the fields sorted by name.
func (s FieldSignature) Fields() []Field {
	return slices.Clone(s.fields)
}

// Equal reports structural equality.
func (s FieldSignature) Equal(other FieldSignature) bool { return s.identity == other.identity }

func (s FieldSignature) String() string { return s.key }
