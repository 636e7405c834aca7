package dynamic

import (
	"reflect"

	"github.com/Konsultn-Engineering/xshape/signature"
)

// TypeDescriptor is the cached result of synthesizing a structural type. It
// is created once per distinct field signature and never mutated.
type TypeDescriptor struct {
	ID   string
	Key  string
	Type reflect.Type // struct type, fields sorted by name

	sig   signature.FieldSignature
	index map[string]int
}

func newDescriptor(id string, sig signature.FieldSignature, t reflect.Type) *TypeDescriptor {
	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		index[t.Field(i).Name] = i
	}
	return &TypeDescriptor{
		ID:    id,
		Key:   sig.Key(),
		Type:  t,
		sig:   sig,
		index: index,
	}
}

// Signature returns the field signature the type was built from.
func (d *TypeDescriptor) Signature() signature.FieldSignature { return d.sig }

// Fields returns the (name, type) entries sorted by name.
func (d *TypeDescriptor) Fields() []signature.Field { return d.sig.Fields() }

// Field returns the synthesized struct field called name.
func (d *TypeDescriptor) Field(name string) (reflect.StructField, bool) {
	i, ok := d.index[name]
	if !ok {
		return reflect.StructField{}, false
	}
	return d.Type.Field(i), true
}

// Len returns the number of fields.
func (d *TypeDescriptor) Len() int { return d.Type.NumField() }

// New returns a pointer to a fresh zero instance.
func (d *TypeDescriptor) New() reflect.Value { return reflect.New(d.Type) }

func (d *TypeDescriptor) String() string { return d.Key }
