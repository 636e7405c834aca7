package schema

import (
	"reflect"
	"unsafe"
)

// EntityMeta describes the readable members of a source struct type.
type EntityMeta struct {
	Type     reflect.Type
	Name     string
	Fields   []*FieldMeta          // declaration order, promoted fields after their embedder
	FieldMap map[string]*FieldMeta // member name -> FieldMeta
}

// Field returns the member called name.
func (m *EntityMeta) Field(name string) (*FieldMeta, bool) {
	f, ok := m.FieldMap[name]
	return f, ok
}

// Names returns member names in declaration order.
func (m *EntityMeta) Names() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldMeta describes one readable member.
type FieldMeta struct {
	Name   string // member name (tag alias or Go name)
	GoName string // Go field name
	Type   reflect.Type
	Index  []int
	Depth  int // 0 for direct fields, >0 for promoted fields
	Tag    *ParsedTag
	// Offset from the start of the outermost struct. Promoted fields sum the
	// offsets along Index.
	Offset uintptr
}

// Pointer returns the address of this field inside the struct at base.
func (f *FieldMeta) Pointer(base unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(base, f.Offset)
}

// Value returns the field inside the struct at base as an addressable value.
func (f *FieldMeta) Value(base unsafe.Pointer) reflect.Value {
	return reflect.NewAt(f.Type, f.Pointer(base)).Elem()
}
