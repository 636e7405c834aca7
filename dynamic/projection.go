package dynamic

import (
	"fmt"
	"reflect"
	"unsafe"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/xshape/guard"
	"github.com/Konsultn-Engineering/xshape/reflection"
	"github.com/Konsultn-Engineering/xshape/schema"
	"github.com/Konsultn-Engineering/xshape/signature"
)

type fieldCopy struct {
	typ reflect.Type
	src uintptr // offset in the source struct
	dst uintptr // offset in the synthesized struct
}

// Projector copies a fixed subset of a source struct's members into fresh
// instances of a synthesized type. Members are resolved once when the
// projector is built.
type Projector struct {
	Source     reflect.Type
	Descriptor *TypeDescriptor

	copies []fieldCopy
}

// BuildProjection resolves fields against source and returns a projector
// onto the structural type of those fields. A field with a nil Type takes
// the source member's type. Missing members and type mismatches fail with
// guard.ErrMemberNotFound.
func BuildProjection(b *TypeBuilder, source reflect.Type, fields []signature.Field) (*Projector, error) {
	if b == nil {
		return nil, guard.Argument("builder", "value must not be nil")
	}
	meta, err := schema.Introspect(source)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, guard.Argument("fields", "value must not be nil or empty")
	}

	resolved := make([]signature.Field, len(fields))
	members := make(map[string]*schema.FieldMeta, len(fields))
	for i, f := range fields {
		member, ok := meta.Field(f.Name)
		if !ok {
			return nil, guard.MemberNotFound(meta.Type, f.Name)
		}
		if f.Type != nil && f.Type != member.Type {
			return nil, fmt.Errorf("%w (member is %s, projection wants %s)",
				guard.MemberNotFound(meta.Type, f.Name),
				reflection.FullName(member.Type), reflection.FullName(f.Type))
		}
		resolved[i] = signature.Field{Name: member.Name, Type: member.Type}
		members[member.Name] = member
	}

	sig, err := signature.FromList(resolved)
	if err != nil {
		return nil, err
	}
	desc, err := b.GetOrCreate(sig)
	if err != nil {
		return nil, err
	}

	p := &Projector{Source: meta.Type, Descriptor: desc, copies: make([]fieldCopy, 0, len(members))}
	for i := 0; i < desc.Type.NumField(); i++ {
		df := desc.Type.Field(i)
		member := members[df.Name]
		p.copies = append(p.copies, fieldCopy{typ: member.Type, src: member.Offset, dst: df.Offset})
	}

	b.logger.Debug("projection built",
		zap.String("source", reflection.FullName(meta.Type)),
		zap.String("key", desc.Key),
		zap.String("id", desc.ID))
	return p, nil
}

// ProjectValue projects v, a value of Source or a pointer to one. It returns
// a pointer to the new instance. A nil pointer projects to a nil pointer.
func (p *Projector) ProjectValue(v reflect.Value) (reflect.Value, error) {
	switch {
	case !v.IsValid():
		return reflect.Value{}, guard.Argument("source", "value must not be nil")
	case v.Type() == p.Source:
		if !v.CanAddr() {
			tmp := reflect.New(p.Source)
			tmp.Elem().Set(v)
			v = tmp
		} else {
			v = v.Addr()
		}
	case v.Type() == reflect.PointerTo(p.Source):
		if v.IsNil() {
			return reflect.Zero(reflect.PointerTo(p.Descriptor.Type)), nil
		}
	default:
		return reflect.Value{}, guard.InvalidCast(v.Type(), p.Source)
	}
	return p.project(v.UnsafePointer()), nil
}

func (p *Projector) project(src unsafe.Pointer) reflect.Value {
	out := p.Descriptor.New()
	dst := out.UnsafePointer()
	for _, c := range p.copies {
		reflect.NewAt(c.typ, unsafe.Add(dst, c.dst)).Elem().
			Set(reflect.NewAt(c.typ, unsafe.Add(src, c.src)).Elem())
	}
	return out
}

// Projection is a Projector for the statically known source type T.
type Projection[T any] struct {
	*Projector
}

// ProjectionOf builds a projection of the named members of T, taking each
// member's type from T. T must be a struct type.
func ProjectionOf[T any](b *TypeBuilder, names ...string) (*Projection[T], error) {
	t := typeOf[T]()
	if t.Kind() != reflect.Struct {
		return nil, guard.Argument("source", "projection source %s is not a struct", reflection.FullName(t))
	}
	fields := make([]signature.Field, len(names))
	for i, name := range names {
		fields[i] = signature.Field{Name: name}
	}
	p, err := BuildProjection(b, t, fields)
	if err != nil {
		return nil, err
	}
	return &Projection[T]{Projector: p}, nil
}

// Project returns a pointer to a new instance holding src's members.
func (p *Projection[T]) Project(src T) any {
	return p.project(unsafe.Pointer(&src)).Interface()
}

// ProjectPtr is Project for a pointer; nil yields nil.
func (p *Projection[T]) ProjectPtr(src *T) any {
	if src == nil {
		return nil
	}
	return p.project(unsafe.Pointer(src)).Interface()
}

// ProjectAll projects every element of src.
func (p *Projection[T]) ProjectAll(src []T) []any {
	out := make([]any, len(src))
	for i := range src {
		out[i] = p.project(unsafe.Pointer(&src[i])).Interface()
	}
	return out
}
