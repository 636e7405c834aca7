package reflection

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/xshape/guard"
)

// FullName renders t with package-path qualified names for named types, so
// two distinct named types never share a rendering. Builtins keep their
// short names. Composite types are rendered recursively.
func FullName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	writeName(&b, t)
	return b.String()
}

func writeName(b *strings.Builder, t reflect.Type) {
	if name := t.Name(); name != "" {
		if pkg := t.PkgPath(); pkg != "" {
			b.WriteString(pkg)
			b.WriteByte('.')
		}
		b.WriteString(name)
		return
	}

	switch t.Kind() {
	case reflect.Ptr:
		b.WriteByte('*')
		writeName(b, t.Elem())
	case reflect.Slice:
		b.WriteString("[]")
		writeName(b, t.Elem())
	case reflect.Array:
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(t.Len()))
		b.WriteByte(']')
		writeName(b, t.Elem())
	case reflect.Map:
		b.WriteString("map[")
		writeName(b, t.Key())
		b.WriteByte(']')
		writeName(b, t.Elem())
	case reflect.Chan:
		switch t.ChanDir() {
		case reflect.RecvDir:
			b.WriteString("<-chan ")
		case reflect.SendDir:
			b.WriteString("chan<- ")
		default:
			b.WriteString("chan ")
		}
		writeName(b, t.Elem())
	case reflect.Func:
		b.WriteString("func")
		writeSignature(b, t)
	case reflect.Struct:
		b.WriteString("struct {")
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteByte(' ')
			if !f.Anonymous {
				if f.PkgPath != "" {
					b.WriteString(f.PkgPath)
					b.WriteByte('.')
				}
				b.WriteString(f.Name)
				b.WriteByte(' ')
			}
			writeName(b, f.Type)
			if f.Tag != "" {
				b.WriteByte(' ')
				b.WriteString(strconv.Quote(string(f.Tag)))
			}
		}
		if t.NumField() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('}')
	default:
		// unnamed interfaces; String already lists the method set
		b.WriteString(t.String())
	}
}

func writeSignature(b *strings.Builder, t reflect.Type) {
	b.WriteByte('(')
	for i := 0; i < t.NumIn(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		in := t.In(i)
		if t.IsVariadic() && i == t.NumIn()-1 {
			b.WriteString("...")
			in = in.Elem()
		}
		writeName(b, in)
	}
	b.WriteByte(')')

	switch t.NumOut() {
	case 0:
	case 1:
		b.WriteByte(' ')
		writeName(b, t.Out(0))
	default:
		b.WriteString(" (")
		for i := 0; i < t.NumOut(); i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			writeName(b, t.Out(i))
		}
		b.WriteByte(')')
	}
}

// SignName renders a method as "Name(params) results", without the receiver.
func SignName(m reflect.Method) string {
	t := m.Type
	var b strings.Builder
	b.WriteString(m.Name)
	// Methods obtained from a concrete type carry the receiver as In(0).
	if m.Func.IsValid() && t.NumIn() > 0 {
		in := make([]reflect.Type, 0, t.NumIn()-1)
		for i := 1; i < t.NumIn(); i++ {
			in = append(in, t.In(i))
		}
		out := make([]reflect.Type, 0, t.NumOut())
		for i := 0; i < t.NumOut(); i++ {
			out = append(out, t.Out(i))
		}
		t = reflect.FuncOf(in, out, t.IsVariadic())
	}
	writeSignature(&b, t)
	return b.String()
}

// IsNullable reports whether values of t can be nil.
func IsNullable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	}
	return false
}

// NonNullable strips every pointer level from t.
func NonNullable(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// IsAnonymous reports whether t is an unnamed struct type, such as one
// produced by reflect.StructOf or a struct literal type.
func IsAnonymous(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Struct && t.Name() == ""
}

// Implements reports whether t or *t implements iface.
func Implements(t, iface reflect.Type) (bool, error) {
	if t == nil {
		return false, guard.Argument("type", "value must not be nil")
	}
	if iface == nil {
		return false, guard.Argument("iface", "value must not be nil")
	}
	if iface.Kind() != reflect.Interface {
		return false, guard.Argument("iface", "%s is not an interface type", iface)
	}
	if t.Implements(iface) {
		return true, nil
	}
	if t.Kind() != reflect.Ptr && reflect.PointerTo(t).Implements(iface) {
		return true, nil
	}
	return false, nil
}

// ImplementsOf is Implements with the interface given as a type parameter.
func ImplementsOf[I any](t reflect.Type) (bool, error) {
	return Implements(t, reflect.TypeOf((*I)(nil)).Elem())
}
