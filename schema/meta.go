package schema

import (
	"fmt"
	"reflect"
	"slices"
)

type candidate struct {
	field     *FieldMeta
	ambiguous bool
}

// buildMeta enumerates the readable members of struct type t. Promoted
// fields follow Go's selector rules: the shallowest wins, and two at the
// same depth cancel each other out. Fields reached through embedded
// pointers are not enumerated since they have no fixed offset.
func buildMeta(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("invalid source type: %s (expected struct)", t.Kind())
	}

	byName := make(map[string]*candidate, t.NumField())
	order := make([]string, 0, t.NumField())

	var walk func(st reflect.Type, index []int, base uintptr, depth int) error
	walk = func(st reflect.Type, index []int, base uintptr, depth int) error {
		for i := 0; i < st.NumField(); i++ {
			f := st.Field(i)

			parsedTag, err := defaultTagParser.ParseTag(f.Name, f.Tag)
			if err != nil {
				return fmt.Errorf("error parsing tag for field %s: %w", f.Name, err)
			}
			if parsedTag.Skip {
				continue
			}

			fieldIndex := append(slices.Clone(index), i)
			if f.Anonymous {
				if f.Type.Kind() == reflect.Struct {
					if err := walk(f.Type, fieldIndex, base+f.Offset, depth+1); err != nil {
						return err
					}
				}
				continue
			}
			if !f.IsExported() {
				continue
			}

			name := f.Name
			if parsedTag.Alias != "" {
				name = parsedTag.Alias
			}
			fm := &FieldMeta{
				Name:   name,
				GoName: f.Name,
				Type:   f.Type,
				Index:  fieldIndex,
				Depth:  depth,
				Tag:    parsedTag,
				Offset: base + f.Offset,
			}

			existing, seen := byName[name]
			switch {
			case !seen:
				byName[name] = &candidate{field: fm}
				order = append(order, name)
			case existing.field.Depth < depth:
				// shadowed by a shallower member
			case existing.field.Depth > depth:
				existing.field, existing.ambiguous = fm, false
			case depth == 0:
				return fmt.Errorf("duplicate member name %q on %s", name, t)
			default:
				existing.ambiguous = true
			}
		}
		return nil
	}

	if err := walk(t, nil, 0, 0); err != nil {
		return nil, err
	}

	meta := &EntityMeta{
		Type:     t,
		Name:     t.Name(),
		Fields:   make([]*FieldMeta, 0, len(order)),
		FieldMap: make(map[string]*FieldMeta, len(order)),
	}
	for _, name := range order {
		c := byName[name]
		if c.ambiguous {
			continue
		}
		meta.Fields = append(meta.Fields, c.field)
		meta.FieldMap[name] = c.field
	}
	return meta, nil
}
