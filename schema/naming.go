package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// NamingStrategy converts a Go field name into the name written to the
// struct tag of a synthesized field.
type NamingStrategy interface {
	FieldName(fieldName string) string
}

// NamingType selects a naming convention.
type NamingType int

const (
	NamingSnakeCase  NamingType = iota // first_name, user_id
	NamingCamelCase                    // firstName, userId
	NamingPascalCase                   // FirstName, UserId
	NamingNone                         // no tag is written
)

type namingStrategy struct {
	namingType NamingType
}

// NewNamingStrategy returns the strategy for namingType.
func NewNamingStrategy(namingType NamingType) NamingStrategy {
	return &namingStrategy{namingType: namingType}
}

// DefaultNamingStrategy returns the snake_case strategy.
func DefaultNamingStrategy() NamingStrategy {
	return NewNamingStrategy(NamingSnakeCase)
}

func (s *namingStrategy) FieldName(fieldName string) string {
	switch s.namingType {
	case NamingCamelCase:
		return toCamelCase(fieldName)
	case NamingPascalCase:
		return toPascalCase(fieldName)
	case NamingNone:
		return ""
	default:
		return toSnakeCase(fieldName)
	}
}

// ParseNamingType maps "snake", "camel", "pascal" and "none" to a NamingType.
func ParseNamingType(s string) (NamingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "snake", "snake_case":
		return NamingSnakeCase, nil
	case "camel", "camelcase":
		return NamingCamelCase, nil
	case "pascal", "pascalcase":
		return NamingPascalCase, nil
	case "none":
		return NamingNone, nil
	}
	return 0, fmt.Errorf("unknown naming strategy %q", s)
}

// FieldTag builds the struct tag `key:"<name>"` for fieldName, or an empty
// tag when key is empty or the strategy yields no name.
func FieldTag(key string, strategy NamingStrategy, fieldName string) reflect.StructTag {
	if key == "" || strategy == nil {
		return ""
	}
	name := strategy.FieldName(fieldName)
	if name == "" {
		return ""
	}
	return reflect.StructTag(key + ":" + strconv.Quote(name))
}

// toSnakeCase converts any naming convention to snake_case, keeping
// acronyms together: HTTPServer -> http_server, UserID -> user_id.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				if prev != '_' {
					result.WriteByte('_')
				}
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func toCamelCase(name string) string {
	pascal := toPascalCase(name)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func toPascalCase(name string) string {
	var result strings.Builder
	result.Grow(len(name))
	for _, part := range strings.Split(toSnakeCase(name), "_") {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		result.WriteString(string(runes))
	}
	return result.String()
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
