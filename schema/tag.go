package schema

import (
	"fmt"
	"go/token"
	"reflect"
	"strings"
	"sync"
)

// TagName is the struct tag read by Introspect.
const TagName = "xshape"

// ParsedTag is the parsed form of an `xshape` struct tag.
type ParsedTag struct {
	Alias string // member name exposed instead of the Go field name
	Skip  bool   // xshape:"-"
}

// TagParser parses and caches xshape tags.
type TagParser struct {
	cache   map[string]*ParsedTag
	cacheMu sync.RWMutex
}

// NewTagParser returns an empty parser.
func NewTagParser() *TagParser {
	return &TagParser{cache: make(map[string]*ParsedTag, 32)}
}

var defaultTagParser = NewTagParser()

// ParseTag parses the xshape tag of a field.
//
// Supported syntax:
//
//	`xshape:"Alias"`        // expose the field as Alias
//	`xshape:"name:Alias"`   // same, explicit form
//	`xshape:"-"`            // skip the field
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue, ok := tag.Lookup(TagName)
	if !ok || tagValue == "" {
		return &ParsedTag{}, nil
	}

	p.cacheMu.RLock()
	if cached, exists := p.cache[tagValue]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := parseTagValue(tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[tagValue] = parsed
	p.cacheMu.Unlock()
	return parsed, nil
}

func parseTagValue(tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{}
	for _, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		key, value, hasValue := strings.Cut(option, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch {
		case !hasValue:
			parsed.Alias = key
		case key == "name":
			parsed.Alias = value
		default:
			return nil, fmt.Errorf("unknown xshape tag option %q", key)
		}
	}

	if parsed.Alias != "" && (!token.IsIdentifier(parsed.Alias) || !token.IsExported(parsed.Alias)) {
		return nil, fmt.Errorf("xshape alias %q is not an exported identifier", parsed.Alias)
	}
	return parsed, nil
}
