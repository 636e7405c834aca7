package main

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/xshape/reflection"
)

// shapeFile is the YAML form of a field shape.
type shapeFile struct {
	Fields map[string]string `yaml:"fields"`
}

// loadShape reads a shape file and resolves its type names.
func loadShape(path string) (map[string]reflect.Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shape: %w", err)
	}
	return parseShape(data)
}

func parseShape(data []byte) (map[string]reflect.Type, error) {
	var sf shapeFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse shape: %w", err)
	}

	fields := make(map[string]reflect.Type, len(sf.Fields))
	for name, typeName := range sf.Fields {
		t, err := reflection.ParseTypeName(typeName)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields[name] = t
	}
	return fields, nil
}
