package entity

import (
	"reflect"
	"strings"
	"sync"
)

// Field describes one persisted struct field
type Field struct {
	// Name is the Go field name
	Name string
	// Column is the column name from the db tag, or the snake_case field name
	Column string
	// Index is the field index path, including embedded structs
	Index []int
}

var fieldCache sync.Map // reflect.Type -> []Field

// Fields returns the persisted fields of a struct type (or pointer to struct).
// Embedded structs are flattened; fields tagged db:"-" and unexported fields
// are skipped. Results are cached per type.
func Fields(t reflect.Type) []Field {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]Field)
	}

	var fields []Field
	if t.Kind() == reflect.Struct {
		fields = collectFields(t, nil)
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]Field)
}

func collectFields(t reflect.Type, parent []int) []Field {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			fields = append(fields, collectFields(sf.Type, index)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		column := ToSnakeCase(sf.Name)
		if tag, ok := sf.Tag.Lookup("db"); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				continue
			}
			if name != "" {
				column = name
			}
		}

		fields = append(fields, Field{Name: sf.Name, Column: column, Index: index})
	}
	return fields
}

// Values reads the persisted field values of e keyed by Go field name
func Values(e Entity) map[string]interface{} {
	v := reflect.ValueOf(e)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return map[string]interface{}{}
		}
		v = v.Elem()
	}

	fields := Fields(v.Type())
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		values[f.Name] = v.FieldByIndex(f.Index).Interface()
	}
	return values
}
