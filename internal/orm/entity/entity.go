// Package entity defines the universal base contract shared by every persisted
// domain type, plus the reflection metadata the tracker and store use to read
// and write entity fields.
package entity

import (
	"reflect"
	"strings"
)

// Entity is the universal base entity type. A hook bound to it observes every
// entity that flows through a save.
type Entity interface {
	GetID() int64
	SetID(id int64)
}

// BaseEntity is embedded by domain types to satisfy Entity
type BaseEntity struct {
	ID int64 `db:"id"`
}

// GetID returns the primary key
func (e *BaseEntity) GetID() int64 {
	return e.ID
}

// SetID sets the primary key, typically after an insert
func (e *BaseEntity) SetID(id int64) {
	e.ID = id
}

// TableNamer lets an entity override its table name
type TableNamer interface {
	TableName() string
}

// SoftDeletable is implemented by entities that are flagged instead of removed
type SoftDeletable interface {
	IsDeleted() bool
}

// Type is the reflect type of the universal base entity interface
var Type = reflect.TypeOf((*Entity)(nil)).Elem()

// TypeName returns the bare type name of t, without pointer indirection
func TypeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// NameOf returns the bare type name of the entity's runtime type
func NameOf(e Entity) string {
	return TypeName(reflect.TypeOf(e))
}

// TableName returns the table an entity is stored in
func TableName(e Entity) string {
	if tn, ok := e.(TableNamer); ok {
		return tn.TableName()
	}
	return Pluralize(ToSnakeCase(NameOf(e)))
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}

// Pluralize adds simple English pluralization
func Pluralize(s string) string {
	if strings.HasSuffix(s, "s") ||
		strings.HasSuffix(s, "x") ||
		strings.HasSuffix(s, "z") {
		return s + "es"
	}
	if strings.HasSuffix(s, "y") {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}
