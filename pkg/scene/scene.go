// Package scene describes the editable map data handed to the compiler:
// entities with key/value pairs and their brush and patch primitives.
package scene

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Well-known entity keys and class names.
const (
	KeyClassname = "classname"
	KeyName      = "name"
	KeyOrigin    = "origin"

	ClassWorldspawn = "worldspawn"
	ClassLight      = "light"
)

// Scene is an ordered list of entities. Entity 0 must be the worldspawn.
type Scene struct {
	Entities  []*Entity
	Materials *MaterialTable
}

// Entity is a map entity with its primitives.
type Entity struct {
	Keys       map[string]string
	Primitives []Primitive
}

// NewEntity creates an entity with the given class name.
func NewEntity(classname string) *Entity {
	return &Entity{Keys: map[string]string{KeyClassname: classname}}
}

// ValueForKey returns the value of key, or "".
func (e *Entity) ValueForKey(key string) string {
	return e.Keys[key]
}

// SetKey sets a key/value pair.
func (e *Entity) SetKey(key, value string) {
	if e.Keys == nil {
		e.Keys = make(map[string]string)
	}
	e.Keys[key] = value
}

// Classname returns the entity class.
func (e *Entity) Classname() string {
	return e.Keys[KeyClassname]
}

// Name returns the entity name key.
func (e *Entity) Name() string {
	return e.Keys[KeyName]
}

// Origin returns the parsed origin key. The second result is false if the
// key is missing or malformed.
func (e *Entity) Origin() (mgl64.Vec3, bool) {
	return e.VectorForKey(KeyOrigin)
}

// SetOrigin stores v in the origin key.
func (e *Entity) SetOrigin(v mgl64.Vec3) {
	e.SetKey(KeyOrigin, FormatVector(v))
}

// VectorForKey parses a "x y z" value.
func (e *Entity) VectorForKey(key string) (mgl64.Vec3, bool) {
	value, ok := e.Keys[key]
	if !ok {
		return mgl64.Vec3{}, false
	}
	return ParseVector(value)
}

// BoolForKey parses a "0"/"1" style value.
func (e *Entity) BoolForKey(key string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Keys[key]), 64)
	return err == nil && v != 0
}

// ParseVector parses three whitespace separated numbers.
func ParseVector(s string) (mgl64.Vec3, bool) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return mgl64.Vec3{}, false
	}
	var v mgl64.Vec3
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mgl64.Vec3{}, false
		}
		v[i] = n
	}
	return v, true
}

// FormatVector formats v the way ParseVector reads it.
func FormatVector(v mgl64.Vec3) string {
	parts := make([]string, 3)
	for i := range parts {
		parts[i] = strconv.FormatFloat(v[i], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
