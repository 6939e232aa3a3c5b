package scene

import "strings"

// Material holds the surface flags the compiler consults.
type Material struct {
	Name       string
	Drawn      bool // emits visible triangles
	Opaque     bool // solid content, blocks flood fills
	AreaPortal bool // separates areas
	NoShadows  bool // does not cast shadows
	Unique     bool // never merged with other surfaces (mirrors, guis)
}

// DefaultMaterial guesses the flags of a material that was not declared,
// using the conventional editor material names.
func DefaultMaterial(name string) Material {
	lower := strings.ToLower(name)
	m := Material{Name: name, Drawn: true, Opaque: true}
	switch {
	case strings.Contains(lower, "areaportal") || strings.HasSuffix(lower, "visportal"):
		m.Drawn = false
		m.Opaque = false
		m.AreaPortal = true
		m.NoShadows = true
	case strings.HasSuffix(lower, "nodraw") || strings.HasSuffix(lower, "caulk"):
		m.Drawn = false
	case strings.HasSuffix(lower, "clip") || strings.HasSuffix(lower, "trigger"):
		m.Drawn = false
		m.Opaque = false
		m.NoShadows = true
	}
	return m
}

// MaterialTable resolves material names to flags.
type MaterialTable struct {
	byName map[string]*Material
}

// NewMaterialTable creates a table holding the given materials.
func NewMaterialTable(materials ...Material) *MaterialTable {
	t := &MaterialTable{byName: make(map[string]*Material)}
	for _, m := range materials {
		t.Add(m)
	}
	return t
}

// Add declares or replaces a material.
func (t *MaterialTable) Add(m Material) {
	t.byName[strings.ToLower(m.Name)] = &m
}

// Lookup returns the declared material, or a default one which is then
// remembered. A nil table resolves every name to its default.
func (t *MaterialTable) Lookup(name string) *Material {
	if t == nil {
		m := DefaultMaterial(name)
		return &m
	}
	key := strings.ToLower(name)
	if m, ok := t.byName[key]; ok {
		return m
	}
	m := DefaultMaterial(name)
	t.byName[key] = &m
	return &m
}

// Clone returns a copy of t that can remember defaults without touching t.
// A nil table clones to an empty one.
func (t *MaterialTable) Clone() *MaterialTable {
	c := NewMaterialTable()
	if t == nil {
		return c
	}
	for k, m := range t.byName {
		cp := *m
		c.byName[k] = &cp
	}
	return c
}

// Len returns the number of known materials.
func (t *MaterialTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byName)
}
