// Package aircraft defines the selectable aircraft types, their health table,
// and the team color palette assigned by join order.
package aircraft

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Type is an aircraft class chosen by the player at join time.
type Type string

const (
	// Fighter is the default type; unknown or empty names resolve to it.
	Fighter Type = "fighter"
	// Attack trades speed for a slightly tougher airframe.
	Attack Type = "attack"
	// Bomber is the slowest and toughest type.
	Bomber Type = "bomber"
)

// Known reports whether t is one of the selectable aircraft types.
func (t Type) Known() bool {
	switch t {
	case Fighter, Attack, Bomber:
		return true
	}
	return false
}

// Spec is the server-side profile of one aircraft type.
type Spec struct {
	Type      Type `yaml:"type"`
	MaxHealth int  `yaml:"max_health"`
}

// Catalog maps aircraft types to their profiles.
//
// Invariant: the Fighter entry is always present; unknown types resolve to it.
type Catalog struct {
	specs map[Type]Spec
}

// DefaultCatalog returns the built-in table: fighter 5, attack 6, bomber 10.
func DefaultCatalog() *Catalog {
	return &Catalog{specs: map[Type]Spec{
		Fighter: {Type: Fighter, MaxHealth: 5},
		Attack:  {Type: Attack, MaxHealth: 6},
		Bomber:  {Type: Bomber, MaxHealth: 10},
	}}
}

// Resolve returns the profile for the requested type name. Empty or unknown
// names fall back to the fighter profile.
//
// Postcondition: the returned Spec has MaxHealth >= 1.
func (c *Catalog) Resolve(name string) Spec {
	if s, ok := c.specs[Type(name)]; ok {
		return s
	}
	return c.specs[Fighter]
}

// Len returns the number of known aircraft types.
func (c *Catalog) Len() int {
	return len(c.specs)
}

type catalogFile struct {
	Aircraft []Spec `yaml:"aircraft"`
}

// LoadCatalogFromBytes parses a YAML catalog and merges it over the defaults.
// Only the built-in types may be tuned; the catalog cannot add new ones.
//
// Precondition: data must be YAML of the form `aircraft: [{type, max_health}]`.
// Postcondition: Returns a Catalog containing at least the default types, or an error.
func LoadCatalogFromBytes(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing aircraft catalog: %w", err)
	}
	cat := DefaultCatalog()
	for i, s := range f.Aircraft {
		if s.Type == "" {
			return nil, fmt.Errorf("aircraft catalog entry %d: type must not be empty", i)
		}
		if !s.Type.Known() {
			return nil, fmt.Errorf("aircraft catalog entry %d: unknown type %q, want one of [fighter, attack, bomber]", i, s.Type)
		}
		if s.MaxHealth < 1 {
			return nil, fmt.Errorf("aircraft %q: max_health must be >= 1, got %d", s.Type, s.MaxHealth)
		}
		cat.specs[s.Type] = s
	}
	return cat, nil
}

// LoadCatalog reads a YAML catalog file. An empty path returns DefaultCatalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading aircraft catalog %q: %w", path, err)
	}
	return LoadCatalogFromBytes(data)
}
