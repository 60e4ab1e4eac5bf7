package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Extent is a half-size on each axis, in meters.
type Extent struct {
	X float64 `json:"x" jsonschema:"minimum=0"`
	Y float64 `json:"y" jsonschema:"minimum=0"`
	Z float64 `json:"z" jsonschema:"minimum=0"`
}

// Descriptor models the JSON contract for designer-authored actor
// definitions. It is shared with the schema generator so we can produce a
// machine-readable document for validation and editor tooling.
type Descriptor struct {
	Name       string  `json:"name" jsonschema:"title=Descriptor name,pattern=^[a-z0-9-]+$,description=Identifier actors and remote streams reference"`
	Mass       float64 `json:"mass" jsonschema:"minimum=0,description=Body mass in kilograms; zero falls back to one"`
	HalfExtent Extent  `json:"halfExtent" jsonschema:"description=Half-size of the collision box on each axis"`
	Damping    float64 `json:"damping,omitempty" jsonschema:"minimum=0,maximum=1,description=Per-second velocity damping factor"`

	Aircraft              bool `json:"aircraft,omitempty" jsonschema:"description=Exempt from turbulent drag and shares that exemption when waking neighbors"`
	Rescuer               bool `json:"rescuer,omitempty" jsonschema:"description=Candidate for the rescue shortcut"`
	CollisionRelevant     bool `json:"collisionRelevant,omitempty" jsonschema:"description=Resolves contacts against other actors"`
	DisableSelfCollision  bool `json:"disableSelfCollision,omitempty" jsonschema:"description=Skip the self-collision pass"`
	DisableActorCollision bool `json:"disableActorCollision,omitempty" jsonschema:"description=Skip the actor-collision pass"`
	Streamed              bool `json:"streamed,omitempty" jsonschema:"description=Announce this actor's state to connected peers"`
}

// FileDefinitions represents the contents of a descriptor file. The loader
// accepts either arrays or objects; the schema models the canonical array
// format authored by designers.
type FileDefinitions []Descriptor

// Catalog is the loaded, validated descriptor set.
type Catalog struct {
	byName map[string]Descriptor
}

// Load reads a descriptor file. Object files are keyed by name; an entry
// whose key disagrees with its name field is rejected.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptors: %w", err)
	}
	return Parse(data)
}

// Parse decodes descriptor JSON in either the array or the object layout.
func Parse(data []byte) (*Catalog, error) {
	catalog := &Catalog{byName: make(map[string]Descriptor)}

	var entries FileDefinitions
	if err := json.Unmarshal(data, &entries); err == nil {
		for _, d := range entries {
			if err := catalog.add(d); err != nil {
				return nil, err
			}
		}
		return catalog, nil
	}

	var keyed map[string]Descriptor
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("descriptors are neither an array nor an object: %w", err)
	}
	for key, d := range keyed {
		if d.Name == "" {
			d.Name = key
		} else if d.Name != key {
			return nil, fmt.Errorf("descriptor key %q disagrees with name %q", key, d.Name)
		}
		if err := catalog.add(d); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func (c *Catalog) add(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("descriptor missing name")
	}
	if _, exists := c.byName[d.Name]; exists {
		return fmt.Errorf("duplicate descriptor %q", d.Name)
	}
	if d.Mass <= 0 {
		d.Mass = 1
	}
	c.byName[d.Name] = d
	return nil
}

// Lookup returns the named descriptor.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	if c == nil {
		return Descriptor{}, false
	}
	d, ok := c.byName[name]
	return d, ok
}

// Has reports whether the named descriptor exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns every descriptor name in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of loaded descriptors.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byName)
}
