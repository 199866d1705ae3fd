package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"onboarder/internal/config"
)

var (
	ErrEmptyDocument     = errors.New("configuration document is empty")
	ErrInvalidYAML       = errors.New("invalid YAML in configuration document")
	ErrNotMapping        = errors.New("configuration document must be a mapping of entity identifiers")
	ErrInvalidEntity     = errors.New("entity record must be a mapping")
	ErrDuplicateKey      = errors.New("duplicate entity identifier")
	ErrMissingBuilding   = errors.New("no building entity found in document")
	ErrMultipleBuildings = errors.New("more than one building entity found in document")
)

// Document is an ordered mapping from entity identifier to entity record. The
// metadata record is stored like any other entity under its reserved key.
type Document struct {
	order    []string
	entities map[string]*Entity
}

func New() *Document {
	return &Document{entities: make(map[string]*Entity)}
}

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}

	var root yaml.Node
	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrEmptyDocument
	}

	top := resolveAliases(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	doc := New()
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i], top.Content[i+1]
		if value.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEntity, key.Value)
		}
		if doc.Has(key.Value) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, key.Value)
		}
		doc.Set(&Entity{ID: key.Value, key: key, node: value})
	}
	return doc, nil
}

func (d *Document) Len() int {
	return len(d.order)
}

func (d *Document) Keys() []string {
	return append([]string(nil), d.order...)
}

func (d *Document) Has(id string) bool {
	_, ok := d.entities[id]
	return ok
}

func (d *Document) Get(id string) (*Entity, bool) {
	e, ok := d.entities[id]
	return e, ok
}

// Entities returns the records in document order.
func (d *Document) Entities() []*Entity {
	out := make([]*Entity, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.entities[id])
	}
	return out
}

// Set appends e, or replaces the record with the same identifier in place.
func (d *Document) Set(e *Entity) {
	if _, exists := d.entities[e.ID]; !exists {
		d.order = append(d.order, e.ID)
	}
	d.entities[e.ID] = e
}

func (d *Document) Delete(id string) {
	if _, exists := d.entities[id]; !exists {
		return
	}
	delete(d.entities, id)
	for i, key := range d.order {
		if key == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Document) Clone() *Document {
	out := New()
	for _, e := range d.Entities() {
		out.Set(e.Clone())
	}
	return out
}

func (d *Document) Metadata(schema *config.Schema) (*Entity, bool) {
	return d.Get(schema.MetadataKey)
}

// Building returns the single entity whose type marks it as the building.
func (d *Document) Building(schema *config.Schema) (*Entity, error) {
	var found *Entity
	for _, e := range d.Entities() {
		if e.ID == schema.MetadataKey || !schema.IsBuildingType(e.Type()) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s and %s", ErrMultipleBuildings, found.ID, e.ID)
		}
		found = e
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no entity has type %s", ErrMissingBuilding, schema.BuildingType)
	}
	return found, nil
}

// resolveAliases replaces alias nodes with copies of their anchors so every
// entity can be serialized on its own.
func resolveAliases(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return resolveAliases(cloneNode(n.Alias))
	}
	n.Anchor = ""
	for i, child := range n.Content {
		n.Content[i] = resolveAliases(child)
	}
	return n
}
