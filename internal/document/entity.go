package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FieldType        = "type"
	FieldTranslation = "translation"
	FieldLinks       = "links"
	FieldOperation   = "operation"
	FieldUpdateMask  = "update_mask"
	FieldEtag        = "etag"
)

// Entity is one record of a configuration document. Field order and scalar
// styles from the source file are preserved.
type Entity struct {
	ID   string
	key  *yaml.Node
	node *yaml.Node
}

func NewEntity(id string) *Entity {
	return &Entity{
		ID:   id,
		key:  &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id},
		node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"},
	}
}

func (e *Entity) Fields() []string {
	fields := make([]string, 0, len(e.node.Content)/2)
	for i := 0; i+1 < len(e.node.Content); i += 2 {
		fields = append(fields, e.node.Content[i].Value)
	}
	return fields
}

func (e *Entity) lookup(field string) (*yaml.Node, int) {
	for i := 0; i+1 < len(e.node.Content); i += 2 {
		if e.node.Content[i].Value == field {
			return e.node.Content[i+1], i
		}
	}
	return nil, -1
}

func (e *Entity) Has(field string) bool {
	_, idx := e.lookup(field)
	return idx >= 0
}

// String returns the scalar value of field, or "" when absent or not a scalar.
func (e *Entity) String(field string) string {
	value, _ := e.lookup(field)
	if value == nil || value.Kind != yaml.ScalarNode {
		return ""
	}
	return value.Value
}

// Strings returns the scalar items of a sequence field. A scalar field is
// treated as a one-item sequence.
func (e *Entity) Strings(field string) []string {
	value, _ := e.lookup(field)
	if value == nil {
		return nil
	}
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			return nil
		}
		return []string{value.Value}
	case yaml.SequenceNode:
		items := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind == yaml.ScalarNode {
				items = append(items, item.Value)
			}
		}
		return items
	default:
		return nil
	}
}

// Bool interprets field as a boolean, accepting the ON/OFF tokens used by the
// backend alongside YAML boolean literals.
func (e *Entity) Bool(field string) (value bool, ok bool) {
	switch strings.ToLower(e.String(field)) {
	case "true", "on", "yes":
		return true, true
	case "false", "off", "no":
		return false, true
	default:
		return false, false
	}
}

func (e *Entity) Type() string      { return e.String(FieldType) }
func (e *Entity) Operation() string { return e.String(FieldOperation) }
func (e *Entity) IsVirtual() bool   { return e.Has(FieldLinks) }
func (e *Entity) IsReporting() bool { return e.Has(FieldTranslation) }

// Links returns the linked GUIDs in document order. Links may be written as
// a sequence of GUIDs or as a mapping keyed by GUID with field translations
// as values.
func (e *Entity) Links() []string {
	value, _ := e.lookup(FieldLinks)
	if value == nil || value.Kind != yaml.MappingNode {
		return e.Strings(FieldLinks)
	}
	guids := make([]string, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		guids = append(guids, value.Content[i].Value)
	}
	return guids
}

func (e *Entity) Etag() (string, bool) {
	value, _ := e.lookup(FieldEtag)
	if value == nil || value.Kind != yaml.ScalarNode || value.ShortTag() == "!!null" {
		return "", false
	}
	return value.Value, true
}

// SetEtag stores etag as a single-quoted string so numeric-looking tokens are
// never coerced.
func (e *Entity) SetEtag(etag string) {
	e.setNode(FieldEtag, &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: etag,
		Style: yaml.SingleQuotedStyle,
	})
}

func (e *Entity) SetString(field, value string) {
	e.setNode(field, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func (e *Entity) SetStrings(field string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	e.setNode(field, seq)
}

func (e *Entity) setNode(field string, value *yaml.Node) {
	if _, idx := e.lookup(field); idx >= 0 {
		e.node.Content[idx+1] = value
		return
	}
	e.node.Content = append(e.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: field},
		value,
	)
}

func (e *Entity) Remove(field string) {
	if _, idx := e.lookup(field); idx >= 0 {
		e.node.Content = append(e.node.Content[:idx], e.node.Content[idx+2:]...)
	}
}

// LowercaseUpdateMask lower-cases every update_mask path in place and reports
// how many items changed.
func (e *Entity) LowercaseUpdateMask() int {
	value, _ := e.lookup(FieldUpdateMask)
	if value == nil {
		return 0
	}
	items := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		items = value.Content
	}
	changed := 0
	for _, item := range items {
		if item.Kind != yaml.ScalarNode {
			continue
		}
		lower := strings.ToLower(item.Value)
		if lower != item.Value {
			item.Value = lower
			changed++
		}
	}
	return changed
}

func (e *Entity) Clone() *Entity {
	return &Entity{ID: e.ID, key: cloneNode(e.key), node: cloneNode(e.node)}
}

// Without returns a copy of e minus the named fields.
func (e *Entity) Without(fields ...string) *Entity {
	out := e.Clone()
	for _, field := range fields {
		out.Remove(field)
	}
	return out
}

// Decode converts the record into plain Go values.
func (e *Entity) Decode() (map[string]any, error) {
	out := make(map[string]any)
	if err := e.node.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding entity %s: %w", e.ID, err)
	}
	return out, nil
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			out.Content[i] = cloneNode(child)
		}
	}
	return &out
}
