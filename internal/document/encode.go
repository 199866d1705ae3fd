package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marshal serializes the document in key order. Plain boolean scalars are
// written as the ON/OFF tokens the backend expects; quoted strings are left
// alone. The output is spaced by Normalize.
func (d *Document) Marshal() ([]byte, error) {
	top := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range d.Entities() {
		key := e.key
		if key == nil {
			key = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.ID}
		}
		value := cloneNode(e.node)
		rewriteBools(value)
		top.Content = append(top.Content, key, value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return Normalize(buf.Bytes()), nil
}

// WriteFile serializes the document to path, creating parent directories.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Normalize separates top-level entries with a blank line.
func Normalize(data []byte) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	var out bytes.Buffer
	seenTopLevel := false
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		if isTopLevel(line) {
			if seenTopLevel {
				out.WriteByte('\n')
			}
			seenTopLevel = true
		}
		out.Write(line)
	}
	return out.Bytes()
}

func rewriteBools(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Style == 0 && n.ShortTag() == "!!bool" {
		token := "OFF"
		if strings.EqualFold(n.Value, "true") {
			token = "ON"
		}
		n.Tag = "!!str"
		n.Value = token
		return
	}
	for _, child := range n.Content {
		rewriteBools(child)
	}
}

func isTopLevel(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] == '#' {
		return false
	}
	return line[0] != ' ' && line[0] != '\t' && line[0] != '-'
}
