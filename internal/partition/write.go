package partition

import (
	"fmt"
	"path/filepath"
	"strings"

	"onboarder/internal/document"
)

// CategoryDir is the folder holding the unit files of c, e.g. update_virtual_entities.
func CategoryDir(baseDir string, c Category) string {
	return filepath.Join(baseDir, string(c)+"_entities")
}

// WriteUnits writes every unit of r under baseDir as
// <category>_entities/<category>_config_pt<N>.yaml and records each path on its unit.
func WriteUnits(baseDir string, r *Result) ([]string, error) {
	var paths []string
	for _, c := range Categories {
		for i, unit := range r.ByCategory(c) {
			name := fmt.Sprintf("%s_config_pt%d.yaml", c, i+1)
			path := filepath.Join(CategoryDir(baseDir, c), name)
			if err := unit.Doc.WriteFile(path); err != nil {
				return paths, fmt.Errorf("writing unit for %s: %w", unit.Primary, err)
			}
			unit.Path = path
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// SplitEntities returns one document per non-header entity of doc, each
// carrying the metadata and building records. Unlike Partition it performs no
// classification and no link expansion.
func (p *Partitioner) SplitEntities(doc *document.Document) ([]*Unit, error) {
	h, err := p.header(doc)
	if err != nil {
		return nil, err
	}

	var units []*Unit
	for _, e := range doc.Entities() {
		if h.isHeader(e.ID) {
			continue
		}
		unitDoc := h.newUnitDoc()
		unitDoc.Set(e.Clone())
		units = append(units, &Unit{Primary: e.ID, Doc: unitDoc})
	}
	return units, nil
}

// WriteSplit writes units next to inputPath as <base>_pt<N>.yaml.
func WriteSplit(inputPath string, units []*Unit) ([]string, error) {
	dir := filepath.Dir(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	paths := make([]string, 0, len(units))
	for i, unit := range units {
		path := filepath.Join(dir, fmt.Sprintf("%s_pt%d.yaml", base, i+1))
		if err := unit.Doc.WriteFile(path); err != nil {
			return paths, fmt.Errorf("writing split for %s: %w", unit.Primary, err)
		}
		unit.Path = path
		paths = append(paths, path)
	}
	return paths, nil
}
