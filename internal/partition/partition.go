package partition

import (
	"log/slog"

	"onboarder/internal/config"
	"onboarder/internal/document"
)

// Unit is one backend-submittable document: metadata, building, one primary
// entity and, for virtual primaries, the entities it links to.
type Unit struct {
	Category Category
	Primary  string
	Linked   []string
	Doc      *document.Document
	Path     string
}

type Result struct {
	Reporting     []*Unit
	UpdateVirtual []*Unit
	AddVirtual    []*Unit
	Unclassified  []string
}

// Units returns every unit in category order.
func (r *Result) Units() []*Unit {
	out := make([]*Unit, 0, len(r.Reporting)+len(r.UpdateVirtual)+len(r.AddVirtual))
	out = append(out, r.Reporting...)
	out = append(out, r.UpdateVirtual...)
	out = append(out, r.AddVirtual...)
	return out
}

func (r *Result) ByCategory(c Category) []*Unit {
	switch c {
	case CategoryReporting:
		return r.Reporting
	case CategoryUpdateVirtual:
		return r.UpdateVirtual
	case CategoryAddVirtual:
		return r.AddVirtual
	default:
		return nil
	}
}

type Partitioner struct {
	schema *config.Schema
	logger *slog.Logger
}

func New(schema *config.Schema, logger *slog.Logger) *Partitioner {
	if schema == nil {
		schema = config.DefaultSchema()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Partitioner{schema: schema, logger: logger}
}

type header struct {
	metadata *document.Entity
	building *document.Entity
}

func (p *Partitioner) header(doc *document.Document) (header, error) {
	building, err := doc.Building(p.schema)
	if err != nil {
		return header{}, err
	}
	metadata, ok := doc.Metadata(p.schema)
	if !ok {
		metadata = document.NewEntity(p.schema.MetadataKey)
		metadata.SetString(document.FieldOperation, OperationUpdate)
	}
	return header{metadata: metadata, building: building}, nil
}

func (h header) isHeader(id string) bool {
	return id == h.metadata.ID || id == h.building.ID
}

// newUnitDoc starts a unit with private copies of the header records.
func (h header) newUnitDoc() *document.Document {
	unit := document.New()
	unit.Set(h.metadata.Clone())
	unit.Set(h.building.Clone())
	return unit
}

// Partition classifies every non-header entity of doc and splits the result
// into one unit per primary entity. doc is not modified.
func (p *Partitioner) Partition(doc *document.Document) (*Result, error) {
	h, err := p.header(doc)
	if err != nil {
		return nil, err
	}

	working := map[Category]*document.Document{
		CategoryReporting:     document.New(),
		CategoryUpdateVirtual: document.New(),
		CategoryAddVirtual:    document.New(),
	}

	result := &Result{}
	var conflicts []Conflict
	var invalidOps []string
	for _, e := range doc.Entities() {
		if h.isHeader(e.ID) {
			continue
		}
		matched, invalidOp := Classify(e)
		switch {
		case len(matched) > 1:
			conflicts = append(conflicts, Conflict{GUID: e.ID, Categories: matched})
		case invalidOp:
			invalidOps = append(invalidOps, e.ID)
		case len(matched) == 1:
			working[matched[0]].Set(e.Clone())
		default:
			result.Unclassified = append(result.Unclassified, e.ID)
		}
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	if len(invalidOps) > 0 {
		return nil, &OperationError{GUIDs: invalidOps}
	}
	for _, id := range result.Unclassified {
		p.logger.Warn("entity matches no category, skipping", "guid", id)
	}

	for _, c := range []Category{CategoryUpdateVirtual, CategoryAddVirtual} {
		if err := p.expandLinks(working[c], doc, h); err != nil {
			return nil, err
		}
	}

	result.Reporting = p.splitWithoutLinks(CategoryReporting, working[CategoryReporting], h)
	result.UpdateVirtual, err = p.splitWithLinks(CategoryUpdateVirtual, working[CategoryUpdateVirtual], h)
	if err != nil {
		return nil, err
	}
	result.AddVirtual, err = p.splitWithLinks(CategoryAddVirtual, working[CategoryAddVirtual], h)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("partitioned document",
		"reporting", len(result.Reporting),
		"update_virtual", len(result.UpdateVirtual),
		"add_virtual", len(result.AddVirtual),
		"unclassified", len(result.Unclassified),
	)
	return result, nil
}

// expandLinks copies every entity referenced by a primary of set into set,
// minus the fields stripped on link. Expansion is one level deep.
func (p *Partitioner) expandLinks(set, source *document.Document, h header) error {
	var added []*document.Entity
	seen := make(map[string]struct{})
	for _, primary := range set.Entities() {
		if !primary.IsVirtual() {
			continue
		}
		for _, guid := range primary.Links() {
			if guid == primary.ID {
				return &RecursiveLinkError{GUID: guid, LinkedFrom: primary.ID}
			}
			if _, ok := seen[guid]; ok || set.Has(guid) || h.isHeader(guid) {
				continue
			}
			linked, ok := source.Get(guid)
			if !ok {
				return &MissingLinkError{GUID: guid, LinkedFrom: primary.ID}
			}
			if linked.IsVirtual() {
				return &RecursiveLinkError{GUID: guid, LinkedFrom: primary.ID}
			}
			added = append(added, linked.Without(p.schema.LinkStripFields...))
			seen[guid] = struct{}{}
		}
	}
	for _, e := range added {
		set.Set(e)
	}
	return nil
}

func (p *Partitioner) splitWithoutLinks(c Category, set *document.Document, h header) []*Unit {
	var units []*Unit
	for _, e := range set.Entities() {
		if e.IsVirtual() {
			continue
		}
		doc := h.newUnitDoc()
		doc.Set(e.Clone())
		units = append(units, p.finish(&Unit{Category: c, Primary: e.ID, Doc: doc}))
	}
	return units
}

func (p *Partitioner) splitWithLinks(c Category, set *document.Document, h header) ([]*Unit, error) {
	var units []*Unit
	for _, primary := range set.Entities() {
		if !primary.IsVirtual() {
			continue
		}
		doc := h.newUnitDoc()
		doc.Set(primary.Clone())
		unit := &Unit{Category: c, Primary: primary.ID, Doc: doc}
		for _, guid := range primary.Links() {
			if h.isHeader(guid) || doc.Has(guid) {
				continue
			}
			linked, ok := set.Get(guid)
			if !ok {
				return nil, &MissingLinkError{GUID: guid, LinkedFrom: primary.ID}
			}
			if linked.IsVirtual() {
				return nil, &RecursiveLinkError{GUID: guid, LinkedFrom: primary.ID}
			}
			doc.Set(linked.Without(p.schema.LinkStripFields...))
			unit.Linked = append(unit.Linked, guid)
		}
		units = append(units, p.finish(unit))
	}
	return units, nil
}

func (p *Partitioner) finish(u *Unit) *Unit {
	for _, e := range u.Doc.Entities() {
		e.LowercaseUpdateMask()
	}
	return u
}
