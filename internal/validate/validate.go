package validate

import (
	"fmt"
	"strings"

	"onboarder/internal/config"
	"onboarder/internal/document"
	"onboarder/internal/partition"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingBuilding   = "missing_building"
	codeMultipleBuildings = "multiple_buildings"
	codeCategoryConflict  = "category_conflict"
	codeRecursiveLink     = "recursive_link"
	codeMissingLinkTarget = "missing_link_target"
	codeInvalidOperation  = "invalid_operation"
	codeMissingMetadata   = "missing_metadata"
	codeUnclassified      = "unclassified_entity"
	codeUppercaseMask     = "uppercase_update_mask"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Entity   string
	FilePath string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

func (r *Report) filter(severity Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

// RunFile parses path and validates it. Parse failures are returned as errors,
// not issues.
func RunFile(path string, schema *config.Schema) (*Report, error) {
	doc, err := document.ParseFile(path)
	if err != nil {
		return nil, err
	}
	report, err := Run(doc, schema)
	if err != nil {
		return nil, err
	}
	for i := range report.Issues {
		report.Issues[i].FilePath = path
	}
	return report, nil
}

// Run checks doc for everything that would stop it from being partitioned,
// plus conditions the partitioner silently repairs or skips. All issues are
// collected in one pass.
func Run(doc *document.Document, schema *config.Schema) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	if schema == nil {
		return nil, fmt.Errorf("schema is required")
	}

	issues := make([]Issue, 0)
	issues = append(issues, validateHeader(doc, schema)...)

	for _, e := range doc.Entities() {
		if e.ID == schema.MetadataKey || schema.IsBuildingType(e.Type()) {
			issues = append(issues, validateUpdateMask(e)...)
			continue
		}
		issues = append(issues, validateClassification(e)...)
		issues = append(issues, validateLinks(doc, e)...)
		issues = append(issues, validateUpdateMask(e)...)
	}

	return &Report{Issues: issues}, nil
}

func validateHeader(doc *document.Document, schema *config.Schema) []Issue {
	var issues []Issue
	if _, ok := doc.Metadata(schema); !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeMissingMetadata,
			Message:  fmt.Sprintf("%s not found; operation UPDATE will be used", schema.MetadataKey),
		})
	}

	var buildings []string
	for _, e := range doc.Entities() {
		if e.ID != schema.MetadataKey && schema.IsBuildingType(e.Type()) {
			buildings = append(buildings, e.ID)
		}
	}
	switch {
	case len(buildings) == 0:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeMissingBuilding,
			Message:  fmt.Sprintf("no entity has type %s", schema.BuildingType),
		})
	case len(buildings) > 1:
		for _, id := range buildings {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMultipleBuildings,
				Message:  fmt.Sprintf("one of %d building entities", len(buildings)),
				Entity:   id,
			})
		}
	}
	return issues
}

func validateClassification(e *document.Entity) []Issue {
	matched, invalidOp := partition.Classify(e)
	switch {
	case len(matched) > 1:
		names := make([]string, len(matched))
		for i, c := range matched {
			names[i] = string(c)
		}
		return []Issue{{
			Severity: SeverityError,
			Code:     codeCategoryConflict,
			Message:  "entity qualifies for " + strings.Join(names, " and "),
			Entity:   e.ID,
		}}
	case invalidOp:
		op := e.Operation()
		if op == "" {
			op = "none"
		}
		return []Issue{{
			Severity: SeverityError,
			Code:     codeInvalidOperation,
			Message:  fmt.Sprintf("entity has links but operation is %s, expected UPDATE or ADD", op),
			Entity:   e.ID,
		}}
	case len(matched) == 0:
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeUnclassified,
			Message:  "entity has neither translation nor links and will not be onboarded",
			Entity:   e.ID,
		}}
	}
	return nil
}

func validateLinks(doc *document.Document, e *document.Entity) []Issue {
	if !e.IsVirtual() {
		return nil
	}

	var issues []Issue
	for _, guid := range e.Links() {
		if guid == e.ID {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeRecursiveLink,
				Message:  "entity links to itself",
				Entity:   e.ID,
			})
			continue
		}
		linked, ok := doc.Get(guid)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingLinkTarget,
				Message:  fmt.Sprintf("linked entity %s not found", guid),
				Entity:   e.ID,
			})
			continue
		}
		if linked.IsVirtual() {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeRecursiveLink,
				Message:  fmt.Sprintf("linked entity %s declares links of its own", guid),
				Entity:   e.ID,
			})
		}
	}
	return issues
}

func validateUpdateMask(e *document.Entity) []Issue {
	for _, path := range e.Strings(document.FieldUpdateMask) {
		if path != strings.ToLower(path) {
			return []Issue{{
				Severity: SeverityWarn,
				Code:     codeUppercaseMask,
				Message:  "update_mask contains upper-case paths; they will be lower-cased",
				Entity:   e.ID,
			}}
		}
	}
	return nil
}
