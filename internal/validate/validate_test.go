package validate

import (
	"os"
	"path/filepath"
	"testing"

	"onboarder/internal/config"
	"onboarder/internal/document"
)

func parseDoc(t *testing.T, content string) *document.Document {
	t.Helper()
	doc, err := document.Parse([]byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func codes(issues []Issue) map[string][]string {
	out := make(map[string][]string)
	for _, issue := range issues {
		out[issue.Code] = append(out[issue.Code], issue.Entity)
	}
	return out
}

func TestRun_CleanDocument(t *testing.T) {
	doc := parseDoc(t, `CONFIG_METADATA:
  operation: UPDATE
bldg-1:
  type: FACILITIES/BUILDING
sensor-1:
  translation: {temp: x}
  update_mask: [translation]
vav-1:
  operation: UPDATE
  links: [sensor-2]
sensor-2:
  type: HVAC/SENSOR
  translation: {temp: y}
`)
	report, err := Run(doc, config.DefaultSchema())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatalf("expected no errors")
	}
}

func TestRun_CollectsAllIssues(t *testing.T) {
	doc := parseDoc(t, `bldg-1:
  type: FACILITIES/BUILDING
  update_mask: [Type]
both-1:
  translation: {temp: x}
  operation: UPDATE
  links: [leaf]
both-2:
  translation: {temp: x}
  operation: ADD
  links: [leaf]
bad-op:
  operation: DELETE
  links: [leaf]
loop:
  operation: UPDATE
  links: [loop]
dangling:
  operation: UPDATE
  links: [ghost]
outer:
  operation: ADD
  links: [inner]
inner:
  operation: UPDATE
  links: [leaf]
leaf:
  type: HVAC/SENSOR
`)
	report, err := Run(doc, config.DefaultSchema())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := codes(report.Issues)

	tests := []struct {
		code     string
		entities []string
	}{
		{codeMissingMetadata, []string{""}},
		{codeUppercaseMask, []string{"bldg-1"}},
		{codeCategoryConflict, []string{"both-1", "both-2"}},
		{codeInvalidOperation, []string{"bad-op"}},
		{codeRecursiveLink, []string{"loop", "outer"}},
		{codeMissingLinkTarget, []string{"dangling"}},
		{codeUnclassified, []string{"leaf"}},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			entities := got[tt.code]
			if len(entities) != len(tt.entities) {
				t.Fatalf("expected %v, got %v", tt.entities, entities)
			}
			for i := range entities {
				if entities[i] != tt.entities[i] {
					t.Fatalf("expected %v, got %v", tt.entities, entities)
				}
			}
		})
	}

	if len(report.Warnings()) != 3 {
		t.Fatalf("expected 3 warnings, got %+v", report.Warnings())
	}
	if !report.HasErrors() {
		t.Fatalf("expected errors")
	}
}

func TestRun_Buildings(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		report, err := Run(parseDoc(t, "CONFIG_METADATA:\n  operation: UPDATE\nx:\n  translation: {a: b}\n"), config.DefaultSchema())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(codes(report.Errors())[codeMissingBuilding]) != 1 {
			t.Fatalf("expected missing building, got %+v", report.Issues)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		report, err := Run(parseDoc(t, `CONFIG_METADATA:
  operation: UPDATE
b1:
  type: FACILITIES/BUILDING
b2:
  type: FACILITIES/BUILDING
`), config.DefaultSchema())
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		entities := codes(report.Errors())[codeMultipleBuildings]
		if len(entities) != 2 || entities[0] != "b1" || entities[1] != "b2" {
			t.Fatalf("expected both buildings, got %v", entities)
		}
	})
}

func TestRun_RequiresInputs(t *testing.T) {
	if _, err := Run(nil, config.DefaultSchema()); err == nil {
		t.Fatalf("expected error for nil document")
	}
	if _, err := Run(document.New(), nil); err == nil {
		t.Fatalf("expected error for nil schema")
	}
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("x:\n  translation: {a: b}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err := RunFile(path, config.DefaultSchema())
	if err != nil {
		t.Fatalf("run file: %v", err)
	}
	for _, issue := range report.Issues {
		if issue.FilePath != path {
			t.Fatalf("expected file path on every issue, got %+v", issue)
		}
	}

	if _, err := RunFile(filepath.Join(t.TempDir(), "missing.yaml"), config.DefaultSchema()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRun_MappingFormLinks(t *testing.T) {
	doc := parseDoc(t, `CONFIG_METADATA:
  operation: UPDATE
bldg-1:
  type: FACILITIES/BUILDING
v-1:
  operation: ADD
  links:
    src-1: {zone_air_temperature_sensor: temp}
    gone-1: {supply_air_flowrate_sensor: flow}
    v-2: {run_command: cmd}
src-1:
  type: HVAC/SENSOR
v-2:
  operation: ADD
  links: [src-1]
`)
	report, err := Run(doc, config.DefaultSchema())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := codes(report.Errors())
	if len(got[codeMissingLinkTarget]) != 1 || got[codeMissingLinkTarget][0] != "v-1" {
		t.Fatalf("expected missing link target on v-1, got %+v", report.Issues)
	}
	if len(got[codeRecursiveLink]) != 1 || got[codeRecursiveLink][0] != "v-1" {
		t.Fatalf("expected recursive link on v-1, got %+v", report.Issues)
	}
}
