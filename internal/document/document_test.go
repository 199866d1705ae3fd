package document

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"onboarder/internal/config"
)

const sampleConfig = `CONFIG_METADATA:
  operation: UPDATE
bldg-1:
  type: FACILITIES/BUILDING
  code: US-MTV-1600
sensor-1:
  type: HVAC/SENSOR
  translation:
    zone_air_temperature_sensor:
      present_value: points.temp.present_value
  update_mask: [Translation.Zone, Type]
  enabled: true
  etag: "12345"
virtual-1:
  type: HVAC/VAV
  operation: UPDATE
  links:
    - sensor-1
`

func TestParse(t *testing.T) {
	t.Run("preserves entity order", func(t *testing.T) {
		doc, err := Parse([]byte(sampleConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []string{"CONFIG_METADATA", "bldg-1", "sensor-1", "virtual-1"}
		if !reflect.DeepEqual(doc.Keys(), want) {
			t.Fatalf("unexpected keys: %#v", doc.Keys())
		}
	})

	t.Run("reads recognized fields", func(t *testing.T) {
		doc, err := Parse([]byte(sampleConfig))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		sensor, _ := doc.Get("sensor-1")
		if !sensor.IsReporting() || sensor.IsVirtual() {
			t.Fatalf("expected reporting entity")
		}
		if etag, ok := sensor.Etag(); !ok || etag != "12345" {
			t.Fatalf("unexpected etag %q", etag)
		}
		if got := sensor.Strings(FieldUpdateMask); !reflect.DeepEqual(got, []string{"Translation.Zone", "Type"}) {
			t.Fatalf("unexpected update mask: %#v", got)
		}
		virtual, _ := doc.Get("virtual-1")
		if !virtual.IsVirtual() || virtual.Operation() != "UPDATE" {
			t.Fatalf("expected virtual UPDATE entity")
		}
		if !reflect.DeepEqual(virtual.Links(), []string{"sensor-1"}) {
			t.Fatalf("unexpected links: %#v", virtual.Links())
		}
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Parse([]byte("\n\n"))
		if !errors.Is(err, ErrEmptyDocument) {
			t.Fatalf("expected ErrEmptyDocument, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Parse([]byte("a: [\n"))
		if !errors.Is(err, ErrInvalidYAML) {
			t.Fatalf("expected ErrInvalidYAML, got %v", err)
		}
	})

	t.Run("top level sequence", func(t *testing.T) {
		_, err := Parse([]byte("- a\n- b\n"))
		if !errors.Is(err, ErrNotMapping) {
			t.Fatalf("expected ErrNotMapping, got %v", err)
		}
	})

	t.Run("scalar entity", func(t *testing.T) {
		_, err := Parse([]byte("CONFIG_METADATA:\n  operation: UPDATE\nguid: value\n"))
		if !errors.Is(err, ErrInvalidEntity) {
			t.Fatalf("expected ErrInvalidEntity, got %v", err)
		}
	})

	t.Run("aliases are expanded", func(t *testing.T) {
		doc, err := Parse([]byte("a: &base\n  type: X\nb: *base\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		b, _ := doc.Get("b")
		if b.Type() != "X" {
			t.Fatalf("expected alias to resolve, got %q", b.Type())
		}
		data, err := doc.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if strings.Contains(string(data), "*base") || strings.Contains(string(data), "&base") {
			t.Fatalf("expected no anchors in output:\n%s", data)
		}
	})

	t.Run("BOM is trimmed", func(t *testing.T) {
		doc, err := Parse([]byte("\ufeffCONFIG_METADATA:\n  operation: UPDATE\n"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !doc.Has("CONFIG_METADATA") {
			t.Fatalf("expected metadata key")
		}
	})
}

func TestParseFile_ReadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := ParseFile(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBuilding(t *testing.T) {
	schema := config.DefaultSchema()

	t.Run("single building", func(t *testing.T) {
		doc, err := Parse([]byte(sampleConfig))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		building, err := doc.Building(schema)
		if err != nil {
			t.Fatalf("expected building, got %v", err)
		}
		if building.ID != "bldg-1" {
			t.Fatalf("unexpected building %q", building.ID)
		}
	})

	t.Run("missing building", func(t *testing.T) {
		doc, err := Parse([]byte("CONFIG_METADATA:\n  operation: UPDATE\nx:\n  type: HVAC/SENSOR\n"))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if _, err := doc.Building(schema); !errors.Is(err, ErrMissingBuilding) {
			t.Fatalf("expected ErrMissingBuilding, got %v", err)
		}
	})

	t.Run("two buildings", func(t *testing.T) {
		doc, err := Parse([]byte("a:\n  type: FACILITIES/BUILDING\nb:\n  type: FACILITIES/BUILDING\n"))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if _, err := doc.Building(schema); !errors.Is(err, ErrMultipleBuildings) {
			t.Fatalf("expected ErrMultipleBuildings, got %v", err)
		}
	})
}

func TestDocumentMutation(t *testing.T) {
	doc, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	clone := doc.Clone()

	sensor, _ := clone.Get("sensor-1")
	sensor.LowercaseUpdateMask()
	clone.Delete("virtual-1")
	clone.Set(NewEntity("new-1"))

	original, _ := doc.Get("sensor-1")
	if got := original.Strings(FieldUpdateMask); got[0] != "Translation.Zone" {
		t.Fatalf("clone mutation leaked into source: %#v", got)
	}
	if !doc.Has("virtual-1") {
		t.Fatalf("delete on clone removed source entity")
	}
	want := []string{"CONFIG_METADATA", "bldg-1", "sensor-1", "new-1"}
	if !reflect.DeepEqual(clone.Keys(), want) {
		t.Fatalf("unexpected clone keys: %#v", clone.Keys())
	}
}

func TestWriteFile(t *testing.T) {
	doc, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	path := filepath.Join(t.TempDir(), "nested", "out.yaml")
	if err := doc.WriteFile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file: %v", err)
	}
	reread, err := ParseFile(path)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !reflect.DeepEqual(reread.Keys(), doc.Keys()) {
		t.Fatalf("unexpected keys after write: %#v", reread.Keys())
	}
}
