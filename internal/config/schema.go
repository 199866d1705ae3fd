package config

import (
	"fmt"
	"strings"
)

const (
	DefaultMetadataKey  = "CONFIG_METADATA"
	DefaultBuildingType = "FACILITIES/BUILDING"
)

// Schema names the reserved keys and markers of a building configuration document.
type Schema struct {
	MetadataKey     string   `mapstructure:"metadata_key"`
	BuildingType    string   `mapstructure:"building_type"`
	LinkStripFields []string `mapstructure:"link_strip_fields"`
}

// DefaultSchema matches the documents exported by the building service.
func DefaultSchema() *Schema {
	return &Schema{
		MetadataKey:     DefaultMetadataKey,
		BuildingType:    DefaultBuildingType,
		LinkStripFields: []string{"operation", "update_mask"},
	}
}

func validateSchema(s *Schema) error {
	if strings.TrimSpace(s.MetadataKey) == "" {
		return fmt.Errorf("document metadata_key is required")
	}
	if strings.TrimSpace(s.BuildingType) == "" {
		return fmt.Errorf("document building_type is required")
	}

	seen := make(map[string]struct{})
	for i, field := range s.LinkStripFields {
		name := strings.TrimSpace(field)
		if name == "" {
			return fmt.Errorf("document link_strip_fields %d is empty", i)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate link strip field: %s", field)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (s *Schema) IsBuildingType(entityType string) bool {
	if s == nil {
		return false
	}
	return entityType == s.BuildingType
}
