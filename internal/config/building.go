package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBuildingCode = errors.New("invalid building code format, expected US-XXX-YYY")

// BuildingCode is an operator-facing building identifier such as US-MTV-1600.
type BuildingCode struct {
	Raw      string
	Country  string
	City     string
	Building string
}

// ParseBuildingCode splits code on its first two dashes. Everything after the
// second dash belongs to the building part, so US-NYC-9TH-AVE is valid. Raw is
// the canonical upper-case form used to key ledger rows.
func ParseBuildingCode(code string) (BuildingCode, error) {
	parts := strings.SplitN(strings.TrimSpace(code), "-", 3)
	if len(parts) != 3 {
		return BuildingCode{}, fmt.Errorf("%w: %q", ErrInvalidBuildingCode, code)
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return BuildingCode{}, fmt.Errorf("%w: %q", ErrInvalidBuildingCode, code)
		}
	}
	return BuildingCode{
		Raw:      strings.ToUpper(strings.TrimSpace(code)),
		Country:  strings.ToLower(parts[0]),
		City:     strings.ToLower(parts[1]),
		Building: strings.ToLower(parts[2]),
	}, nil
}

// ResourceName is the backend resource path of the building under root.
func (b BuildingCode) ResourceName(root string) string {
	return fmt.Sprintf("%s/countries/%s/cities/%s/buildings/%s", root, b.Country, b.City, b.Building)
}

func (b BuildingCode) String() string {
	return b.Raw
}
