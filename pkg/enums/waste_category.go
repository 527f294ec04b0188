package enums

import "fmt"

// WasteCategory is the material class assigned by the classifier.
type WasteCategory string

const (
	WasteCategoryPlastic WasteCategory = "plastic"
	WasteCategoryGlass   WasteCategory = "glass"
	WasteCategoryMetal   WasteCategory = "metal"
	WasteCategoryPaper   WasteCategory = "paper"
	WasteCategoryMixed   WasteCategory = "mixed"
	WasteCategoryUnknown WasteCategory = "unknown"
)

var validWasteCategories = []WasteCategory{
	WasteCategoryPlastic,
	WasteCategoryGlass,
	WasteCategoryMetal,
	WasteCategoryPaper,
	WasteCategoryMixed,
	WasteCategoryUnknown,
}

// String implements fmt.Stringer.
func (c WasteCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known WasteCategory.
func (c WasteCategory) IsValid() bool {
	for _, candidate := range validWasteCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseWasteCategory converts raw input into a WasteCategory.
func ParseWasteCategory(value string) (WasteCategory, error) {
	for _, candidate := range validWasteCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid waste category %q", value)
}
