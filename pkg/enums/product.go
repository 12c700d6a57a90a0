package enums

import (
	"fmt"
	"strings"
)

// ProductCategory is the fixed set of inventory categories a medication can belong to.
type ProductCategory string

const (
	ProductCategoryMedicine        ProductCategory = "Medicine"
	ProductCategoryInjection       ProductCategory = "Injection"
	ProductCategoryMedicalSupplies ProductCategory = "Medical Supplies"
	ProductCategoryOthers          ProductCategory = "Others"
)

var validProductCategories = []ProductCategory{
	ProductCategoryMedicine,
	ProductCategoryInjection,
	ProductCategoryMedicalSupplies,
	ProductCategoryOthers,
}

// ProductCategories returns the categories in display order.
func ProductCategories() []ProductCategory {
	out := make([]ProductCategory, len(validProductCategories))
	copy(out, validProductCategories)
	return out
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory. Matching is case-insensitive.
func ParseProductCategory(value string) (ProductCategory, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validProductCategories {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}

// ScheduleType selects which dosage payload of a product is active.
type ScheduleType string

const (
	ScheduleTypeDaily  ScheduleType = "daily"
	ScheduleTypeWeekly ScheduleType = "weekly"
	ScheduleTypeCustom ScheduleType = "custom"
)

// DefaultScheduleType is applied when a product is created without one.
const DefaultScheduleType = ScheduleTypeCustom

var validScheduleTypes = []ScheduleType{
	ScheduleTypeDaily,
	ScheduleTypeWeekly,
	ScheduleTypeCustom,
}

func (s ScheduleType) String() string {
	return string(s)
}

func (s ScheduleType) IsValid() bool {
	for _, candidate := range validScheduleTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseScheduleType(value string) (ScheduleType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validScheduleTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid schedule type %q", value)
}
