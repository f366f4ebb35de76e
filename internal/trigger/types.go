package trigger

import (
	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region type
// Type is the interaction style of a popup.
type Type string

const (
	TypeOptionBased Type = "option_based"
	TypeSarcasm     Type = "sarcasm"
	TypeMotivation  Type = "motivation"
)

// ParseType rejects anything outside the three known popup types.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeOptionBased, TypeSarcasm, TypeMotivation:
		return t, nil
	}
	return "", apperr.Validation("unknown trigger type %q", s)
}

// #endregion type

// #region category
// Category names the meter a popup targets.
type Category string

const (
	CategoryFear        Category = "fear"
	CategoryThoughts    Category = "thoughts"
	CategoryFrustration Category = "frustration"
)

// Categories lists the meter categories in enumeration order.
var Categories = []Category{CategoryFear, CategoryThoughts, CategoryFrustration}

// ParseCategory rejects anything outside the three meter categories.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryFear, CategoryThoughts, CategoryFrustration:
		return c, nil
	}
	return "", apperr.Validation("unknown category %q", s)
}

// #endregion category

// #region popup
// Popup is a trigger candidate as served to the student.
type Popup struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Text     string   `json:"text" yaml:"text"`
	Type     Type     `json:"type" yaml:"type"`
	Category Category `json:"category" yaml:"category"`
	Value    float64  `json:"value" yaml:"value"`
	Tags     []string `json:"tags" yaml:"tags"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// OptionCount is the number of options an option_based popup must carry.
const OptionCount = 3

// #endregion popup
