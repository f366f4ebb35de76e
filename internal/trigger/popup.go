package trigger

import (
	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region identity
// Key identifies a popup for recency bookkeeping: its ID when set, else its text.
func (p Popup) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Text
}

// Clone returns a deep copy so callers can scale or annotate without touching the pool.
func (p Popup) Clone() Popup {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	if p.Options != nil {
		out.Options = append([]string(nil), p.Options...)
	}
	return out
}

// #endregion identity

// #region validate
// Validate checks the fields every served popup must have.
func (p Popup) Validate() error {
	if p.Text == "" {
		return apperr.Validation("popup text is required")
	}
	if _, err := ParseType(string(p.Type)); err != nil {
		return err
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return err
	}
	if p.Type == TypeOptionBased && len(p.Options) != OptionCount {
		return apperr.Validation("option_based popup needs %d options, got %d", OptionCount, len(p.Options))
	}
	return nil
}

// #endregion validate

// #region tags
// HasAnyTag reports whether the popup carries at least one of tags.
func (p Popup) HasAnyTag(tags []string) bool {
	return p.OverlapCount(tags) > 0
}

// OverlapCount counts how many of tags the popup carries.
func (p Popup) OverlapCount(tags []string) int {
	if len(p.Tags) == 0 || len(tags) == 0 {
		return 0
	}
	own := make(map[string]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		own[t] = struct{}{}
	}
	n := 0
	for _, t := range tags {
		if _, ok := own[t]; ok {
			n++
		}
	}
	return n
}

// DedupTags drops repeats while keeping first-seen order.
func DedupTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// #endregion tags
