package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
	"gopkg.in/yaml.v3"
)

// MinTags is the tag count every loaded popup is enriched up to.
const MinTags = 2

// FallbackTags are appended when the category base tags are not enough.
var FallbackTags = []string{"supportive", "encouragement"}

// defaultValue is used for entries that omit a value.
const defaultValue = 0.5

// #region dataset
// Dataset is the read-only popup pool, grouped by category.
type Dataset struct {
	byCategory map[trigger.Category][]trigger.Popup
	Skipped    []string
}

// New builds a dataset from popups whose tags are already canonical. Tags
// are only topped up to MinTags.
func New(popups []trigger.Popup) *Dataset {
	d := &Dataset{byCategory: make(map[trigger.Category][]trigger.Popup)}
	for _, p := range popups {
		p = p.Clone()
		p.Tags = TopUp(p.Category, trigger.DedupTags(p.Tags))
		d.byCategory[p.Category] = append(d.byCategory[p.Category], p)
	}
	return d
}

// Popups returns a copy of the category's pool.
func (d *Dataset) Popups(c trigger.Category) []trigger.Popup {
	if d == nil {
		return nil
	}
	src := d.byCategory[c]
	out := make([]trigger.Popup, len(src))
	for i, p := range src {
		out[i] = p.Clone()
	}
	return out
}

// Has reports whether the category has any popup.
func (d *Dataset) Has(c trigger.Category) bool {
	return d != nil && len(d.byCategory[c]) > 0
}

// Len is the total number of popups across categories.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, ps := range d.byCategory {
		n += len(ps)
	}
	return n
}

// #endregion dataset

// #region load
type rawPopup struct {
	Text            string   `json:"text"`
	Type            string   `json:"type"`
	Value           *float64 `json:"value"`
	Tags            []string `json:"tags"`
	PersonalityTags []string `json:"personality_tags"`
	Options         []string `json:"options"`
}

// Load reads a popup dataset from JSON or YAML (by extension).
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes {category: [popup...]} or {category: {id: popup}}. Entries
// with an unknown category, type or shape are skipped and noted in Skipped.
func Parse(data []byte) (*Dataset, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	d := &Dataset{byCategory: make(map[trigger.Category][]trigger.Popup)}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cat, err := trigger.ParseCategory(name)
		if err != nil {
			d.Skipped = append(d.Skipped, fmt.Sprintf("category %q: %v", name, err))
			continue
		}
		entries, err := entriesOf(raw[name])
		if err != nil {
			d.Skipped = append(d.Skipped, fmt.Sprintf("category %q: %v", name, err))
			continue
		}
		for _, e := range entries {
			p, reason := parsePopup(cat, e.key, e.msg)
			if reason != "" {
				d.Skipped = append(d.Skipped, fmt.Sprintf("%s/%s: %s", name, e.key, reason))
				continue
			}
			d.byCategory[cat] = append(d.byCategory[cat], p)
		}
	}
	return d, nil
}

type entry struct {
	key string
	msg json.RawMessage
}

// entriesOf accepts a list (keys are indices) or an object (keys sorted).
func entriesOf(msg json.RawMessage) ([]entry, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(msg, &list); err == nil {
		out := make([]entry, len(list))
		for i, m := range list {
			out[i] = entry{key: strconv.Itoa(i), msg: m}
		}
		return out, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil, fmt.Errorf("expected list or object")
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]entry, len(keys))
	for i, k := range keys {
		out[i] = entry{key: k, msg: obj[k]}
	}
	return out, nil
}

func parsePopup(cat trigger.Category, key string, msg json.RawMessage) (trigger.Popup, string) {
	var rp rawPopup
	if err := json.Unmarshal(msg, &rp); err != nil {
		return trigger.Popup{}, "malformed entry"
	}
	typ, err := trigger.ParseType(rp.Type)
	if err != nil {
		return trigger.Popup{}, err.Error()
	}
	value := defaultValue
	if rp.Value != nil {
		value = *rp.Value
	}
	tags := rp.PersonalityTags
	if len(tags) == 0 {
		tags = rp.Tags
	}
	p := trigger.Popup{
		ID:       key,
		Text:     strings.TrimSpace(rp.Text),
		Type:     typ,
		Category: cat,
		Value:    value,
		Tags:     Enrich(cat, tags),
		Options:  rp.Options,
	}
	if err := p.Validate(); err != nil {
		return trigger.Popup{}, err.Error()
	}
	return p, ""
}

// #endregion load

// #region enrich
// Enrich canonicalizes raw tags through the trait-name mapper and tops them
// up to MinTags.
func Enrich(cat trigger.Category, raw []string) []string {
	var canonical []string
	for _, tag := range raw {
		canonical = append(canonical, personality.MapTraitName(tag)...)
	}
	return TopUp(cat, trigger.DedupTags(canonical))
}

// TopUp fills tags to MinTags, first from the category base tags and then
// from FallbackTags.
func TopUp(cat trigger.Category, tags []string) []string {
	tags = append([]string(nil), tags...)
	if len(tags) < MinTags {
		for _, base := range personality.CategoryBaseTags(cat) {
			if !contains(tags, base) {
				tags = append(tags, base)
			}
			if len(tags) >= MinTags {
				break
			}
		}
	}
	if len(tags) < MinTags {
		tags = trigger.DedupTags(append(tags, FallbackTags...))
	}
	return tags
}

func contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// #endregion enrich
