package gate

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region gate
// Gate decides whether a generated popup may be served.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate runs every hard veto against the candidate. On commit the returned
// popup carries the requested category and tags, and non-option types have
// their options cleared.
func (g *Gate) Evaluate(c Candidate, tags []string, category trigger.Category) GateDecision {
	var vetoes []VetoSignal

	text := strings.TrimSpace(c.Text)
	if text == "" {
		vetoes = append(vetoes, VetoSignal{Type: VetoMissingText, Reason: "missing text"})
	}

	typ, err := trigger.ParseType(c.Type)
	if err != nil {
		vetoes = append(vetoes, VetoSignal{Type: VetoInvalidType, Reason: fmt.Sprintf("invalid type %q", c.Type)})
	}

	value, ok := g.numericValue(c.Value)
	switch {
	case !ok:
		vetoes = append(vetoes, VetoSignal{Type: VetoInvalidValue, Reason: fmt.Sprintf("non-numeric value %v", c.Value)})
	case value < -1 || value > 1:
		vetoes = append(vetoes, VetoSignal{Type: VetoInvalidValue, Reason: fmt.Sprintf("value %.3f outside [-1,1]", value)})
	}

	options := c.Options
	if typ != trigger.TypeOptionBased {
		options = nil
	} else if len(options) != g.config.OptionCount {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoOptionCount,
			Reason: fmt.Sprintf("option_based needs %d options, got %d", g.config.OptionCount, len(options)),
		})
	}

	if g.config.RequireKeyword && text != "" && !MentionsKeyword(text, tags) {
		vetoes = append(vetoes, VetoSignal{Type: VetoIgnoresTags, Reason: "text ignores personality tags"})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "commit",
		Reason: "passed gate",
		Popup: trigger.Popup{
			Text:     text,
			Type:     typ,
			Category: category,
			Value:    value,
			Tags:     trigger.DedupTags(tags),
			Options:  append([]string(nil), options...),
		},
	}
}

// #endregion gate

// #region helpers
// numericValue accepts the number types a JSON or structpb decode can yield.
func (g *Gate) numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return g.config.DefaultValue, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

// Keywords splits tags on underscores and whitespace into lowercase words.
func Keywords(tags []string) []string {
	var out []string
	for _, tag := range tags {
		out = append(out, strings.Fields(strings.ToLower(strings.ReplaceAll(tag, "_", " ")))...)
	}
	return trigger.DedupTags(out)
}

// MentionsKeyword reports whether text contains any keyword derived from
// tags. With no keywords there is nothing to mention and the check passes.
func MentionsKeyword(text string, tags []string) bool {
	keywords := Keywords(tags)
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// #endregion helpers
