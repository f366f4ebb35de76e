package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/danielpatrickdp/stress-dost/internal/gate"
)

// #region parse
// ParsePopup pulls the first JSON object out of model output. Code fences and
// a leading "json" marker are stripped, and malformed JSON gets one repair
// pass before giving up.
func ParsePopup(content string) (gate.Candidate, error) {
	snippet := strings.TrimSpace(content)
	if snippet == "" {
		return gate.Candidate{}, fmt.Errorf("parse popup: empty content")
	}
	snippet = strings.Trim(snippet, "`")
	snippet = strings.TrimSpace(snippet)
	if strings.HasPrefix(strings.ToLower(snippet), "json") {
		snippet = strings.TrimSpace(snippet[4:])
	}

	start := strings.Index(snippet, "{")
	end := strings.LastIndex(snippet, "}")
	if start == -1 || end == -1 || end < start {
		return gate.Candidate{}, fmt.Errorf("parse popup: no JSON object in %q", truncate(snippet, 80))
	}
	body := snippet[start : end+1]

	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(body)
		if repairErr != nil {
			return gate.Candidate{}, fmt.Errorf("parse popup: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return gate.Candidate{}, fmt.Errorf("parse repaired popup: %w", err)
		}
	}
	return candidateFromMap(raw), nil
}

// candidateFromMap keeps string fields and string options only. Value is
// passed through untouched so the gate can veto non-numeric values.
func candidateFromMap(raw map[string]any) gate.Candidate {
	c := gate.Candidate{Value: raw["value"]}
	c.Type, _ = raw["type"].(string)
	c.Text, _ = raw["text"].(string)
	if opts, ok := raw["options"].([]any); ok {
		for _, o := range opts {
			if s, ok := o.(string); ok {
				c.Options = append(c.Options, s)
			}
		}
	}
	return c
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// #endregion parse
