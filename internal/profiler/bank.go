package profiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"gopkg.in/yaml.v3"
)

// #region raw-types
type rawBank struct {
	Questions  []json.RawMessage           `json:"questions"`
	Dimensions map[string]json.RawMessage `json:"personality_dimensions"`
}

type rawQuestion struct {
	ID       int               `json:"id"`
	Category string            `json:"category"`
	Question string            `json:"question"`
	Text     string            `json:"text"`
	Options  []json.RawMessage `json:"options"`
}

type rawOption struct {
	Text   string         `json:"text"`
	Scores map[string]any `json:"scores"`
	Traits []any          `json:"traits"`
}

// #endregion raw-types

// #region load
// LoadBank reads a quiz bank from a JSON or YAML file (chosen by extension).
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse bank %s: %w", path, err)
		}
	}
	bank, err := ParseBank(data)
	if err != nil {
		return nil, fmt.Errorf("parse bank %s: %w", path, err)
	}
	return bank, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// ParseBank decodes a JSON quiz bank. Malformed questions and options are
// skipped and noted in Bank.Skipped; only an unreadable document is an error.
func ParseBank(data []byte) (*Bank, error) {
	var raw rawBank
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}

	bank := &Bank{}
	for i, msg := range raw.Questions {
		q, reason := parseQuestion(msg)
		if reason != "" {
			bank.Skipped = append(bank.Skipped, fmt.Sprintf("question[%d]: %s", i, reason))
			continue
		}
		bank.Questions = append(bank.Questions, q)
	}
	bank.Dimensions = bankDimensions(raw.Dimensions, bank.Questions)
	return bank, nil
}

func parseQuestion(msg json.RawMessage) (Question, string) {
	var rq rawQuestion
	if err := json.Unmarshal(msg, &rq); err != nil {
		return Question{}, "malformed entry"
	}
	if rq.ID <= 0 {
		return Question{}, "missing id"
	}
	text := rq.Question
	if text == "" {
		text = rq.Text
	}
	if text == "" {
		return Question{}, fmt.Sprintf("id %d has no text", rq.ID)
	}

	q := Question{ID: rq.ID, Category: rq.Category, Text: text}
	for _, om := range rq.Options {
		var ro rawOption
		if err := json.Unmarshal(om, &ro); err != nil || ro.Text == "" {
			continue
		}
		opt := Option{Text: ro.Text, Scores: map[personality.Dimension]float64{}}
		for k, v := range ro.Scores {
			f, ok := v.(float64)
			if !ok {
				continue
			}
			d, err := personality.ParseDimension(k)
			if err != nil {
				continue
			}
			opt.Scores[d] = f
		}
		for _, t := range ro.Traits {
			if s, ok := t.(string); ok && s != "" {
				opt.Traits = append(opt.Traits, s)
			}
		}
		q.Options = append(q.Options, opt)
	}
	if len(q.Options) == 0 {
		return Question{}, fmt.Sprintf("id %d has no usable options", rq.ID)
	}
	return q, ""
}

// bankDimensions prefers the declared dimension list and otherwise infers it
// from option scores. Either way the result is in canonical order.
func bankDimensions(declared map[string]json.RawMessage, questions []Question) []personality.Dimension {
	set := map[personality.Dimension]bool{}
	if len(declared) > 0 {
		for k := range declared {
			if d, err := personality.ParseDimension(k); err == nil {
				set[d] = true
			}
		}
	} else {
		for _, q := range questions {
			for _, o := range q.Options {
				for d := range o.Scores {
					set[d] = true
				}
			}
		}
	}
	out := make([]personality.Dimension, 0, len(set))
	for _, d := range personality.AllDimensions {
		if set[d] {
			out = append(out, d)
		}
	}
	return out
}

// #endregion load
