package codec

import (
	"strings"
	"testing"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

func TestBuildProfile(t *testing.T) {
	v := personality.Vector{
		personality.StressSensitivity:     0.8,
		personality.AnalyticalThinking:    0.2,
		personality.IntrinsicMotivation:   0.9,
		personality.Impulsivity:           0.75,
		personality.DistractionResistance: 0.1,
	}
	got := BuildProfile(v, []string{"anxious", "intuitive"})
	want := strings.Join([]string{
		"Top dynamic traits: anxious, intuitive",
		"Student experiences high stress; use calm tone.",
		"Prefers metaphors and big-picture framing.",
		"Motivated by mastery and growth.",
		"Tends to rush; remind them to slow down and reflect.",
		"Struggles with focus; offer concrete focus tips.",
	}, "\n")
	if got != want {
		t.Fatalf("profile mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestBuildProfileNeutralVector(t *testing.T) {
	got := BuildProfile(personality.Vector{}, nil)
	if got != "Motivated by outcomes, recognition, or rewards." {
		t.Fatalf("unexpected neutral profile %q", got)
	}
}

func TestBuildPromptSections(t *testing.T) {
	req := Request{
		Tags:        []string{"needs_calm"},
		Category:    trigger.CategoryThoughts,
		Performance: PerformanceContext{Accuracy: 40},
	}
	p := BuildPrompt(req)
	for _, want := range []string{
		"PERSONALIZATION KEYWORDS: needs_calm",
		"- Accuracy: 40.0",
		"- Trend: stable",
		"- Confidence: medium",
		"CATEGORY: thoughts",
		"Choose whichever type fits",
		"Focus on reasoning help",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestParsePopup(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		text    string
		wantErr bool
	}{
		{"plain", `{"type":"motivation","text":"hi","value":0.2}`, "hi", false},
		{"fenced", "```json\n{\"type\":\"motivation\",\"text\":\"fenced\"}\n```", "fenced", false},
		{"prose around", `Here you go: {"type":"sarcasm","text":"wrapped"} enjoy`, "wrapped", false},
		{"trailing comma", `{"type":"sarcasm","text":"repaired",}`, "repaired", false},
		{"no object", "sorry, I cannot help", "", true},
		{"empty", "   ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParsePopup(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePopup: %v", err)
			}
			if c.Text != tt.text {
				t.Fatalf("expected text %q, got %q", tt.text, c.Text)
			}
		})
	}
}

func TestParsePopupKeepsRawValue(t *testing.T) {
	c, err := ParsePopup(`{"type":"motivation","text":"x","value":"high","options":["a",2,"b"]}`)
	if err != nil {
		t.Fatalf("ParsePopup: %v", err)
	}
	if c.Value != "high" {
		t.Fatalf("expected raw string value, got %v", c.Value)
	}
	if len(c.Options) != 2 {
		t.Fatalf("expected non-string options dropped, got %v", c.Options)
	}
}
