package codec

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

// #region profile
// BuildProfile renders the personality lines the generator conditions on.
func BuildProfile(v personality.Vector, traits []string) string {
	var lines []string
	if len(traits) > 0 {
		lines = append(lines, "Top dynamic traits: "+strings.Join(traits, ", "))
	}

	switch stress := v.Get(personality.StressSensitivity); {
	case stress > 0.7:
		lines = append(lines, "Student experiences high stress; use calm tone.")
	case stress < 0.3:
		lines = append(lines, "Student is calm under pressure; can handle challenges.")
	}

	switch analytical := v.Get(personality.AnalyticalThinking); {
	case analytical > 0.7:
		lines = append(lines, "Prefers logical explanations and clear reasoning.")
	case analytical < 0.3:
		lines = append(lines, "Prefers metaphors and big-picture framing.")
	}

	if v.Get(personality.IntrinsicMotivation) > 0.7 {
		lines = append(lines, "Motivated by mastery and growth.")
	} else {
		lines = append(lines, "Motivated by outcomes, recognition, or rewards.")
	}

	if v.Get(personality.Impulsivity) > 0.7 {
		lines = append(lines, "Tends to rush; remind them to slow down and reflect.")
	}
	if v.Get(personality.DistractionResistance) < 0.3 {
		lines = append(lines, "Struggles with focus; offer concrete focus tips.")
	}
	return strings.Join(lines, "\n")
}

// #endregion profile

// #region prompt
const promptRules = `Requirements:
1. Keep under 60 words.
2. Reflect the personality cues above.
3. Include actionable, specific guidance.
4. Tone must fit the CATEGORY.
5. Use Indian exam prep context when helpful.
6. Mention at least one word or phrase from PERSONALIZATION KEYWORDS.
7. If you choose "option_based", include THREE distinct, context-aware options that show different reactions.
8. Light sarcasm or urgency is allowed when the category warrants it, as long as it stays supportive.
9. Each response must use a fresh, specific example or scenario.
10. Output must be valid minified JSON with keys: type, text, options, value.

Respond ONLY with JSON like:
{"type":"motivation|sarcasm|option_based","text":"Message here","options":["opt1","opt2","opt3"],"value":0.4}

If type != "option_based", return an empty list for options.`

var categoryHints = map[trigger.Category]string{
	trigger.CategoryThoughts:    "Focus on reasoning help or reframing over panic.",
	trigger.CategoryFrustration: "Acknowledge their effort, then push toward solutions.",
	trigger.CategoryFear:        "Be reassuring and stabilize their anxiety.",
}

// BuildPrompt assembles the full instruction text for one request.
func BuildPrompt(req Request) string {
	tags := "none"
	if len(req.Tags) > 0 {
		tags = strings.Join(req.Tags, ", ")
	}
	trend := req.Performance.Trend
	if trend == "" {
		trend = "stable"
	}
	confidence := req.Performance.Confidence
	if confidence == "" {
		confidence = "medium"
	}

	var b strings.Builder
	b.WriteString("You create short popup messages for a stressed JEE/NEET student.\n\n")
	fmt.Fprintf(&b, "PERSONALITY PROFILE:\n%s\n\n", BuildProfile(req.Vector, req.Traits))
	fmt.Fprintf(&b, "ACTIVE TAGS: %s\nPERSONALIZATION KEYWORDS: %s\n\n", tags, tags)
	fmt.Fprintf(&b, "PERFORMANCE CONTEXT:\n- Accuracy: %.1f\n- Trend: %s\n- Confidence: %s\n\n",
		req.Performance.Accuracy, trend, confidence)
	fmt.Fprintf(&b, "CATEGORY: %s\n\n", req.Category)
	b.WriteString(promptRules)

	if req.ForceOptionBased {
		b.WriteString("\nThis popup MUST be type \"option_based\" with exactly three options.")
	} else {
		b.WriteString("\nChoose whichever type fits the student's current need.")
	}
	if hint, ok := categoryHints[req.Category]; ok {
		b.WriteString("\n" + hint)
	}
	return b.String()
}

// #endregion prompt
