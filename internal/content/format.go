package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	missingQuestion = "<p>Question not available</p>"
	missingSolution = "<p>Solution not available</p>"
	optionPreview   = 200
)

// #region format
// Format turns a raw record into its display form. idx is zero-based; the
// served index is one-based. Unknown question types format as single-correct.
func Format(raw RawQuestion, idx int) Question {
	scq := raw.SCQ
	if scq == nil {
		scq = &rawSCQ{}
	}
	q := Question{
		ID:           orDefault(raw.ID, "unknown"),
		Index:        idx + 1,
		Subject:      orDefault(raw.Subject, "Unknown"),
		Chapter:      orDefault(raw.Chapter, "Unknown"),
		Difficulty:   orDefault(raw.Difficulty, "Medium"),
		Level:        orDefault(raw.Level, "MEDIUM"),
		HTML:         orDefault(scq.Question, missingQuestion),
		SolutionHTML: orDefault(scq.Solution, missingSolution),
		Metadata:     Metadata{SmartTrick: raw.SmartTrick, Trap: raw.Trap},
	}

	switch raw.QuestionType {
	case "mcq":
		mcq := raw.MCQ
		if mcq == nil {
			mcq = &rawMCQ{}
		}
		q.Type = TypeMulti
		q.Images = nonNil(mcq.QuesImages)
		q.SolutionImages = nonNil(mcq.SolutionImages)
		q.CorrectAnswers = nonNil(mcq.Answer)
	case "integerQuestion":
		iq := raw.IntegerQuestion
		if iq == nil {
			iq = &rawInteger{}
		}
		q.Type = TypeInteger
		q.Images = nonNil(iq.QuesImages)
		q.SolutionImages = nonNil(iq.SolutionImages)
		q.CorrectAnswer = iq.Answer
		q.Metadata = Metadata{}
	default:
		q.Type = TypeSingle
		q.Images = nonNil(scq.QuesImages)
		q.SolutionImages = nonNil(scq.SolutionImages)
		q.Options = ExtractOptions(q.HTML)
		q.CorrectAnswer = orDefault(scq.Answer, "A")
		q.Metadata.SillyMistake = raw.SillyMistake
		q.Metadata.IsLengthy = raw.IsLengthy
		q.Metadata.IsNCERT = raw.IsNCERT
		for _, c := range raw.TagSubConcept {
			if c.SubConcept != "" {
				q.Metadata.SubConcepts = append(q.Metadata.SubConcepts, c.SubConcept)
			}
		}
	}
	return q
}

// #endregion format

// #region options
var optionMarker = regexp.MustCompile(`\(([A-D])\)\s*`)

// ExtractOptions finds "(A) ... (B) ..." markers in question HTML. Each
// option's text runs to the next "(" and is stripped of markup. Fewer than
// four options found yields the placeholder A-D set.
func ExtractOptions(html string) []Option {
	var options []Option
	pos := 0
	for pos < len(html) {
		loc := optionMarker.FindStringSubmatchIndex(html[pos:])
		if loc == nil {
			break
		}
		label := html[pos+loc[2] : pos+loc[3]]
		start := pos + loc[1]
		if start >= len(html) {
			break
		}
		end := len(html)
		if i := strings.IndexByte(html[start+1:], '('); i >= 0 {
			end = start + 1 + i
		}
		options = append(options, Option{Label: label, Text: preview(stripTags(html[start:end]))})
		pos = end
	}
	if len(options) < 4 {
		return defaultOptions()
	}
	return options
}

func stripTags(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.TrimSpace(doc.Text())
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= optionPreview {
		return s
	}
	return string([]rune(s)[:optionPreview])
}

func defaultOptions() []Option {
	return []Option{
		{Label: "A", Text: "Option A"},
		{Label: "B", Text: "Option B"},
		{Label: "C", Text: "Option C"},
		{Label: "D", Text: "Option D"},
	}
}

// #endregion options

// #region answer
// IsCorrect checks a submitted answer. Single-correct and integer questions
// compare for equality; multi-correct questions test membership.
func (q Question) IsCorrect(answer string) bool {
	switch q.Type {
	case TypeMulti:
		for _, a := range q.CorrectAnswers {
			if a == answer {
				return true
			}
		}
		return false
	case TypeInteger:
		return q.CorrectAnswer != "" && strings.TrimSpace(answer) == strings.TrimSpace(q.CorrectAnswer)
	default:
		return answer == q.CorrectAnswer
	}
}

// #endregion answer

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
