package profiler

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func intp(i int) *int { return &i }

// coverageBank has one single-dimension question per core dimension plus two
// questions that score nothing.
func coverageBank(score float64) *Bank {
	b := &Bank{Dimensions: append([]personality.Dimension(nil), personality.CoreDimensions...)}
	for i, d := range personality.CoreDimensions {
		b.Questions = append(b.Questions, Question{
			ID:   i + 1,
			Text: string(d),
			Options: []Option{
				{Text: "a", Scores: map[personality.Dimension]float64{d: score}, Traits: []string{"steady"}},
				{Text: "b", Scores: map[personality.Dimension]float64{d: 1 - score}},
			},
		})
	}
	for id := 9; id <= 10; id++ {
		b.Questions = append(b.Questions, Question{
			ID: id, Text: "filler",
			Options: []Option{{Text: "x", Scores: map[personality.Dimension]float64{}}},
		})
	}
	return b
}

func allFirst(n int) []Response {
	out := make([]Response, n)
	for i := range out {
		out[i] = Response{QuestionID: i + 1, OptionIndex: intp(0)}
	}
	return out
}

func TestAnalyzeFullCoverage(t *testing.T) {
	a := NewAssessor(coverageBank(0.8), AssessorConfig{QuestionLimit: 10}, seeded(7))
	require.Equal(t, 10, a.Len())

	res, err := a.Analyze(allFirst(10))
	require.NoError(t, err)

	for _, d := range personality.CoreDimensions {
		assert.InDelta(t, 0.8, res.Vector.Get(d), 1e-9, "dimension %s", d)
		assert.Equal(t, "1/1", res.Coverage.Report[d])
	}
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"steady"}, res.Traits)
	assert.Equal(t, 8, res.TraitCounts["steady"])
}

func TestAnalyzeWrongCount(t *testing.T) {
	a := NewAssessor(coverageBank(0.8), DefaultAssessorConfig(), seeded(1))
	_, err := a.Analyze(allFirst(9))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAnalyzeSkipsUnmappedAnswers(t *testing.T) {
	a := NewAssessor(coverageBank(0.8), DefaultAssessorConfig(), seeded(1))
	responses := allFirst(10)
	responses[0].OptionIndex = intp(5)   // out of range
	responses[1].QuestionID = 99         // unknown question
	responses[2].OptionIndex = nil       // no answer

	res, err := a.Analyze(responses)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	for i, d := range personality.CoreDimensions[:3] {
		assert.Equal(t, personality.Neutral, res.Vector.Get(d), "dimension %d", i)
		assert.Equal(t, "0/1", res.Coverage.Report[d])
	}
	assert.InDelta(t, 0.8, res.Vector.Get(personality.SelfConfidence), 1e-9)
}

func TestAnalyzeEvenSplitAndMissingScore(t *testing.T) {
	bank := &Bank{
		Dimensions: []personality.Dimension{personality.StressSensitivity, personality.Resilience},
		Questions: []Question{{
			ID: 1, Text: "q",
			Options: []Option{
				{Text: "only stress", Scores: map[personality.Dimension]float64{personality.StressSensitivity: 0.9}},
				{Text: "only resilience", Scores: map[personality.Dimension]float64{personality.Resilience: 0.2}},
			},
		}},
	}
	a := NewAssessor(bank, AssessorConfig{}, seeded(3))
	res, err := a.Analyze([]Response{{QuestionID: 1, OptionIndex: intp(0)}})
	require.NoError(t, err)

	assert.Equal(t, 0.9, res.Vector.Get(personality.StressSensitivity))
	// resilience is scorable by the question but absent from the chosen option
	assert.Equal(t, 0.5, res.Vector.Get(personality.Resilience))
	assert.True(t, res.Valid)
}

func TestShuffleIsFixedPerSeed(t *testing.T) {
	bank := coverageBank(0.5)
	a1 := NewAssessor(bank, AssessorConfig{QuestionLimit: 5}, seeded(42))
	a2 := NewAssessor(bank, AssessorConfig{QuestionLimit: 5}, seeded(42))
	assert.Equal(t, a1.Questions(), a2.Questions())
	assert.Len(t, a1.Questions(), 5)
	assert.Equal(t, a1.Questions(), a1.Questions())
}

func TestParseBankSkipsMalformed(t *testing.T) {
	data := []byte(`{
	  "personality_dimensions": {"stress_sensitivity": {}, "resilience": {}, "charisma": {}},
	  "questions": [
	    {"id": 1, "category": "exam", "question": "Night before?",
	     "options": [
	       {"text": "Panic", "scores": {"stress_sensitivity": 0.9, "resilience": "high"}, "traits": ["anxious", 3]},
	       {"scores": {"stress_sensitivity": 0.1}},
	       {"text": "Sleep", "scores": {"stress_sensitivity": 0.2}}
	     ]},
	    {"id": "two", "question": "bad id", "options": []},
	    {"id": 3, "question": "", "options": [{"text": "a"}]},
	    {"id": 4, "question": "No options", "options": []},
	    "garbage"
	  ]
	}`)
	bank, err := ParseBank(data)
	require.NoError(t, err)
	require.Len(t, bank.Questions, 1)
	assert.Len(t, bank.Skipped, 4)

	q := bank.Questions[0]
	assert.Equal(t, "Night before?", q.Text)
	require.Len(t, q.Options, 2)
	assert.Equal(t, map[personality.Dimension]float64{personality.StressSensitivity: 0.9}, q.Options[0].Scores)
	assert.Equal(t, []string{"anxious"}, q.Options[0].Traits)
	assert.Equal(t, []personality.Dimension{personality.StressSensitivity, personality.Resilience}, bank.Dimensions)
}

func TestLoadBankYAMLInfersDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.yaml")
	doc := `
questions:
  - id: 1
    category: habits
    text: How do you plan?
    options:
      - text: Detailed schedule
        scores: {planning_tendency: 0.9, self_confidence: 0.6}
      - text: Wing it
        scores: {planning_tendency: 0.1}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	bank, err := LoadBank(path)
	require.NoError(t, err)
	require.Len(t, bank.Questions, 1)
	assert.Equal(t, []personality.Dimension{personality.SelfConfidence, personality.PlanningTendency}, bank.Dimensions)
}

func TestLoadBankMissingFile(t *testing.T) {
	_, err := LoadBank(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSummaryBands(t *testing.T) {
	v := personality.Vector{
		personality.StressSensitivity:   0.66,
		personality.AnalyticalThinking:  0.74,
		personality.SocialPreference:    0.71,
		personality.IntrinsicMotivation: 0.2,
		personality.Resilience:          0.5,
		personality.SelfConfidence:      0.35,
		personality.PlanningTendency:    0.9,
		personality.OpennessToFeedback:  0.1,
	}
	want := "Personality Profile: highly anxiety-prone, balanced thinker, extrovert, collaborative, " +
		"extrinsically motivated (reward-driven), moderate resilience, moderate confidence, " +
		"organized, planned approach, defensive, closed to criticism."
	assert.Equal(t, want, Summary(v))
}

func TestRecommendTable(t *testing.T) {
	tests := []struct {
		name       string
		v          personality.Vector
		difficulty float64
		pool       string
		frequency  int
		types      []string
	}{
		{
			name:       "anxious",
			v:          personality.Vector{personality.StressSensitivity: 0.8},
			difficulty: 0.30, pool: "acadza_easy", frequency: 4,
			types: []string{"motivational", "confidence_building"},
		},
		{
			name: "calm and confident",
			v: personality.Vector{
				personality.StressSensitivity: 0.3, personality.SelfConfidence: 0.6,
				personality.AnalyticalThinking: 0.5,
			},
			difficulty: 0.70, pool: "mixed_adaptive", frequency: 6,
			types: []string{"analytical_challenge", "mastery_focus"},
		},
		{
			name: "procrastinator",
			v: personality.Vector{
				personality.StressSensitivity: 0.45, personality.PlanningTendency: 0.2,
			},
			difficulty: 0.50, pool: "mixed_adaptive", frequency: 3,
			types: []string{"urgency", "pressure"},
		},
		{
			name: "star",
			v: personality.Vector{
				personality.StressSensitivity: 0.45, personality.SelfConfidence: 0.9,
				personality.AnalyticalThinking: 0.9,
			},
			difficulty: 0.85, pool: "acadza_challenging", frequency: 10,
			types: []string{"analytical_challenge", "mastery_focus"},
		},
		{
			name: "social",
			v: personality.Vector{
				personality.SocialPreference: 0.8, personality.AnalyticalThinking: 0.3,
			},
			difficulty: 0.55, pool: "mixed_with_visual", frequency: 4,
			types: []string{"social_validation", "recognition"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Recommend(tt.v)
			assert.Equal(t, tt.difficulty, r.QuestionDifficulty.Value)
			assert.NotEmpty(t, r.QuestionDifficulty.Reason)
			assert.Equal(t, tt.pool, r.QuestionPool.Value)
			assert.Equal(t, tt.frequency, r.TriggerFrequency.Value)
			assert.Equal(t, tt.types, r.TriggerTypes)
			assert.Len(t, r.LearningStyle, 3)
			assert.NotEmpty(t, r.StressManagement)
			assert.NotEmpty(t, r.FeedbackHandling)
		})
	}
}

func TestProfileName(t *testing.T) {
	assert.Equal(t, "High Stress Sensitive", ProfileName(personality.Vector{
		personality.StressSensitivity: 0.8, personality.SelfConfidence: 0.4,
	}))
	assert.Equal(t, "Procrastinator", ProfileName(personality.Vector{
		personality.PlanningTendency: 0.2, personality.IntrinsicMotivation: 0.3,
	}))
	assert.Equal(t, "Adaptive Learner", ProfileName(nil))
}

func TestQuestionAffinity(t *testing.T) {
	assert.Equal(t, 1.0, QuestionAffinity(nil, NeutralQuestionProperties()))

	v := personality.Vector{personality.AnalyticalThinking: 1}
	q := NeutralQuestionProperties()
	q.AnalyticalLoad = 0
	// analytical term drops from 1.0 to 0.0 with weight 0.20 of 0.95 total
	assert.Equal(t, personality.Round(0.75/0.95, 3), QuestionAffinity(v, q))
}
