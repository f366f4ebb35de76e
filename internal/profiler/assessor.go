package profiler

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
	"github.com/danielpatrickdp/stress-dost/internal/personality"
)

// #region assessor
// Assessor scores a fixed quiz into a personality vector. The quiz order is
// drawn once at construction and never changes afterwards.
type Assessor struct {
	questions  []Question
	byID       map[int]int
	dimensions []personality.Dimension
	weights    map[int]map[personality.Dimension]float64
	expected   map[personality.Dimension]int
	now        func() time.Time
}

// NewAssessor shuffles the bank with rng and keeps the first QuestionLimit questions.
func NewAssessor(bank *Bank, config AssessorConfig, rng *rand.Rand) *Assessor {
	all := append([]Question(nil), bank.Questions...)
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })

	limit := config.QuestionLimit
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	qs := all[:limit]

	a := &Assessor{
		questions:  qs,
		byID:       make(map[int]int, len(qs)),
		dimensions: append([]personality.Dimension(nil), bank.Dimensions...),
		weights:    make(map[int]map[personality.Dimension]float64, len(qs)),
		expected:   make(map[personality.Dimension]int, len(bank.Dimensions)),
		now:        time.Now,
	}
	known := make(map[personality.Dimension]bool, len(bank.Dimensions))
	for _, d := range bank.Dimensions {
		known[d] = true
		a.expected[d] = 0
	}
	for i, q := range qs {
		a.byID[q.ID] = i
		dims := map[personality.Dimension]bool{}
		for _, o := range q.Options {
			for d := range o.Scores {
				if known[d] {
					dims[d] = true
				}
			}
		}
		if len(dims) == 0 {
			continue
		}
		w := 1.0 / float64(len(dims))
		a.weights[q.ID] = make(map[personality.Dimension]float64, len(dims))
		for d := range dims {
			a.weights[q.ID][d] = w
			a.expected[d]++
		}
	}
	return a
}

// Len is the number of responses Analyze expects.
func (a *Assessor) Len() int { return len(a.questions) }

// Dimensions lists the dimensions this quiz scores, in canonical order.
func (a *Assessor) Dimensions() []personality.Dimension {
	return append([]personality.Dimension(nil), a.dimensions...)
}

// Questions returns the quiz in serving order without scores or traits.
func (a *Assessor) Questions() []DisplayQuestion {
	out := make([]DisplayQuestion, 0, len(a.questions))
	for _, q := range a.questions {
		dq := DisplayQuestion{ID: q.ID, Category: q.Category, Question: q.Text}
		for _, o := range q.Options {
			dq.Options = append(dq.Options, DisplayOption{Text: o.Text})
		}
		out = append(out, dq)
	}
	return out
}

// #endregion assessor

// #region analyze
// Analyze scores a complete set of quiz responses.
func (a *Assessor) Analyze(responses []Response) (Result, error) {
	if len(responses) != len(a.questions) {
		return Result{}, apperr.Validation("expected %d responses, got %d", len(a.questions), len(responses))
	}

	sums := make(map[personality.Dimension]float64, len(a.dimensions))
	totals := make(map[personality.Dimension]float64, len(a.dimensions))
	answered := make(map[personality.Dimension]int, len(a.dimensions))
	for _, d := range a.dimensions {
		answered[d] = 0
	}

	counts := map[string]int{}
	var order []string

	for _, r := range responses {
		idx, ok := a.byID[r.QuestionID]
		if !ok || r.OptionIndex == nil {
			continue
		}
		q := a.questions[idx]
		oi := *r.OptionIndex
		if oi < 0 || oi >= len(q.Options) {
			continue
		}
		opt := q.Options[oi]

		for d, w := range a.weights[q.ID] {
			raw, ok := opt.Scores[d]
			if !ok {
				raw = personality.Neutral
			}
			sums[d] += raw * w
			totals[d] += w
			answered[d]++
		}
		for _, t := range opt.Traits {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	vec := make(personality.Vector, len(a.dimensions))
	for _, d := range a.dimensions {
		if totals[d] > 0 {
			vec.Set(d, personality.Round(sums[d]/totals[d], 2))
		} else {
			vec.Set(d, personality.Neutral)
		}
	}

	var traits []string
	for _, t := range order {
		if counts[t] >= 2 {
			traits = append(traits, t)
		}
	}

	cov := a.coverage(answered, len(responses))
	return Result{
		Vector:          vec,
		Traits:          traits,
		TraitCounts:     counts,
		Summary:         Summary(vec),
		Recommendations: Recommend(vec),
		Coverage:        cov,
		Valid:           cov.AllCovered,
		Timestamp:       a.now(),
	}, nil
}

func (a *Assessor) coverage(answered map[personality.Dimension]int, processed int) Coverage {
	cov := Coverage{
		Answered:       answered,
		Expected:       make(map[personality.Dimension]int, len(a.expected)),
		Report:         make(map[personality.Dimension]string, len(a.dimensions)),
		AllCovered:     true,
		TotalProcessed: processed,
	}
	for _, d := range a.dimensions {
		exp := a.expected[d]
		cov.Expected[d] = exp
		cov.Report[d] = fmt.Sprintf("%d/%d", answered[d], exp)
		if exp > 0 && answered[d] == 0 {
			cov.AllCovered = false
		}
	}
	return cov
}

// #endregion analyze
