package difficulty

import (
	"fmt"
	"math"
)

// #region controller
// Controller keeps the rolling answer window for one session.
type Controller struct {
	config Config
	window []Sample
}

// NewController creates an empty controller.
func NewController(config Config) *Controller {
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultConfig().WindowSize
	}
	return &Controller{config: config, window: make([]Sample, 0, config.WindowSize)}
}

// Window returns a copy of the current samples, oldest first.
func (c *Controller) Window() []Sample {
	return append([]Sample(nil), c.window...)
}

// Reset clears the window.
func (c *Controller) Reset() { c.window = c.window[:0] }

// Add pushes a sample, dropping the oldest on overflow, and evaluates the window.
func (c *Controller) Add(correct bool, seconds float64) Adjustment {
	if len(c.window) == c.config.WindowSize {
		copy(c.window, c.window[1:])
		c.window = c.window[:len(c.window)-1]
	}
	c.window = append(c.window, Sample{Correct: correct, Time: seconds})
	return Evaluate(c.window, c.config)
}

// Multiplier evaluates the current window without adding a sample.
func (c *Controller) Multiplier() float64 {
	return Evaluate(c.window, c.config).Multiplier
}

// #endregion controller

// #region evaluate
// Evaluate applies the increase rule, then the decrease rule, to a window.
// At most one rule fires.
func Evaluate(window []Sample, config Config) Adjustment {
	n := len(window)
	if n == 0 {
		return Adjustment{Action: "hold", Multiplier: 1.0, Reason: "no samples"}
	}
	correct := 0
	var total float64
	for _, s := range window {
		if s.Correct {
			correct++
		}
		total += s.Time
	}
	wrong := n - correct
	avg := total / float64(n)

	if n >= config.IncreaseMinSample && correct >= config.IncreaseMinRight && avg < config.FastAverage {
		step := config.Step
		if correct == config.WindowSize {
			step = config.UnanimousUp
		}
		return Adjustment{
			Action:     "increase",
			Multiplier: round2(1 + step),
			Reason:     fmt.Sprintf("%d/%d correct, avg %.2fs", correct, n, avg),
		}
	}

	if n >= config.DecreaseMinSample && ((correct <= config.DecreaseMaxRight && wrong >= 2) || avg > config.SlowAverage) {
		step := config.Step
		if correct == 0 {
			step = config.UnanimousDown
		}
		return Adjustment{
			Action:     "decrease",
			Multiplier: round2(1 - step),
			Reason:     fmt.Sprintf("%d/%d correct, avg %.2fs", correct, n, avg),
		}
	}

	return Adjustment{Action: "hold", Multiplier: 1.0, Reason: fmt.Sprintf("%d/%d correct, avg %.2fs", correct, n, avg)}
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// #endregion evaluate
