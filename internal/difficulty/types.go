package difficulty

// #region sample
// Sample is one answered main question.
type Sample struct {
	Correct bool    `json:"correct"`
	Time    float64 `json:"time"`
}

// #endregion sample

// #region adjustment
// Adjustment records what one evaluation of the window decided.
type Adjustment struct {
	Action     string  `json:"action"` // "increase" | "decrease" | "hold"
	Multiplier float64 `json:"multiplier"`
	Reason     string  `json:"reason"`
}

// #endregion adjustment

// #region config
// Config holds the window size and rule thresholds.
type Config struct {
	WindowSize        int     // rolling window length (default 4)
	IncreaseMinSample int     // samples needed before the increase rule may fire (default 3)
	IncreaseMinRight  int     // correct answers needed to increase (default 3)
	FastAverage       float64 // average seconds below which the student counts as fast (default 3.5)
	DecreaseMinSample int     // samples needed before the decrease rule may fire (default 2)
	DecreaseMaxRight  int     // at most this many correct answers triggers a decrease (default 1)
	SlowAverage       float64 // average seconds above which the student counts as slow (default 5.0)
	Step              float64 // normal adjustment (default 0.10)
	UnanimousUp       float64 // increase when every answer in a full window is correct (default 0.15)
	UnanimousDown     float64 // decrease when every answer in the window is wrong (default 0.20)
}

// DefaultConfig returns the controller thresholds.
func DefaultConfig() Config {
	return Config{
		WindowSize:        4,
		IncreaseMinSample: 3,
		IncreaseMinRight:  3,
		FastAverage:       3.5,
		DecreaseMinSample: 2,
		DecreaseMaxRight:  1,
		SlowAverage:       5.0,
		Step:              0.10,
		UnanimousUp:       0.15,
		UnanimousDown:     0.20,
	}
}

// #endregion config
