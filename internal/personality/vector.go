package personality

import (
	"math"
	"sort"
)

// Neutral is the value reported for a dimension the vector does not carry.
const Neutral = 0.5

// #region vector
// Vector maps dimensions to values in [0,1]. Absent dimensions read as Neutral.
type Vector map[Dimension]float64

// NewVector builds a vector from raw values, clamping each one.
func NewVector(values map[Dimension]float64) Vector {
	v := make(Vector, len(values))
	for d, x := range values {
		v.Set(d, x)
	}
	return v
}

// Get returns the value for d, or Neutral if absent.
func (v Vector) Get(d Dimension) float64 {
	if x, ok := v[d]; ok {
		return x
	}
	return Neutral
}

// Has reports whether d is present.
func (v Vector) Has(d Dimension) bool {
	_, ok := v[d]
	return ok
}

// Set stores x clamped to [0,1].
func (v Vector) Set(d Dimension, x float64) {
	v[d] = Clamp01(x)
}

// Add nudges d by delta (starting from Neutral when absent) and reclamps.
func (v Vector) Add(d Dimension, delta float64) {
	v.Set(d, v.Get(d)+delta)
}

// Clone returns an independent copy. A nil vector clones to an empty one.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for d, x := range v {
		out[d] = x
	}
	return out
}

// Present lists the dimensions carried by v in canonical order.
// Unknown keys sort after the canonical ones, alphabetically.
func (v Vector) Present() []Dimension {
	out := make([]Dimension, 0, len(v))
	for _, d := range AllDimensions {
		if v.Has(d) {
			out = append(out, d)
		}
	}
	if len(out) == len(v) {
		return out
	}
	var extra []Dimension
	for d := range v {
		if _, err := ParseDimension(string(d)); err != nil {
			extra = append(extra, d)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Dominant returns up to n present dimensions ordered by |value-0.5| descending.
// Ties keep canonical order.
func (v Vector) Dominant(n int) []Dimension {
	dims := v.Present()
	sort.SliceStable(dims, func(i, j int) bool {
		return math.Abs(v[dims[i]]-Neutral) > math.Abs(v[dims[j]]-Neutral)
	})
	if n >= 0 && len(dims) > n {
		dims = dims[:n]
	}
	return dims
}

// #endregion vector

// #region helpers
// Clamp01 bounds x to [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// #endregion helpers
