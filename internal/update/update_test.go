package update

import (
	"math"
	"testing"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
	"github.com/danielpatrickdp/stress-dost/internal/state"
	"github.com/danielpatrickdp/stress-dost/internal/trigger"
)

func secs(x float64) *float64 { return &x }

func records(correct []bool, rt float64, cats ...trigger.Category) []Record {
	out := make([]Record, len(correct))
	for i, c := range correct {
		cat := trigger.CategoryFear
		if len(cats) > 0 {
			cat = cats[i%len(cats)]
		}
		out[i] = Record{Correct: c, ResponseTime: secs(rt), Category: cat}
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func baseRecord() state.VectorRecord {
	return state.VectorRecord{
		VersionID: "v1",
		SessionID: "sess",
		Vector: personality.Vector{
			personality.IntrinsicMotivation: 0.6,
			personality.Resilience:          0.02,
			personality.StressSensitivity:   0.5,
		},
	}
}

func TestUpdateNoOpWithShortHistory(t *testing.T) {
	old := baseRecord()
	result := Update(old, records([]bool{false, false}, 5), DefaultUpdateConfig())

	if result.Decision.Action != "no_op" {
		t.Fatalf("expected no_op, got %s", result.Decision.Action)
	}
	for d, x := range old.Vector {
		if result.NewState.Vector[d] != x {
			t.Fatalf("vector changed at %s", d)
		}
	}
	if result.NewState.VersionID == old.VersionID {
		t.Fatal("new version should have different ID")
	}
	if result.NewState.ParentID != old.VersionID {
		t.Fatalf("expected parent %s, got %s", old.VersionID, result.NewState.ParentID)
	}
	if result.NewState.SessionID != "sess" {
		t.Fatalf("expected session carried over, got %q", result.NewState.SessionID)
	}
}

func TestUpdateHighAccuracyFast(t *testing.T) {
	old := baseRecord()
	hist := records([]bool{true, true, true, true, true, true, true, true, true, true}, 10,
		trigger.CategoryFear, trigger.CategoryThoughts)
	result := Update(old, hist, DefaultUpdateConfig())

	if result.Decision.Action != "commit" {
		t.Fatalf("expected commit, got %s (%s)", result.Decision.Action, result.Decision.Reason)
	}
	v := result.NewState.Vector
	if !near(v.Get(personality.IntrinsicMotivation), 0.55) {
		t.Fatalf("intrinsic_motivation: expected 0.55, got %f", v.Get(personality.IntrinsicMotivation))
	}
	if !near(v.Get(personality.Impulsivity), 0.58) {
		t.Fatalf("impulsivity: expected 0.58, got %f", v.Get(personality.Impulsivity))
	}
	if v.Has(personality.DistractionResistance) {
		t.Fatal("mixed categories must not touch distraction_resistance")
	}
	if len(result.Metrics.Adjustments) != 2 {
		t.Fatalf("expected 2 adjustments, got %v", result.Metrics.Adjustments)
	}
	if old.Vector.Get(personality.IntrinsicMotivation) != 0.6 {
		t.Fatal("old vector mutated")
	}
}

func TestUpdateLowAccuracyClampsAndFocus(t *testing.T) {
	old := baseRecord()
	hist := records([]bool{false, false, false, false, false, true}, 40)
	result := Update(old, hist, DefaultUpdateConfig())

	v := result.NewState.Vector
	if v.Get(personality.Resilience) != 0 {
		t.Fatalf("resilience should clamp at 0, got %f", v.Get(personality.Resilience))
	}
	if !near(v.Get(personality.StressSensitivity), 0.58) {
		t.Fatalf("stress_sensitivity: expected 0.58, got %f", v.Get(personality.StressSensitivity))
	}
	if !near(v.Get(personality.DistractionResistance), 0.45) {
		t.Fatalf("distraction_resistance: expected 0.45, got %f", v.Get(personality.DistractionResistance))
	}
	if result.Metrics.Accuracy > 0.17 || result.Metrics.Accuracy < 0.16 {
		t.Fatalf("unexpected accuracy %f", result.Metrics.Accuracy)
	}
}

func TestUpdateUsesLastTenRecords(t *testing.T) {
	old := baseRecord()
	// five early failures fall outside the window
	hist := append(records([]bool{false, false, false, false, false}, 5),
		records([]bool{true, true, true, true, true, true, true, true, true, true}, 25, trigger.CategoryFear, trigger.CategoryFrustration)...)
	result := Update(old, hist, DefaultUpdateConfig())

	if result.Metrics.Window != 10 || result.Metrics.Accuracy != 1 {
		t.Fatalf("expected window 10 at accuracy 1, got %d at %f", result.Metrics.Window, result.Metrics.Accuracy)
	}
	if result.NewState.Vector.Has(personality.Impulsivity) {
		t.Fatal("slow responses must not raise impulsivity")
	}
}

func TestUpdateMissingTimesUseDefault(t *testing.T) {
	old := baseRecord()
	hist := []Record{
		{Correct: true, Category: trigger.CategoryFear},
		{Correct: true, Category: trigger.CategoryThoughts},
		{Correct: true, Category: trigger.CategoryFear},
	}
	result := Update(old, hist, DefaultUpdateConfig())
	if result.Metrics.AvgResponseTime != 30 {
		t.Fatalf("expected default 30s, got %f", result.Metrics.AvgResponseTime)
	}
}

func TestUpdateModerateAccuracyIsNoOp(t *testing.T) {
	old := baseRecord()
	hist := records([]bool{true, false, true, true}, 10, trigger.CategoryFear, trigger.CategoryThoughts)
	result := Update(old, hist, DefaultUpdateConfig())
	if result.Decision.Action != "no_op" {
		t.Fatalf("expected no_op, got %s", result.Decision.Action)
	}
}
