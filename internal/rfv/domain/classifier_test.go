package domain

import (
	"testing"
	"time"
)

var knownSegments = map[string]bool{
	SegmentChampions:     true,
	SegmentLoyal:         true,
	SegmentPotential:     true,
	SegmentPromising:     true,
	SegmentNew:           true,
	SegmentAtRisk:        true,
	SegmentCannotLose:    true,
	SegmentHibernating:   true,
	SegmentLost:          true,
	SegmentNeedAttention: true,
}

func TestSegment_TotalAndDeterministic(t *testing.T) {
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for v := 1; v <= 5; v++ {
				first := Segment(r, f, v)
				if !knownSegments[first] {
					t.Fatalf("Segment(%d,%d,%d) = %q, not a known segment", r, f, v, first)
				}
				if second := Segment(r, f, v); second != first {
					t.Fatalf("Segment(%d,%d,%d) not deterministic: %q then %q", r, f, v, first, second)
				}
			}
		}
	}
}

func TestSegment_TableOrder(t *testing.T) {
	cases := []struct {
		r, f, v int
		want    string
	}{
		{5, 5, 5, SegmentChampions},
		{4, 4, 4, SegmentChampions},
		{3, 3, 3, SegmentLoyal},
		{4, 3, 4, SegmentLoyal}, // loyal outranks potential in table order
		{4, 2, 2, SegmentPotential},
		{4, 1, 1, SegmentPromising},
		{1, 3, 3, SegmentAtRisk},
		{2, 2, 4, SegmentCannotLose},
		{2, 2, 2, SegmentHibernating},
		{1, 1, 1, SegmentLost},
		{3, 2, 1, SegmentNeedAttention},
	}

	for _, tc := range cases {
		if got := Segment(tc.r, tc.f, tc.v); got != tc.want {
			t.Fatalf("Segment(%d,%d,%d) = %q, want %q", tc.r, tc.f, tc.v, got, tc.want)
		}
	}
}

func TestRecencyScore_Monotonic(t *testing.T) {
	prev := RecencyScore(0)
	for days := 1; days <= 400; days++ {
		score := RecencyScore(days)
		if score > prev {
			t.Fatalf("recency score increased from %d to %d at %d days", prev, score, days)
		}
		prev = score
	}
}

func TestFrequencyScore_Monotonic(t *testing.T) {
	prev := FrequencyScore(0)
	for purchases := 1; purchases <= 20; purchases++ {
		score := FrequencyScore(purchases)
		if score < prev {
			t.Fatalf("frequency score decreased from %d to %d at %d purchases", prev, score, purchases)
		}
		prev = score
	}
}

func TestValueScore_Monotonic(t *testing.T) {
	prev := ValueScore(0)
	for total := int64(0); total <= 120_000; total += 500 {
		score := ValueScore(total * 100)
		if score < prev {
			t.Fatalf("value score decreased from %d to %d at total %d", prev, score, total)
		}
		prev = score
	}
}

func TestClassify_DoesNotDoubleCountValue(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := &Accumulator{
		Name:               "Maria Souza",
		SoldDates:          []time.Time{now.AddDate(0, 0, -5)},
		ExecutedDates:      []time.Time{now.AddDate(0, 0, -3)},
		TotalSoldCents:     1_000_000,
		TotalExecutedCents: 1_000_000,
		CountSold:          1,
		CountExecuted:      1,
	}

	profile, ok := Classify(acc, now)
	if !ok {
		t.Fatalf("expected a profile")
	}
	if profile.TotalValueCents != 1_000_000 {
		t.Fatalf("expected total 1000000, got %d", profile.TotalValueCents)
	}
	if profile.PurchaseCount != 2 {
		t.Fatalf("expected 2 purchases, got %d", profile.PurchaseCount)
	}
}

func TestClassify_PotentialScenario(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	acc := &Accumulator{
		Name: "Carlos Lima",
		SoldDates: []time.Time{
			now.AddDate(0, 0, -95),
			now.AddDate(0, 0, -40),
		},
		TotalSoldCents: 6_000_000, // R$60.000
		CountSold:      2,
	}

	profile, ok := Classify(acc, now)
	if !ok {
		t.Fatalf("expected a profile")
	}
	if profile.RecencyScore != 4 {
		t.Fatalf("expected recency 4, got %d", profile.RecencyScore)
	}
	if profile.FrequencyScore != 2 {
		t.Fatalf("expected frequency 2, got %d", profile.FrequencyScore)
	}
	if profile.ValueScore != 4 {
		t.Fatalf("expected value 4, got %d", profile.ValueScore)
	}
	if profile.Segment != SegmentPotential {
		t.Fatalf("expected segment %q, got %q", SegmentPotential, profile.Segment)
	}
	if profile.DaysSinceLastActivity != 40 {
		t.Fatalf("expected 40 days since last activity, got %d", profile.DaysSinceLastActivity)
	}
}

func TestClassify_SkipsUndatedAccumulator(t *testing.T) {
	acc := &Accumulator{Name: "Sem Data", TotalSoldCents: 500_000, CountSold: 1}

	if _, ok := Classify(acc, time.Now()); ok {
		t.Fatalf("expected accumulator without dates to be skipped")
	}
}
