package domain

import (
	"testing"
	"time"
)

func strptr(s string) *string { return &s }

func TestAggregate_SkipsNumericNames(t *testing.T) {
	acc := make(map[string]*Accumulator)

	Aggregate(acc, []Record{
		{Kind: KindSold, CustomerName: "123.456.789-00", AmountCents: 1000, OccurredOn: time.Now()},
		{Kind: KindSold, CustomerName: "Ana Paula", AmountCents: 2000, OccurredOn: time.Now()},
	})

	if len(acc) != 1 {
		t.Fatalf("expected 1 accumulator, got %d", len(acc))
	}
	for _, a := range acc {
		if a.Name != "Ana Paula" {
			t.Fatalf("expected Ana Paula, got %q", a.Name)
		}
	}
}

func TestAggregate_MergesByNormalizedName(t *testing.T) {
	acc := make(map[string]*Accumulator)

	Aggregate(acc, []Record{
		{Kind: KindSold, CustomerName: "João  Silva", AmountCents: 1000, OccurredOn: time.Now()},
		{Kind: KindExecuted, CustomerName: "joao silva", AmountCents: 3000, OccurredOn: time.Now()},
	})

	if len(acc) != 1 {
		t.Fatalf("expected accent and case variants to merge, got %d accumulators", len(acc))
	}
	for _, a := range acc {
		if a.Name != "João  Silva" {
			t.Fatalf("expected the first seen display name, got %q", a.Name)
		}
		if a.CountSold != 1 || a.CountExecuted != 1 {
			t.Fatalf("expected one record per kind, got sold=%d executed=%d", a.CountSold, a.CountExecuted)
		}
		if a.TotalSoldCents != 1000 || a.TotalExecutedCents != 3000 {
			t.Fatalf("unexpected totals: sold=%d executed=%d", a.TotalSoldCents, a.TotalExecutedCents)
		}
	}
}

func TestAggregate_ContactFirstNonEmptyWins(t *testing.T) {
	acc := make(map[string]*Accumulator)

	Aggregate(acc, []Record{
		{Kind: KindSold, CustomerName: "Bruna Costa", Email: strptr("bruna@example.com"), OccurredOn: time.Now()},
		{Kind: KindSold, CustomerName: "Bruna Costa", Email: strptr("other@example.com"), NationalID: strptr("98765432100"), OccurredOn: time.Now()},
	})

	a := acc["bruna costa"]
	if a == nil {
		t.Fatalf("expected accumulator under normalized key")
	}
	if a.Contact.Email == nil || *a.Contact.Email != "bruna@example.com" {
		t.Fatalf("expected first email to win, got %v", a.Contact.Email)
	}
	if a.Contact.NationalID == nil || *a.Contact.NationalID != "98765432100" {
		t.Fatalf("expected national id filled from later record, got %v", a.Contact.NationalID)
	}
}

func TestAccumulator_ActivityBounds(t *testing.T) {
	early := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)

	a := &Accumulator{
		SoldDates:     []time.Time{mid, early},
		ExecutedDates: []time.Time{late},
	}

	if got := a.FirstActivity(); !got.Equal(early) {
		t.Fatalf("expected first activity %v, got %v", early, got)
	}
	if got := a.LastActivity(); !got.Equal(late) {
		t.Fatalf("expected last activity %v, got %v", late, got)
	}

	empty := &Accumulator{}
	if !empty.LastActivity().IsZero() {
		t.Fatalf("expected zero last activity for empty accumulator")
	}
}
