package domain

import "time"

// Segment labels. Every (recency, frequency, value) triple maps to
// exactly one of these.
const (
	SegmentChampions     = "champions"
	SegmentLoyal         = "loyal"
	SegmentPotential     = "potential"
	SegmentPromising     = "promising"
	SegmentNew           = "new"
	SegmentAtRisk        = "at-risk"
	SegmentCannotLose    = "cannot-lose"
	SegmentHibernating   = "hibernating"
	SegmentLost          = "lost"
	SegmentNeedAttention = "need-attention"
)

// Profile is the classified output for one customer identity, ready to
// be upserted keyed by Name.
type Profile struct {
	Name                  string
	Contact               Contact
	FirstActivity         time.Time
	LastActivity          time.Time
	PurchaseCount         int
	TotalValueCents       int64
	AvgTicketCents        int64
	RecencyScore          int
	FrequencyScore        int
	ValueScore            int
	Segment               string
	DaysSinceLastActivity int
}

// Classify converts an accumulator into a scored profile. It returns
// false when the accumulator carries no dated activity; such customers
// are skipped entirely and never persisted.
func Classify(a *Accumulator, now time.Time) (Profile, bool) {
	last := a.LastActivity()
	if last.IsZero() {
		return Profile{}, false
	}

	days := int(now.Sub(last).Hours() / 24)
	if days < 0 {
		days = 0
	}

	// The two streams are alternative measurements of the same economic
	// activity: a sale and its execution must not be double-counted.
	totalValue := a.TotalSoldCents
	if a.TotalExecutedCents > totalValue {
		totalValue = a.TotalExecutedCents
	}

	purchases := a.CountSold + a.CountExecuted

	var avgTicket int64
	if purchases > 0 {
		avgTicket = totalValue / int64(purchases)
	}

	r := RecencyScore(days)
	f := FrequencyScore(purchases)
	v := ValueScore(totalValue)

	return Profile{
		Name:                  a.Name,
		Contact:               a.Contact,
		FirstActivity:         a.FirstActivity(),
		LastActivity:          last,
		PurchaseCount:         purchases,
		TotalValueCents:       totalValue,
		AvgTicketCents:        avgTicket,
		RecencyScore:          r,
		FrequencyScore:        f,
		ValueScore:            v,
		Segment:               Segment(r, f, v),
		DaysSinceLastActivity: days,
	}, true
}

// RecencyScore maps days since last activity to a 1-5 score.
func RecencyScore(days int) int {
	switch {
	case days <= 30:
		return 5
	case days <= 90:
		return 4
	case days <= 180:
		return 3
	case days <= 365:
		return 2
	default:
		return 1
	}
}

// FrequencyScore maps total purchase count to a 1-5 score.
func FrequencyScore(purchases int) int {
	switch {
	case purchases >= 10:
		return 5
	case purchases >= 5:
		return 4
	case purchases >= 3:
		return 3
	case purchases >= 2:
		return 2
	default:
		return 1
	}
}

// ValueScore maps total monetary value to a 1-5 score. Thresholds are
// in whole currency units; values are stored in cents.
func ValueScore(totalCents int64) int {
	total := totalCents / 100
	switch {
	case total >= 100_000:
		return 5
	case total >= 50_000:
		return 4
	case total >= 20_000:
		return 3
	case total >= 5_000:
		return 2
	default:
		return 1
	}
}

// Segment evaluates the segmentation decision table top-to-bottom,
// first match wins. The thresholds are the source-of-truth contract.
func Segment(r, f, v int) string {
	switch {
	case r >= 4 && f >= 4 && v >= 4:
		return SegmentChampions
	case r >= 3 && f >= 3 && v >= 3:
		return SegmentLoyal
	case r >= 4 && f >= 2 && v >= 2:
		return SegmentPotential
	case r >= 4 && f >= 1:
		return SegmentPromising
	case r >= 4:
		return SegmentNew
	case r <= 2 && f >= 3 && v >= 3:
		return SegmentAtRisk
	case r <= 2 && f >= 2 && v >= 4:
		return SegmentCannotLose
	case r <= 2 && f >= 2:
		return SegmentHibernating
	case r <= 2 && f <= 2 && v <= 2:
		return SegmentLost
	case r >= 3 && f >= 2:
		return SegmentNeedAttention
	default:
		return SegmentPromising
	}
}
