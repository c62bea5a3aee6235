// Package domain holds the pure RFV computation logic: folding raw
// transaction records into per-customer accumulators and classifying
// accumulators into scored, segmented profiles.
package domain

import (
	"time"

	"clinic_crm_backend/platform/identity"
	"clinic_crm_backend/platform/phone"
)

// RecordKind distinguishes the two transactional input streams. Both
// describe the same customers and fold into the same accumulator.
type RecordKind string

const (
	KindSold     RecordKind = "sold"
	KindExecuted RecordKind = "executed"
)

// Record is one transactional row as read from the store.
type Record struct {
	Kind            RecordKind
	CustomerName    string
	Email           *string
	Phone           *string
	NationalID      *string
	MedicalRecordNo *string
	OccurredOn      time.Time
	AmountCents     int64
}

// Contact holds the best-available contact fields for a customer.
// Fields are filled opportunistically: the first non-empty value wins
// and is never overwritten by a later record.
type Contact struct {
	Email           *string
	Phone           *string
	NationalID      *string
	MedicalRecordNo *string
}

// Accumulator aggregates all activity of a single customer identity
// across both record kinds.
type Accumulator struct {
	Name    string // display name of the first record seen
	Contact Contact

	SoldDates     []time.Time
	ExecutedDates []time.Time

	TotalSoldCents     int64
	TotalExecutedCents int64
	CountSold          int
	CountExecuted      int
}

// Aggregate folds records into accumulators keyed by the normalized
// customer name. Records whose name is purely numeric are skipped: those
// are national ids misfiled into the name column by the upstream feed.
// Call it once per input stream with the same map.
func Aggregate(acc map[string]*Accumulator, records []Record) {
	for _, rec := range records {
		if identity.IsNumeric(rec.CustomerName) {
			continue
		}

		key := identity.NormalizeKey(rec.CustomerName)
		if key == "" {
			continue
		}

		a, ok := acc[key]
		if !ok {
			a = &Accumulator{Name: rec.CustomerName}
			acc[key] = a
		}

		a.fold(rec)
	}
}

func (a *Accumulator) fold(rec Record) {
	switch rec.Kind {
	case KindExecuted:
		a.ExecutedDates = append(a.ExecutedDates, rec.OccurredOn)
		a.TotalExecutedCents += rec.AmountCents
		a.CountExecuted++
	default:
		a.SoldDates = append(a.SoldDates, rec.OccurredOn)
		a.TotalSoldCents += rec.AmountCents
		a.CountSold++
	}

	a.Contact.merge(rec)
}

func (c *Contact) merge(rec Record) {
	if c.Email == nil && nonEmpty(rec.Email) {
		c.Email = rec.Email
	}
	if c.Phone == nil && nonEmpty(rec.Phone) {
		normalized := phone.NormalizeE164(*rec.Phone)
		c.Phone = &normalized
	}
	if c.NationalID == nil && nonEmpty(rec.NationalID) {
		c.NationalID = rec.NationalID
	}
	if c.MedicalRecordNo == nil && nonEmpty(rec.MedicalRecordNo) {
		c.MedicalRecordNo = rec.MedicalRecordNo
	}
}

// LastActivity returns the most recent date across both kinds, or the
// zero time when the accumulator holds no dated records.
func (a *Accumulator) LastActivity() time.Time {
	var last time.Time
	for _, d := range a.SoldDates {
		if d.After(last) {
			last = d
		}
	}
	for _, d := range a.ExecutedDates {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// FirstActivity returns the earliest date across both kinds, or the
// zero time when the accumulator holds no dated records.
func (a *Accumulator) FirstActivity() time.Time {
	var first time.Time
	for _, d := range a.SoldDates {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	for _, d := range a.ExecutedDates {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	return first
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}
