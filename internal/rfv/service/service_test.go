package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic_crm_backend/internal/rfv/domain"
	"clinic_crm_backend/platform/logger"
)

type fakeStore struct {
	sold     []domain.Record
	executed []domain.Record

	upserted   int
	failChunks bool
}

func (f *fakeStore) ListTransactionPage(ctx context.Context, kind domain.RecordKind, limit, offset int) ([]domain.Record, error) {
	src := f.sold
	if kind == domain.KindExecuted {
		src = f.executed
	}
	if offset >= len(src) {
		return nil, nil
	}
	end := offset + limit
	if end > len(src) {
		end = len(src)
	}
	return src[offset:end], nil
}

func (f *fakeStore) UpsertProfiles(ctx context.Context, profiles []domain.Profile, now time.Time) error {
	if f.failChunks {
		return errors.New("connection reset")
	}
	f.upserted += len(profiles)
	return nil
}

func soldRecord(name string, daysAgo int, cents int64) domain.Record {
	return domain.Record{
		Kind:         domain.KindSold,
		CustomerName: name,
		OccurredOn:   time.Now().AddDate(0, 0, -daysAgo),
		AmountCents:  cents,
	}
}

func TestRecalculate_PaginatesAndCounts(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < 7; i++ {
		store.sold = append(store.sold, soldRecord("Cliente A", 10+i, 100_000))
	}
	store.executed = append(store.executed, domain.Record{
		Kind:         domain.KindExecuted,
		CustomerName: "Cliente B",
		OccurredOn:   time.Now().AddDate(0, 0, -20),
		AmountCents:  50_000,
	})

	svc := New(store, nil, logger.New("development"), Options{PageSize: 3, ChunkSize: 1, PagesPerSecond: 1000})

	stats, err := svc.Recalculate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.SourceRecordCounts["sold"] != 7 {
		t.Fatalf("expected 7 sold records, got %d", stats.SourceRecordCounts["sold"])
	}
	if stats.SourceRecordCounts["executed"] != 1 {
		t.Fatalf("expected 1 executed record, got %d", stats.SourceRecordCounts["executed"])
	}
	if stats.UniqueCustomers != 2 {
		t.Fatalf("expected 2 unique customers, got %d", stats.UniqueCustomers)
	}
	if stats.Updated != 2 || stats.Errors != 0 {
		t.Fatalf("expected 2 updated and 0 errors, got %d/%d", stats.Updated, stats.Errors)
	}
	if store.upserted != 2 {
		t.Fatalf("expected 2 upserted profiles, got %d", store.upserted)
	}
}

func TestRecalculate_ChunkFailuresAreCountedNotFatal(t *testing.T) {
	store := &fakeStore{failChunks: true}
	store.sold = append(store.sold,
		soldRecord("Cliente A", 5, 100_000),
		soldRecord("Cliente B", 9, 200_000),
	)

	svc := New(store, nil, logger.New("development"), Options{PageSize: 10, ChunkSize: 1, PagesPerSecond: 1000})

	stats, err := svc.Recalculate(context.Background())
	if err != nil {
		t.Fatalf("expected the run to complete, got %v", err)
	}
	if stats.Errors != 2 {
		t.Fatalf("expected 2 errored profiles, got %d", stats.Errors)
	}
	if stats.Updated != 0 {
		t.Fatalf("expected nothing updated, got %d", stats.Updated)
	}
}
