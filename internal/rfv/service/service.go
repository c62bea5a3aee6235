// Package service runs the RFV batch recomputation: stream all
// transaction records, fold them into per-customer accumulators,
// classify, and upsert the resulting profiles in chunks.
package service

import (
	"context"
	"sync"
	"time"

	"clinic_crm_backend/internal/events"
	"clinic_crm_backend/internal/rfv/domain"
	"clinic_crm_backend/platform/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Store is the narrow record-store surface this job depends on.
type Store interface {
	ListTransactionPage(ctx context.Context, kind domain.RecordKind, limit, offset int) ([]domain.Record, error)
	UpsertProfiles(ctx context.Context, profiles []domain.Profile, now time.Time) error
}

// Options tunes the batch job. Zero values fall back to defaults.
type Options struct {
	PageSize       int // rows per read round-trip (store caps near 1000)
	ChunkSize      int // profiles per write round-trip
	WriteParallel  int // concurrent upsert chunks
	PagesPerSecond int // read rate limit
}

// Stats is the structured outcome of one recalculation run. Errors
// counts failed upsert chunks; the run itself still completes.
type Stats struct {
	SourceRecordCounts map[string]int `json:"sourceRecordCounts"`
	UniqueCustomers    int            `json:"uniqueCustomers"`
	Updated            int            `json:"updated"`
	Errors             int            `json:"errors"`
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	opts  Options

	now func() time.Time
}

func New(store Store, bus events.Bus, log *logger.Logger, opts Options) *Service {
	if opts.PageSize <= 0 {
		opts.PageSize = 1000
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 100
	}
	if opts.WriteParallel <= 0 {
		opts.WriteParallel = 4
	}
	if opts.PagesPerSecond <= 0 {
		opts.PagesPerSecond = 20
	}

	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		opts:  opts,
		now:   time.Now,
	}
}

// Recalculate is a stateless single-invocation batch job: it reads the
// full transactional history of both streams, folds and classifies, and
// upserts every scored profile. A chunk failure is recorded and the run
// continues with the next chunk.
func (s *Service) Recalculate(ctx context.Context) (Stats, error) {
	stats := Stats{SourceRecordCounts: make(map[string]int)}

	acc := make(map[string]*domain.Accumulator)
	limiter := rate.NewLimiter(rate.Limit(s.opts.PagesPerSecond), 1)

	for _, kind := range []domain.RecordKind{domain.KindSold, domain.KindExecuted} {
		count, err := s.streamKind(ctx, kind, limiter, acc)
		if err != nil {
			return stats, err
		}
		stats.SourceRecordCounts[string(kind)] = count
	}

	now := s.now()

	profiles := make([]domain.Profile, 0, len(acc))
	for _, a := range acc {
		if p, ok := domain.Classify(a, now); ok {
			profiles = append(profiles, p)
		}
	}
	stats.UniqueCustomers = len(profiles)

	updated, errCount := s.persist(ctx, profiles, now)
	stats.Updated = updated
	stats.Errors = errCount

	s.log.BatchJob("rfv.recalculate", stats.UniqueCustomers, stats.Updated, stats.Errors)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ProfilesRecalculated{
			BaseEvent:       events.NewBaseEvent(),
			UniqueCustomers: stats.UniqueCustomers,
			Updated:         stats.Updated,
			Errors:          stats.Errors,
		})
	}

	return stats, nil
}

// streamKind pages through one record stream until a short page.
func (s *Service) streamKind(ctx context.Context, kind domain.RecordKind, limiter *rate.Limiter, acc map[string]*domain.Accumulator) (int, error) {
	total := 0
	offset := 0

	for {
		if err := limiter.Wait(ctx); err != nil {
			return total, err
		}

		page, err := s.store.ListTransactionPage(ctx, kind, s.opts.PageSize, offset)
		if err != nil {
			return total, err
		}

		domain.Aggregate(acc, page)
		total += len(page)

		if len(page) < s.opts.PageSize {
			return total, nil
		}
		offset += len(page)
	}
}

// persist upserts profiles in chunks with bounded parallelism. Each
// chunk is reported individually; a failing chunk never aborts the rest.
func (s *Service) persist(ctx context.Context, profiles []domain.Profile, now time.Time) (updated, errCount int) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.WriteParallel)

	for start := 0; start < len(profiles); start += s.opts.ChunkSize {
		end := start + s.opts.ChunkSize
		if end > len(profiles) {
			end = len(profiles)
		}
		chunk := profiles[start:end]

		g.Go(func() error {
			if err := s.store.UpsertProfiles(gctx, chunk, now); err != nil {
				s.log.DatabaseError("rfv.upsert_profiles", err)
				mu.Lock()
				errCount += len(chunk)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			updated += len(chunk)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return updated, errCount
}
