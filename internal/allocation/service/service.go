// Package service implements the lead allocator: importing not-yet-
// tracked customers as leads and redistributing all leads evenly and
// randomly across the two competing teams.
package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"clinic_crm_backend/internal/allocation/repository"
	"clinic_crm_backend/internal/events"
	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Actions accepted by Run.
const (
	ActionImportAndDistribute = "import_and_distribute"
	ActionImportOnly          = "import_only"
	ActionDistributeOnly      = "distribute_only"
)

// Store is the narrow record-store surface the allocator depends on.
type Store interface {
	ListTeamIDs(ctx context.Context) ([]uuid.UUID, error)
	DefaultIntake(ctx context.Context) (pipelineID, stageID uuid.UUID, err error)
	ListUntrackedProfiles(ctx context.Context, limit int) ([]repository.NewLead, error)
	InsertLeads(ctx context.Context, leads []repository.NewLead, pipelineID, stageID uuid.UUID) error
	LinkMissingProfiles(ctx context.Context) (int, error)
	ListLeadIDsPage(ctx context.Context, limit, offset int) ([]uuid.UUID, error)
	AssignTeam(ctx context.Context, leadIDs []uuid.UUID, teamID uuid.UUID) error
	TeamStats(ctx context.Context) ([]repository.TeamStat, error)
	TeamProfileValues(ctx context.Context, teamID uuid.UUID) ([]int64, error)
}

// Summary is the structured outcome of an allocation run.
type Summary struct {
	TotalLeads int        `json:"totalLeads"`
	Imported   int        `json:"imported"`
	Linked     int        `json:"linked"`
	PerTeam    []TeamSlot `json:"perTeam"`
}

// TeamSlot is one team's share of the distribution.
type TeamSlot struct {
	TeamID     uuid.UUID `json:"teamId"`
	Name       string    `json:"name"`
	LeadCount  int       `json:"leadCount"`
	TotalValue int64     `json:"totalValue"`
}

const (
	importBatchSize  = 200
	pageSize         = 1000
	assignChunkSize  = 200
	assignParallel   = 4
	maxImportRounds  = 1000 // hard stop against a pathological feed
	distributedTeams = 2
)

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	rng   *rand.Rand
	rngMu sync.Mutex
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithRand replaces the shuffle source; used by tests for determinism.
func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

// Run executes the requested allocation action and returns the summary.
func (s *Service) Run(ctx context.Context, action string) (Summary, error) {
	var summary Summary

	switch action {
	case ActionImportAndDistribute, ActionImportOnly, ActionDistributeOnly, "":
	default:
		return summary, apperr.Validation("unknown action: " + action).WithOp("allocation.run")
	}
	if action == "" {
		action = ActionImportAndDistribute
	}

	if action != ActionDistributeOnly {
		imported, err := s.importLeads(ctx)
		if err != nil {
			return summary, err
		}
		summary.Imported = imported

		linked, err := s.store.LinkMissingProfiles(ctx)
		if err != nil {
			return summary, err
		}
		summary.Linked = linked
	}

	if action != ActionImportOnly {
		total, perTeamCounts, err := s.distribute(ctx)
		if err != nil {
			return summary, err
		}
		summary.TotalLeads = total

		if s.bus != nil {
			s.bus.Publish(ctx, events.LeadsRedistributed{
				BaseEvent:  events.NewBaseEvent(),
				TotalLeads: total,
				PerTeam:    perTeamCounts,
			})
		}
	}

	perTeam, err := s.teamSlots(ctx)
	if err != nil {
		return summary, err
	}
	summary.PerTeam = perTeam

	if summary.TotalLeads == 0 {
		for _, slot := range perTeam {
			summary.TotalLeads += slot.LeadCount
		}
	}

	s.log.BatchJob("allocation."+action, summary.TotalLeads, summary.Imported, 0)
	return summary, nil
}

// CurrentSummary reports per-team counts and value without modifying
// any assignment.
func (s *Service) CurrentSummary(ctx context.Context) (Summary, error) {
	perTeam, err := s.teamSlots(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{PerTeam: perTeam}
	for _, slot := range perTeam {
		summary.TotalLeads += slot.LeadCount
	}
	return summary, nil
}

// importLeads inserts every profile with a stable identifier that has no
// lead yet, in fixed-size batches until the untracked set is drained.
func (s *Service) importLeads(ctx context.Context) (int, error) {
	pipelineID, stageID, err := s.store.DefaultIntake(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "default pipeline not configured", err).WithOp("allocation.import")
	}

	imported := 0
	for round := 0; round < maxImportRounds; round++ {
		untracked, err := s.store.ListUntrackedProfiles(ctx, importBatchSize)
		if err != nil {
			return imported, err
		}
		if len(untracked) == 0 {
			break
		}

		if err := s.store.InsertLeads(ctx, untracked, pipelineID, stageID); err != nil {
			return imported, err
		}
		imported += len(untracked)

		if len(untracked) < importBatchSize {
			break
		}
	}

	return imported, nil
}

// distribute fetches every lead, shuffles the full list, and assigns
// alternating positions to the two teams. This is a full reshuffle:
// every lead's assignment may change, and counts differ by at most one.
func (s *Service) distribute(ctx context.Context) (int, map[uuid.UUID]int, error) {
	teams, err := s.store.ListTeamIDs(ctx)
	if err != nil {
		return 0, nil, err
	}
	if len(teams) != distributedTeams {
		return 0, nil, apperr.Internal("expected exactly two teams").WithOp("allocation.distribute")
	}

	ids := make([]uuid.UUID, 0, pageSize)
	offset := 0
	for {
		page, err := s.store.ListLeadIDsPage(ctx, pageSize, offset)
		if err != nil {
			return 0, nil, err
		}
		ids = append(ids, page...)
		if len(page) < pageSize {
			break
		}
		offset += len(page)
	}

	s.rngMu.Lock()
	s.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	s.rngMu.Unlock()

	assignments := map[uuid.UUID][]uuid.UUID{}
	for i, id := range ids {
		team := teams[i%distributedTeams]
		assignments[team] = append(assignments[team], id)
	}

	counts := make(map[uuid.UUID]int, distributedTeams)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(assignParallel)

	for team, leadIDs := range assignments {
		counts[team] = len(leadIDs)
		for start := 0; start < len(leadIDs); start += assignChunkSize {
			end := start + assignChunkSize
			if end > len(leadIDs) {
				end = len(leadIDs)
			}
			chunk := leadIDs[start:end]
			teamID := team

			g.Go(func() error {
				return s.store.AssignTeam(gctx, chunk, teamID)
			})
		}
	}

	if err := g.Wait(); err != nil {
		return len(ids), counts, err
	}

	return len(ids), counts, nil
}

// teamSlots builds the per-team summary, preferring the SQL aggregate
// and falling back to client-side summing of linked profile values.
func (s *Service) teamSlots(ctx context.Context) ([]TeamSlot, error) {
	stats, err := s.store.TeamStats(ctx)
	if err == nil {
		slots := make([]TeamSlot, 0, len(stats))
		for _, st := range stats {
			slots = append(slots, TeamSlot{
				TeamID:     st.TeamID,
				Name:       st.Name,
				LeadCount:  st.LeadCount,
				TotalValue: st.TotalValue,
			})
		}
		return slots, nil
	}

	s.log.Warn("team stats aggregate unavailable, summing client-side", "error", err)

	teams, err := s.store.ListTeamIDs(ctx)
	if err != nil {
		return nil, err
	}

	slots := make([]TeamSlot, 0, len(teams))
	for _, teamID := range teams {
		values, err := s.store.TeamProfileValues(ctx, teamID)
		if err != nil {
			return nil, err
		}

		var total int64
		for _, v := range values {
			total += v
		}
		slots = append(slots, TeamSlot{
			TeamID:     teamID,
			LeadCount:  len(values),
			TotalValue: total,
		})
	}

	return slots, nil
}
