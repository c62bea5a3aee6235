package service

import (
	"context"
	"math/rand"
	"testing"

	"clinic_crm_backend/internal/allocation/repository"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	teams      []uuid.UUID
	leads      []uuid.UUID
	untracked  []repository.NewLead
	assigned   map[uuid.UUID]uuid.UUID // lead -> team
	statsErr   error
	stats      []repository.TeamStat
	linked     int
	inserted   int
	pipelineID uuid.UUID
	stageID    uuid.UUID
}

func newFakeStore(teamCount, leadCount int) *fakeStore {
	f := &fakeStore{
		assigned:   make(map[uuid.UUID]uuid.UUID),
		pipelineID: uuid.New(),
		stageID:    uuid.New(),
	}
	for i := 0; i < teamCount; i++ {
		f.teams = append(f.teams, uuid.New())
	}
	for i := 0; i < leadCount; i++ {
		f.leads = append(f.leads, uuid.New())
	}
	return f
}

func (f *fakeStore) ListTeamIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.teams, nil
}

func (f *fakeStore) DefaultIntake(ctx context.Context) (uuid.UUID, uuid.UUID, error) {
	return f.pipelineID, f.stageID, nil
}

func (f *fakeStore) ListUntrackedProfiles(ctx context.Context, limit int) ([]repository.NewLead, error) {
	if len(f.untracked) > limit {
		return f.untracked[:limit], nil
	}
	out := f.untracked
	f.untracked = nil
	return out, nil
}

func (f *fakeStore) InsertLeads(ctx context.Context, leads []repository.NewLead, pipelineID, stageID uuid.UUID) error {
	f.inserted += len(leads)
	if len(f.untracked) >= len(leads) {
		f.untracked = f.untracked[len(leads):]
	}
	return nil
}

func (f *fakeStore) LinkMissingProfiles(ctx context.Context) (int, error) {
	return f.linked, nil
}

func (f *fakeStore) ListLeadIDsPage(ctx context.Context, limit, offset int) ([]uuid.UUID, error) {
	if offset >= len(f.leads) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.leads) {
		end = len(f.leads)
	}
	return f.leads[offset:end], nil
}

func (f *fakeStore) AssignTeam(ctx context.Context, leadIDs []uuid.UUID, teamID uuid.UUID) error {
	for _, id := range leadIDs {
		f.assigned[id] = teamID
	}
	return nil
}

func (f *fakeStore) TeamStats(ctx context.Context) ([]repository.TeamStat, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

func (f *fakeStore) TeamProfileValues(ctx context.Context, teamID uuid.UUID) ([]int64, error) {
	var values []int64
	for _, t := range f.assigned {
		if t == teamID {
			values = append(values, 1000)
		}
	}
	return values, nil
}

func testService(store *fakeStore, seed int64) *Service {
	log := logger.New("development")
	return New(store, nil, log).WithRand(rand.New(rand.NewSource(seed)))
}

func teamCounts(f *fakeStore) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, team := range f.assigned {
		counts[team]++
	}
	return counts
}

func TestRun_OddLeadCountSplitsByOne(t *testing.T) {
	store := newFakeStore(2, 7)
	svc := testService(store, 1)

	summary, err := svc.Run(context.Background(), ActionDistributeOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalLeads != 7 {
		t.Fatalf("expected 7 leads, got %d", summary.TotalLeads)
	}

	counts := teamCounts(store)
	if len(counts) != 2 {
		t.Fatalf("expected both teams assigned, got %d", len(counts))
	}
	a, b := counts[store.teams[0]], counts[store.teams[1]]
	if a+b != 7 {
		t.Fatalf("expected all 7 leads assigned, got %d", a+b)
	}
	if a != 4 && a != 3 {
		t.Fatalf("expected a 4/3 split, got %d/%d", a, b)
	}
}

func TestRun_EvenLeadCountSplitsEvenly(t *testing.T) {
	store := newFakeStore(2, 10)
	svc := testService(store, 2)

	if _, err := svc.Run(context.Background(), ActionDistributeOnly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := teamCounts(store)
	if counts[store.teams[0]] != 5 || counts[store.teams[1]] != 5 {
		t.Fatalf("expected 5/5 split, got %d/%d", counts[store.teams[0]], counts[store.teams[1]])
	}
}

func TestRun_RedistributionReshuffles(t *testing.T) {
	store := newFakeStore(2, 40)
	svc := testService(store, 3)

	if _, err := svc.Run(context.Background(), ActionDistributeOnly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := make(map[uuid.UUID]uuid.UUID, len(store.assigned))
	for lead, team := range store.assigned {
		first[lead] = team
	}

	if _, err := svc.Run(context.Background(), ActionDistributeOnly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	moved := 0
	for lead, team := range store.assigned {
		if first[lead] != team {
			moved++
		}
	}
	if moved == 0 {
		t.Fatalf("expected a reshuffle to move at least one lead")
	}
}

func TestRun_RejectsUnknownAction(t *testing.T) {
	store := newFakeStore(2, 0)
	svc := testService(store, 4)

	if _, err := svc.Run(context.Background(), "redistribute_harder"); err == nil {
		t.Fatalf("expected an error for unknown action")
	}
}

func TestRun_RequiresExactlyTwoTeams(t *testing.T) {
	store := newFakeStore(3, 4)
	svc := testService(store, 5)

	if _, err := svc.Run(context.Background(), ActionDistributeOnly); err == nil {
		t.Fatalf("expected an error with three teams")
	}
}

func TestRun_ImportDrainsUntrackedProfiles(t *testing.T) {
	store := newFakeStore(2, 0)
	for i := 0; i < 450; i++ {
		store.untracked = append(store.untracked, repository.NewLead{Name: "lead"})
	}
	store.linked = 7
	svc := testService(store, 6)

	summary, err := svc.Run(context.Background(), ActionImportOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Imported != 450 {
		t.Fatalf("expected 450 imported, got %d", summary.Imported)
	}
	if summary.Linked != 7 {
		t.Fatalf("expected 7 linked, got %d", summary.Linked)
	}
	if store.inserted != 450 {
		t.Fatalf("expected 450 inserts, got %d", store.inserted)
	}
}

func TestCurrentSummary_FallsBackToClientSideSum(t *testing.T) {
	store := newFakeStore(2, 6)
	store.statsErr = context.DeadlineExceeded
	svc := testService(store, 7)

	if _, err := svc.Run(context.Background(), ActionDistributeOnly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := svc.CurrentSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.TotalLeads != 6 {
		t.Fatalf("expected 6 leads in fallback summary, got %d", summary.TotalLeads)
	}

	var total int64
	for _, slot := range summary.PerTeam {
		total += slot.TotalValue
	}
	if total != 6000 {
		t.Fatalf("expected client-side total 6000, got %d", total)
	}
}
