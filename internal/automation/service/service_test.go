package service

import (
	"context"
	"testing"

	"clinic_crm_backend/internal/automation/repository"
	"clinic_crm_backend/internal/automation/rules"
	"clinic_crm_backend/platform/apperr"
	"clinic_crm_backend/platform/events"
	"clinic_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads   map[uuid.UUID]repository.Lead
	stages  map[uuid.UUID]repository.Stage
	history []repository.HistoryEntry
}

func (f *fakeStore) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeStore) GetStage(ctx context.Context, id uuid.UUID) (repository.Stage, error) {
	stage, ok := f.stages[id]
	if !ok {
		return repository.Stage{}, apperr.NotFound("stage not found")
	}
	return stage, nil
}

func (f *fakeStore) UpdateLead(ctx context.Context, id uuid.UUID, patch repository.LeadPatch) error {
	lead := f.leads[id]
	if patch.Tags != nil {
		lead.Tags = patch.Tags
	}
	if patch.Temperature != nil {
		lead.Temperature = *patch.Temperature
	}
	if patch.WonAt != nil {
		lead.WonAt = patch.WonAt
	}
	if patch.LostAt != nil {
		lead.LostAt = patch.LostAt
	}
	if patch.StageID != nil {
		lead.StageID = *patch.StageID
	}
	f.leads[id] = lead
	return nil
}

func (f *fakeStore) InsertHistory(ctx context.Context, e repository.HistoryEntry) error {
	f.history = append(f.history, e)
	return nil
}

func (f *fakeStore) ListHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.HistoryEntry, error) {
	return f.history, nil
}

// fakeLedger reproduces the (team, reason) unique constraint.
type fakeLedger struct {
	cards map[string]int
}

func (f *fakeLedger) Award(ctx context.Context, teamID uuid.UUID, points int, reason, awardedBy string) (bool, error) {
	key := teamID.String() + "|" + reason
	if _, exists := f.cards[key]; exists {
		return false, nil
	}
	f.cards[key] = points
	return true, nil
}

type fakeCapabilities struct {
	qualifyCalls   int
	awardCalls     int
	awards         []AwardParams
	recommendCalls int
}

func (f *fakeCapabilities) Qualify(ctx context.Context, leadID uuid.UUID) error {
	f.qualifyCalls++
	return nil
}

func (f *fakeCapabilities) AwardPoints(ctx context.Context, p AwardParams) error {
	f.awardCalls++
	f.awards = append(f.awards, p)
	return nil
}

func (f *fakeCapabilities) RecommendProcedures(ctx context.Context, leadID uuid.UUID) error {
	f.recommendCalls++
	return nil
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message, category string, metadata map[string]any) error {
	f.sent = append(f.sent, title)
	return nil
}

type fixture struct {
	svc    *Service
	store  *fakeStore
	ledger *fakeLedger
	caps   *fakeCapabilities
	notif  *fakeNotifier
	lead   repository.Lead
	stages map[string]uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	set, err := rules.Load("")
	if err != nil {
		t.Fatalf("failed to load rule table: %v", err)
	}

	teamID := uuid.New()
	ownerID := uuid.New()
	source := "indicacao"
	lead := repository.Lead{
		ID:          uuid.New(),
		Name:        "Pedro Alves",
		TeamID:      &teamID,
		OwnerID:     &ownerID,
		Source:      &source,
		Tags:        []string{},
		Temperature: "cold",
	}

	store := &fakeStore{
		leads:  map[uuid.UUID]repository.Lead{lead.ID: lead},
		stages: map[uuid.UUID]repository.Stage{},
	}
	stages := map[string]uuid.UUID{}
	for _, name := range []string{"Novo Lead", "Consulta Realizada", "Cirurgia Realizada", "Venda Ganha", "Venda Perdida"} {
		id := uuid.New()
		stages[name] = id
		store.stages[id] = repository.Stage{ID: id, Name: name, PipelineID: uuid.New(), PipelineName: "Funil Comercial"}
	}

	ledger := &fakeLedger{cards: map[string]int{}}
	caps := &fakeCapabilities{}
	notif := &fakeNotifier{}
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)

	svc := New(store, set, ledger, caps, caps, caps, notif, bus, log)

	return &fixture{svc: svc, store: store, ledger: ledger, caps: caps, notif: notif, lead: lead, stages: stages}
}

func TestHandleTransition_WonStage(t *testing.T) {
	fx := newFixture(t)

	oldID := fx.stages["Novo Lead"]
	res, err := fx.svc.HandleTransition(context.Background(), TransitionInput{
		LeadID:     fx.lead.ID,
		OldStageID: &oldID,
		NewStageID: fx.stages["Venda Ganha"],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.OldStageName != "Novo Lead" || res.NewStageName != "Venda Ganha" {
		t.Fatalf("unexpected stage names: %q -> %q", res.OldStageName, res.NewStageName)
	}

	updated := fx.store.leads[fx.lead.ID]
	if updated.WonAt == nil {
		t.Fatalf("expected won timestamp to be set")
	}
	if !hasTag(updated.Tags, "resultado:ganho") {
		t.Fatalf("expected resultado:ganho tag, got %v", updated.Tags)
	}
	if updated.Temperature != "hot" {
		t.Fatalf("expected hot temperature, got %q", updated.Temperature)
	}
	if fx.caps.awardCalls != 1 {
		t.Fatalf("expected exactly one award invocation, got %d", fx.caps.awardCalls)
	}
	if fx.caps.awards[0].Reason != "Venda ganha: Pedro Alves" {
		t.Fatalf("unexpected award reason %q", fx.caps.awards[0].Reason)
	}
	if res.NotificationsSent != 1 || len(fx.notif.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(fx.notif.sent))
	}
	if len(fx.store.history) != 1 {
		t.Fatalf("expected one history entry, got %d", len(fx.store.history))
	}
}

func TestHandleTransition_ReferralAwardGuard(t *testing.T) {
	fx := newFixture(t)

	in := TransitionInput{LeadID: fx.lead.ID, NewStageID: fx.stages["Cirurgia Realizada"]}
	if _, err := fx.svc.HandleTransition(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fx.svc.HandleTransition(context.Background(), in); err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}

	if len(fx.ledger.cards) != 1 {
		t.Fatalf("expected a single referral card, got %d", len(fx.ledger.cards))
	}
	for key, points := range fx.ledger.cards {
		if points != 200 {
			t.Fatalf("expected 200 surgery points, got %d for %s", points, key)
		}
	}
	if fx.caps.recommendCalls != 2 {
		t.Fatalf("expected recommendation on every transition, got %d", fx.caps.recommendCalls)
	}
}

func TestHandleTransition_TagUnionIsIdempotent(t *testing.T) {
	fx := newFixture(t)

	in := TransitionInput{LeadID: fx.lead.ID, NewStageID: fx.stages["Consulta Realizada"]}
	first, err := fx.svc.HandleTransition(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.TagsAdded) == 0 {
		t.Fatalf("expected tags on the first transition")
	}

	tagsAfterFirst := append([]string(nil), fx.store.leads[fx.lead.ID].Tags...)

	second, err := fx.svc.HandleTransition(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if len(second.TagsAdded) != 0 {
		t.Fatalf("expected no new tags on re-processing, got %v", second.TagsAdded)
	}
	if got := fx.store.leads[fx.lead.ID].Tags; len(got) != len(tagsAfterFirst) {
		t.Fatalf("expected tag set unchanged, got %v", got)
	}
}

func TestHandleTransition_NonReferralGetsNoReferralPoints(t *testing.T) {
	fx := newFixture(t)

	lead := fx.store.leads[fx.lead.ID]
	organic := "organico"
	lead.Source = &organic
	fx.store.leads[fx.lead.ID] = lead

	in := TransitionInput{LeadID: fx.lead.ID, NewStageID: fx.stages["Consulta Realizada"]}
	if _, err := fx.svc.HandleTransition(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fx.ledger.cards) != 0 {
		t.Fatalf("expected no referral cards for organic source, got %d", len(fx.ledger.cards))
	}
	if fx.caps.qualifyCalls != 1 {
		t.Fatalf("expected qualification on consultation stage, got %d", fx.caps.qualifyCalls)
	}
}

func TestHandleTransition_UnknownLeadFailsFast(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.HandleTransition(context.Background(), TransitionInput{
		LeadID:     uuid.New(),
		NewStageID: fx.stages["Novo Lead"],
	})
	if err == nil {
		t.Fatalf("expected an error for unknown lead")
	}
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not-found kind, got %v", apperr.GetKind(err))
	}
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}
