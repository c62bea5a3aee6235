package rules

import "testing"

func TestLoad_EmbeddedDefault(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Stages) == 0 {
		t.Fatalf("expected stage rules in the embedded table")
	}
	if set.Referral.Consultation.Points != 50 {
		t.Fatalf("expected 50 consultation points, got %d", set.Referral.Consultation.Points)
	}
	if set.Referral.Surgery.Points != 200 {
		t.Fatalf("expected 200 surgery points, got %d", set.Referral.Surgery.Points)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/rules.yaml"); err == nil {
		t.Fatalf("expected an error for a missing override file")
	}
}

func TestMatchingStages_NormalizesAccentsAndCase(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"Venda Ganha", "VENDA GANHA", "venda ganha"} {
		matched := set.MatchingStages(name)
		if len(matched) == 0 {
			t.Fatalf("expected a rule match for %q", name)
		}
		if matched[0].Outcome != OutcomeWon {
			t.Fatalf("expected won outcome for %q", name)
		}
	}

	if len(set.MatchingStages("Etapa Desconhecida")) != 0 {
		t.Fatalf("expected no match for an unknown stage")
	}
}

func TestMatchingStages_PrefixMatch(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matched := set.MatchingStages("Proposta enviada ao cliente")
	if len(matched) == 0 {
		t.Fatalf("expected the proposal prefix rule to match")
	}
	if matched[0].Temperature != "hot" {
		t.Fatalf("expected hot temperature on proposal rule, got %q", matched[0].Temperature)
	}
}

func TestIsReferralSource(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, source := range []string{"indicacao", "Indicação", "referral", "indicacao_paciente"} {
		if !set.IsReferralSource(source) {
			t.Fatalf("expected %q to be a referral source", source)
		}
	}
	if set.IsReferralSource("organico") {
		t.Fatalf("expected organico to not be a referral source")
	}
}

func TestMatchesKeywords(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !MatchesKeywords("Cirurgia Realizada com sucesso", set.Referral.Surgery.Keywords) {
		t.Fatalf("expected surgery keywords to match")
	}
	if MatchesKeywords("Consulta Agendada", set.Referral.Consultation.Keywords) {
		t.Fatalf("expected scheduled consultation to not match completion keywords")
	}
}
