// Package rules defines the stage automation rule table. The table is
// resolved once at startup from YAML (an embedded default, overridable
// by file) into typed StageRule values, so a typo in a stage name fails
// at boot instead of silently skipping rules at event time.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"clinic_crm_backend/platform/identity"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Capability names a downstream invocation a rule may trigger. Each is
// invoked at most once per transition.
type Capability string

const (
	CapabilityNone      Capability = ""
	CapabilityQualify   Capability = "qualify"
	CapabilityAward     Capability = "award_points"
	CapabilityRecommend Capability = "recommend_procedures"
)

// Outcome marks a terminal stage result.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWon  Outcome = "won"
	OutcomeLost Outcome = "lost"
)

// Notification is the template of a rule's notification side effect.
// The message is a fmt template receiving the lead name.
type Notification struct {
	Title    string `yaml:"title"`
	Message  string `yaml:"message"`
	Category string `yaml:"category"`
}

// StageRule is one entry of the ordered side-effect table. Points and
// Reason apply only to the award_points capability: Reason is a fmt
// template receiving the lead name, used as the ledger deduplication key.
type StageRule struct {
	Match        []string      `yaml:"match"`
	Tags         []string      `yaml:"tags"`
	Temperature  string        `yaml:"temperature"`
	Outcome      Outcome       `yaml:"outcome"`
	Capability   Capability    `yaml:"capability"`
	Points       int           `yaml:"points"`
	Reason       string        `yaml:"reason"`
	Notification *Notification `yaml:"notification"`

	exact    map[string]struct{}
	prefixes []string
}

// Referral holds the referral-scoring side branch configuration.
type Referral struct {
	Sources      []string      `yaml:"sources"`
	Consultation ReferralAward `yaml:"consultation"`
	Surgery      ReferralAward `yaml:"surgery"`

	sources map[string]struct{}
}

// ReferralAward is one referral milestone: keywords recognized in the
// new stage name, the fixed point value, and the ledger reason template
// (a fmt template receiving the lead name, used as deduplication key).
type ReferralAward struct {
	Keywords []string `yaml:"keywords"`
	Points   int      `yaml:"points"`
	Reason   string   `yaml:"reason"`
}

// Set is the resolved rule table.
type Set struct {
	Referral Referral    `yaml:"referral"`
	Stages   []StageRule `yaml:"stages"`
}

// Load resolves the rule table. An empty path loads the embedded default.
func Load(path string) (*Set, error) {
	raw := defaultRules
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read stage rules: %w", err)
		}
		raw = data
	}

	var set Set
	if err := yaml.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("parse stage rules: %w", err)
	}

	if err := set.resolve(); err != nil {
		return nil, err
	}

	return &set, nil
}

func (s *Set) resolve() error {
	if len(s.Stages) == 0 {
		return fmt.Errorf("stage rule table is empty")
	}

	s.Referral.sources = make(map[string]struct{}, len(s.Referral.Sources))
	for _, src := range s.Referral.Sources {
		s.Referral.sources[identity.NormalizeKey(src)] = struct{}{}
	}

	for i := range s.Stages {
		rule := &s.Stages[i]
		if len(rule.Match) == 0 {
			return fmt.Errorf("stage rule %d has no match entries", i)
		}

		rule.exact = make(map[string]struct{})
		for _, m := range rule.Match {
			if rest, ok := strings.CutPrefix(m, "prefix:"); ok {
				rule.prefixes = append(rule.prefixes, identity.NormalizeKey(rest))
				continue
			}
			rule.exact[identity.NormalizeKey(m)] = struct{}{}
		}

		switch rule.Capability {
		case CapabilityNone, CapabilityQualify, CapabilityAward, CapabilityRecommend:
		default:
			return fmt.Errorf("stage rule %d has unknown capability %q", i, rule.Capability)
		}
		switch rule.Outcome {
		case OutcomeNone, OutcomeWon, OutcomeLost:
		default:
			return fmt.Errorf("stage rule %d has unknown outcome %q", i, rule.Outcome)
		}

		if rule.Capability == CapabilityAward && (rule.Points <= 0 || rule.Reason == "") {
			return fmt.Errorf("stage rule %d awards points but is missing points or reason", i)
		}
	}

	return nil
}

// Matches reports whether the rule recognizes the stage name.
func (r *StageRule) Matches(stageName string) bool {
	key := identity.NormalizeKey(stageName)
	if _, ok := r.exact[key]; ok {
		return true
	}
	for _, p := range r.prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// MatchingStages returns every rule matching the stage name, in table order.
func (s *Set) MatchingStages(stageName string) []*StageRule {
	matched := make([]*StageRule, 0, 2)
	for i := range s.Stages {
		if s.Stages[i].Matches(stageName) {
			matched = append(matched, &s.Stages[i])
		}
	}
	return matched
}

// IsReferralSource reports whether the lead source marks a referral.
func (s *Set) IsReferralSource(source string) bool {
	_, ok := s.Referral.sources[identity.NormalizeKey(source)]
	return ok
}

// MatchesKeywords reports whether any keyword occurs in the stage name.
func MatchesKeywords(stageName string, keywords []string) bool {
	key := identity.NormalizeKey(stageName)
	for _, kw := range keywords {
		if strings.Contains(key, identity.NormalizeKey(kw)) {
			return true
		}
	}
	return false
}
