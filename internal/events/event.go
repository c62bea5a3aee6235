// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"clinic_crm_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Bus       = events.Bus
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Automation Domain Events
// =============================================================================

// LeadStageChanged is published after the automation engine has applied all
// side effects for a pipeline stage transition.
type LeadStageChanged struct {
	BaseEvent
	LeadID            uuid.UUID  `json:"leadId"`
	LeadName          string     `json:"leadName"`
	TeamID            *uuid.UUID `json:"teamId,omitempty"`
	OldStageName      string     `json:"oldStageName,omitempty"`
	NewStageName      string     `json:"newStageName"`
	Actions           []string   `json:"actions"`
	TagsAdded         []string   `json:"tagsAdded"`
	NotificationsSent int        `json:"notificationsSent"`
	PerformedBy       *uuid.UUID `json:"performedBy,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "automation.lead.stage_changed" }

// =============================================================================
// RFV Domain Events
// =============================================================================

// ProfilesRecalculated is published after an RFV batch recomputation run.
type ProfilesRecalculated struct {
	BaseEvent
	UniqueCustomers int `json:"uniqueCustomers"`
	Updated         int `json:"updated"`
	Errors          int `json:"errors"`
}

func (e ProfilesRecalculated) EventName() string { return "rfv.profiles.recalculated" }

// =============================================================================
// Allocation Domain Events
// =============================================================================

// LeadsRedistributed is published after a full lead redistribution run.
type LeadsRedistributed struct {
	BaseEvent
	TotalLeads int               `json:"totalLeads"`
	PerTeam    map[uuid.UUID]int `json:"perTeam"`
}

func (e LeadsRedistributed) EventName() string { return "allocation.leads.redistributed" }
