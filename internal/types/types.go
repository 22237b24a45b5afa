// Package types provides shared type definitions used across simfleet packages.
// This package exists to break import cycles between api, auth, and fleet.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// SIM CARD TYPES
// =============================================================================

// SIMStatus is the lifecycle state of a SIM card as reported by the backend.
type SIMStatus string

const (
	StatusActive     SIMStatus = "active"
	StatusSuspended  SIMStatus = "suspended"
	StatusBlocked    SIMStatus = "blocked"
	StatusTerminated SIMStatus = "terminated"
)

// Plan describes the tariff plan attached to a SIM card.
type Plan struct {
	PlanName string `json:"planName"`
}

// SIMCard is an immutable snapshot of one SIM card from the last fleet fetch.
// Unknown status values decode as-is; the client never rejects a fleet row
// because the backend grew a new status.
type SIMCard struct {
	SimID      int64     `json:"simId"`
	Status     SIMStatus `json:"status"`
	City       string    `json:"city"`
	DeviceType string    `json:"deviceType"`
	Plan       *Plan     `json:"plan,omitempty"`
}

// PlanName returns the plan name or "" when no plan is attached.
func (s SIMCard) PlanName() string {
	if s.Plan == nil {
		return ""
	}
	return s.Plan.PlanName
}

// IDString returns the stringified id used for substring search.
func (s SIMCard) IDString() string {
	return strconv.FormatInt(s.SimID, 10)
}

// =============================================================================
// RISK ASSESSMENT TYPES
// =============================================================================

// RiskLevel classifies a SIM card's risk. Absence of an assessment means
// "not yet assessed", never "low".
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the asynchronously computed classification for one SIM card.
type RiskAssessment struct {
	SimID        int64     `json:"simId"`
	RiskLevel    RiskLevel `json:"riskLevel"`
	AnomalyCount int       `json:"anomalyCount"`
}

// =============================================================================
// FILTER CRITERIA
// =============================================================================

// FilterCriteria holds the active fleet filter inputs. Zero values mean
// "no constraint" for every field.
type FilterCriteria struct {
	SearchText string
	Status     SIMStatus // "" = any
	City       string    // "" = any
	RiskLevel  RiskLevel // "" = any
}

// IsEmpty reports whether no criterion is active.
func (c FilterCriteria) IsEmpty() bool {
	return c.SearchText == "" && c.Status == "" && c.City == "" && c.RiskLevel == ""
}

// Matches applies the conjunction of all active criteria to one card.
// The risk predicate needs the current assessment (nil = not yet assessed):
// a card without an assessment never matches an active risk filter.
func (c FilterCriteria) Matches(card SIMCard, risk *RiskAssessment) bool {
	if c.SearchText != "" {
		needle := strings.ToLower(c.SearchText)
		if !strings.Contains(strings.ToLower(card.IDString()), needle) &&
			!strings.Contains(strings.ToLower(card.DeviceType), needle) &&
			!strings.Contains(strings.ToLower(card.City), needle) &&
			!strings.Contains(strings.ToLower(card.PlanName()), needle) {
			return false
		}
	}
	if c.Status != "" && card.Status != c.Status {
		return false
	}
	if c.City != "" && card.City != c.City {
		return false
	}
	if c.RiskLevel != "" {
		if risk == nil || risk.RiskLevel != c.RiskLevel {
			return false
		}
	}
	return true
}

// =============================================================================
// BULK ACTION TYPES
// =============================================================================

// ActionKind enumerates the bulk actions an operator can dispatch.
type ActionKind string

const (
	ActionSuspend      ActionKind = "suspend"
	ActionActivate     ActionKind = "activate"
	ActionTerminate    ActionKind = "terminate"
	ActionResetProfile ActionKind = "resetProfile"
)

// AllActionKinds lists the dispatchable actions in display order.
func AllActionKinds() []ActionKind {
	return []ActionKind{ActionSuspend, ActionActivate, ActionTerminate, ActionResetProfile}
}

// ParseActionKind maps a CLI argument to an ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	for _, k := range AllActionKinds() {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown action kind %q (want one of suspend, activate, terminate, resetProfile)", s)
}

// BulkActionRequest is the payload sent to the bulk-action endpoint.
// Actor is stamped from the session context, never user-supplied.
type BulkActionRequest struct {
	SimIDs []int64    `json:"simIds"`
	Action ActionKind `json:"action"`
	Reason string     `json:"reason"`
	Actor  string     `json:"actor"`
}

// BulkActionResponse is the well-formed reply from the bulk-action endpoint.
// Status false means the action was understood and rejected; the messages
// carry the server's explanation either way.
type BulkActionResponse struct {
	Status   bool     `json:"status"`
	Messages []string `json:"messages"`
}

// FirstMessage returns the first server message or the given fallback.
func (r BulkActionResponse) FirstMessage(fallback string) string {
	if len(r.Messages) > 0 && r.Messages[0] != "" {
		return r.Messages[0]
	}
	return fallback
}
