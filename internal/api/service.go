// Package api provides the REST client for the fleet-management backend.
// The Service interface is what the view-model consumes; the concrete
// Client is constructed once in main and injected, never held as a
// package singleton.
package api

import (
	"context"

	"simfleet/internal/types"
)

// Session is the authenticated session returned by Login.
type Session struct {
	Token       string `json:"token"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Service is the backend contract consumed by the fleet store.
type Service interface {
	// Login authenticates and returns a session. The client keeps the
	// token for subsequent calls.
	Login(ctx context.Context, username, password string) (*Session, error)

	// GetFleet fetches the full SIM card list visible to the current user.
	GetFleet(ctx context.Context) ([]types.SIMCard, error)

	// GetRiskAssessment fetches the assessment for one SIM card.
	// Returns (nil, nil) when the backend has no assessment yet.
	GetRiskAssessment(ctx context.Context, simID int64) (*types.RiskAssessment, error)

	// PerformBulkAction submits an operator action against one or more
	// SIM cards. A non-nil response with Status=false is a logical
	// rejection, not a transport error.
	PerformBulkAction(ctx context.Context, req types.BulkActionRequest) (*types.BulkActionResponse, error)
}
