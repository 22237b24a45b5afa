package fleet

import (
	"context"
	"fmt"

	"simfleet/internal/logging"
	"simfleet/internal/types"

	"github.com/google/uuid"
)

// Default user-facing messages when the server sends none.
const (
	defaultSuccessMessage = "Action completed"
	defaultRejectMessage  = "Action rejected"
	transportFailMessage  = "Action failed. Check your connection and try again."
)

// SubmitAction dispatches a bulk action against the given SIM cards,
// stamped with the current actor. The dispatcher is a small state
// machine: idle -> submitting -> idle, with exactly one of error/success
// set afterwards and exactly one fleet reload on acceptance. Starting a
// new action clears prior messages. A second submit while one is in
// flight is rejected.
func (st *Store) SubmitAction(ctx context.Context, kind types.ActionKind, simIDs []int64, reason string) error {
	if len(simIDs) == 0 {
		return fmt.Errorf("no SIM cards selected")
	}
	if reason == "" {
		return fmt.Errorf("a reason is required")
	}

	actor := st.auth.Actor()
	if actor == "" {
		return fmt.Errorf("not signed in")
	}

	st.mu.Lock()
	if st.actionState == ActionSubmitting {
		st.mu.Unlock()
		return fmt.Errorf("an action is already in flight")
	}
	st.actionState = ActionSubmitting
	st.errorMessage = ""
	st.successMessage = ""
	st.mu.Unlock()
	st.notify()

	req := types.BulkActionRequest{
		SimIDs: simIDs,
		Action: kind,
		Reason: reason,
		Actor:  actor,
	}
	requestID := uuid.NewString()

	logging.Actions("[%s] submitting %s for %v by %s", requestID, kind, simIDs, actor)
	logging.RecordAction(logging.AuditActionSubmit, actor, requestID, simIDs, string(kind), reason, "", false)

	go func() {
		resp, err := st.svc.PerformBulkAction(ctx, req)

		if err != nil {
			logging.ActionsError("[%s] transport failure: %v", requestID, err)
			logging.RecordAction(logging.AuditActionError, actor, requestID, simIDs, string(kind), reason, err.Error(), false)
			st.finishAction("", transportFailMessage)
			return
		}

		if !resp.Status {
			msg := resp.FirstMessage(defaultRejectMessage)
			logging.Actions("[%s] rejected: %s", requestID, msg)
			logging.RecordAction(logging.AuditActionRejected, actor, requestID, simIDs, string(kind), reason, msg, false)
			st.finishAction("", msg)
			return
		}

		msg := resp.FirstMessage(defaultSuccessMessage)
		logging.Actions("[%s] accepted: %s", requestID, msg)
		logging.RecordAction(logging.AuditActionAccepted, actor, requestID, simIDs, string(kind), reason, msg, true)

		st.finishAction(msg, "")

		// Reload so the fleet reflects the new SIM states. Exactly one
		// reload per accepted action; rejections and transport failures
		// leave the stale view in place.
		st.LoadFleet(ctx)
	}()

	return nil
}

// finishAction returns the dispatcher to idle with one message surface set.
// A success also clears the selection.
func (st *Store) finishAction(successMsg, errorMsg string) {
	st.mu.Lock()
	st.actionState = ActionIdle
	st.successMessage = successMsg
	st.errorMessage = errorMsg
	if successMsg != "" {
		st.selectedSimID = nil
		st.expandedSimID = nil
	}
	st.mu.Unlock()
	st.notify()
}
