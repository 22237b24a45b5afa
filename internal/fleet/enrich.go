package fleet

import (
	"context"

	"simfleet/internal/logging"
	"simfleet/internal/types"

	"golang.org/x/sync/semaphore"
)

// enrichAll issues one independent risk-assessment fetch per card.
// Best-effort and fire-and-forget: a failed card is logged and never
// blocks the others, nothing is retried, and nothing awaits the batch.
// MaxConcurrentRisk > 0 bounds parallelism with a weighted semaphore;
// 0 runs one goroutine per card with no cap.
func (st *Store) enrichAll(ctx context.Context, cards []types.SIMCard) {
	var sem *semaphore.Weighted
	if st.maxConcurrentRisk > 0 {
		sem = semaphore.NewWeighted(int64(st.maxConcurrentRisk))
	}

	for _, card := range cards {
		simID := card.SimID
		go func() {
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)
			}

			risk, err := st.svc.GetRiskAssessment(ctx, simID)
			if err != nil {
				// Log-only surface: risk failures are never shown to the user.
				logging.RiskWarn("assessment fetch failed for sim %d: %v", simID, err)
				return
			}
			if risk == nil {
				logging.Risk("no assessment available for sim %d", simID)
				return
			}
			st.applyRisk(simID, *risk)
		}()
	}
}

// applyRisk stores one assessment and recomputes the filtered view
// immediately (not debounced - an active risk filter must pick up the
// arrival without waiting for input). Late responses for ids that left
// the fleet are dropped.
func (st *Store) applyRisk(simID int64, risk types.RiskAssessment) {
	st.mu.Lock()
	if _, ok := st.simIndex[simID]; !ok {
		st.mu.Unlock()
		logging.Risk("dropping stale assessment for sim %d (no longer in fleet)", simID)
		return
	}
	risk.SimID = simID
	st.risk[simID] = risk
	st.recomputeLocked()
	st.mu.Unlock()

	st.notify()
}
