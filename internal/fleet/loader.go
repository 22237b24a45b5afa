package fleet

import (
	"context"

	"simfleet/internal/logging"
)

// LoadFleet fetches the fleet asynchronously. Safe to re-invoke (manual
// refresh, post-action reload); overlapping loads are not serialized and
// the last completion wins, which matches the backend's snapshot
// semantics. Returns immediately; observers see isLoading flip and then
// either the new fleet or a load error.
func (st *Store) LoadFleet(ctx context.Context) {
	st.mu.Lock()
	st.isLoading = true
	st.loadError = ""
	st.mu.Unlock()
	st.notify()

	go func() {
		timer := logging.StartTimer(logging.CategoryFleet, "fleet load")
		cards, err := st.svc.GetFleet(ctx)
		timer.Stop()

		if err != nil {
			logging.FleetError("fleet load failed: %v", err)
			st.mu.Lock()
			st.isLoading = false
			st.loadError = "Could not load the fleet. Check your connection and try again."
			st.mu.Unlock()
			st.notify()
			return
		}

		logging.Fleet("loaded %d SIM cards", len(cards))

		st.mu.Lock()
		st.simCards = cards
		st.simIndex = make(map[int64]int, len(cards))
		for i, c := range cards {
			st.simIndex[c.SimID] = i
		}
		// Drop assessments for cards no longer in the fleet.
		for id := range st.risk {
			if _, ok := st.simIndex[id]; !ok {
				delete(st.risk, id)
			}
		}
		st.isLoading = false
		st.recomputeLocked()
		st.mu.Unlock()
		st.notify()

		// Kick off best-effort risk enrichment for the fresh snapshot.
		// Not cancelled by subsequent reloads; stale completions for ids
		// gone from the fleet are dropped in applyRisk.
		st.enrichAll(ctx, cards)
	}()
}
