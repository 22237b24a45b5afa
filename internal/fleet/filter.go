package fleet

import (
	"simfleet/internal/logging"
	"simfleet/internal/types"
)

// Filter input setters. The criterion itself updates immediately (the UI
// echoes what the operator typed) but the recompute is debounced so a fast
// typist does not trigger a recompute per keystroke. Data changes go
// through recomputeNow instead and bypass the debouncer.

// SetSearchText updates the free-text criterion.
func (st *Store) SetSearchText(text string) {
	st.mu.Lock()
	if st.criteria.SearchText == text {
		st.mu.Unlock()
		return
	}
	st.criteria.SearchText = text
	st.mu.Unlock()

	st.notify()
	st.debncr.Debounce(st.recomputeNow)
}

// SetStatusFilter updates the status criterion ("" = any).
func (st *Store) SetStatusFilter(status types.SIMStatus) {
	st.mu.Lock()
	if st.criteria.Status == status {
		st.mu.Unlock()
		return
	}
	st.criteria.Status = status
	st.mu.Unlock()

	st.notify()
	st.debncr.Debounce(st.recomputeNow)
}

// SetCityFilter updates the city criterion ("" = any).
func (st *Store) SetCityFilter(city string) {
	st.mu.Lock()
	if st.criteria.City == city {
		st.mu.Unlock()
		return
	}
	st.criteria.City = city
	st.mu.Unlock()

	st.notify()
	st.debncr.Debounce(st.recomputeNow)
}

// SetRiskFilter updates the risk-level criterion ("" = any).
func (st *Store) SetRiskFilter(level types.RiskLevel) {
	st.mu.Lock()
	if st.criteria.RiskLevel == level {
		st.mu.Unlock()
		return
	}
	st.criteria.RiskLevel = level
	st.mu.Unlock()

	st.notify()
	st.debncr.Debounce(st.recomputeNow)
}

// ClearFilters resets all criteria and recomputes immediately.
func (st *Store) ClearFilters() {
	st.debncr.Cancel()
	st.mu.Lock()
	st.criteria = types.FilterCriteria{}
	st.recomputeLocked()
	st.mu.Unlock()

	st.notify()
}

// recomputeNow recomputes the filtered view immediately. Used as the
// debounce target and directly for data-driven changes.
func (st *Store) recomputeNow() {
	st.mu.Lock()
	st.recomputeLocked()
	st.mu.Unlock()

	st.notify()
}

// recomputeLocked rebuilds filtered from simCards, order-preserving, and
// clears selection when the selected card fell out of the view.
// Caller must hold st.mu.
func (st *Store) recomputeLocked() {
	criteria := st.criteria

	if criteria.IsEmpty() {
		st.filtered = append(st.filtered[:0:0], st.simCards...)
	} else {
		filtered := make([]types.SIMCard, 0, len(st.simCards))
		for _, card := range st.simCards {
			var risk *types.RiskAssessment
			if r, ok := st.risk[card.SimID]; ok {
				risk = &r
			}
			if criteria.Matches(card, risk) {
				filtered = append(filtered, card)
			}
		}
		st.filtered = filtered
	}

	if st.selectedSimID != nil {
		stillVisible := false
		for _, c := range st.filtered {
			if c.SimID == *st.selectedSimID {
				stillVisible = true
				break
			}
		}
		if !stillVisible {
			logging.FleetDebug("selection %d filtered out, clearing", *st.selectedSimID)
			st.selectedSimID = nil
			st.expandedSimID = nil
		}
	}
}

// CityOptions returns the distinct cities in the current fleet, in first-seen
// order, for the city filter selector.
func (st *Store) CityOptions() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	seen := make(map[string]bool)
	cities := make([]string, 0)
	for _, c := range st.simCards {
		if c.City != "" && !seen[c.City] {
			seen[c.City] = true
			cities = append(cities, c.City)
		}
	}
	return cities
}
