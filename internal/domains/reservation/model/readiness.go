package model

import "github.com/google/uuid"

// IsReady is the source readiness predicate. It is total: every reservation
// maps to true or false, and a blocked reservation is never ready.
func IsReady(r Reservation) bool {
	if r.IsBlocked {
		return false
	}

	switch r.Source() {
	case SourceWarehouse:
		if !r.IsPicked {
			return false
		}
		if r.AIConfirmed || r.ProcurementResolved {
			return true
		}
		switch r.Status {
		case StatusAIConfirmed, StatusReady, StatusProcurementResolved:
			return true
		}
		return false

	case SourceSupplier:
		switch r.Status {
		case StatusSupplierConfirmed, StatusReady:
			return true
		}
		// Older rows were marked ready through the resolution flag only.
		return r.ProcurementResolved

	case SourceUnknown:
		return false
	}
	return false
}

// Live filters out retired and zero-quantity reservations.
func Live(all []Reservation) []Reservation {
	live := make([]Reservation, 0, len(all))
	for _, r := range all {
		if r.IsLive() {
			live = append(live, r)
		}
	}
	return live
}

// Lineage walks the replacement arena from id back to the original
// reservation and returns the chain oldest first. Cycles are cut.
func Lineage(all []Reservation, id uuid.UUID) []Reservation {
	byID := make(map[uuid.UUID]Reservation, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}

	var chain []Reservation
	seen := make(map[uuid.UUID]bool)
	cur, ok := byID[id]
	for ok && !seen[cur.ID] {
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.ReplacesID == nil {
			break
		}
		cur, ok = byID[*cur.ReplacesID]
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
