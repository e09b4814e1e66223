package billing

import (
	"github.com/atelierhq/atelier/internal/types"
)

// PeriodBreakdown is the derived hour accounting for one billing period.
// It is recomputed from time entries on every pass and never persisted.
type PeriodBreakdown struct {
	Period          Period   `json:"period"`
	TotalHours      float64  `json:"total_hours"`
	RegularHours    float64  `json:"regular_hours"`
	OverageHours    float64  `json:"overage_hours"`
	OverageEntryIDs []string `json:"overage_entry_ids"`
}

// ComputeBreakdown sums entry hours against the allocation ceiling.
//
// Entries are consumed in the order given and must not be re-sorted: overage
// is attributed positionally. Once the cumulative sum exceeds the allocation,
// the crossing entry and every entry after it belong to the overage set, the
// crossing entry wholly (no fractional set membership) even though only its
// hours past the ceiling count toward OverageHours.
func ComputeBreakdown(period Period, entries []types.TimeEntry, allocation float64) PeriodBreakdown {
	b := PeriodBreakdown{Period: period, OverageEntryIDs: []string{}}

	var cumulative float64
	for _, e := range entries {
		cumulative += e.Hours
		if cumulative > allocation {
			b.OverageEntryIDs = append(b.OverageEntryIDs, e.ID)
		}
	}

	b.TotalHours = cumulative
	if cumulative > allocation {
		b.RegularHours = allocation
		b.OverageHours = cumulative - allocation
	} else {
		b.RegularHours = cumulative
	}

	return b
}

// HasOverage reports whether any hours exceeded the allocation.
func (b PeriodBreakdown) HasOverage() bool {
	return b.OverageHours > 0
}
