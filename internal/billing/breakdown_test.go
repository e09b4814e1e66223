package billing

import (
	"math"
	"reflect"
	"testing"

	"github.com/atelierhq/atelier/internal/types"
)

func entries(hours ...float64) []types.TimeEntry {
	out := make([]types.TimeEntry, len(hours))
	for i, h := range hours {
		out[i] = types.TimeEntry{ID: string(rune('a' + i)), Hours: h}
	}
	return out
}

func TestComputeBreakdown_OverageAttribution(t *testing.T) {
	// 20h allocation, three 8h entries: the third entry crosses the
	// ceiling at cumulative 24h and belongs wholly to the overage set,
	// but only 4 of its hours bill as overage.
	b := ComputeBreakdown(Period{}, entries(8, 8, 8), 20)

	if b.TotalHours != 24 {
		t.Errorf("expected total 24, got %v", b.TotalHours)
	}
	if b.RegularHours != 20 {
		t.Errorf("expected regular 20, got %v", b.RegularHours)
	}
	if b.OverageHours != 4 {
		t.Errorf("expected overage 4, got %v", b.OverageHours)
	}
	if !reflect.DeepEqual(b.OverageEntryIDs, []string{"c"}) {
		t.Errorf("expected overage set [c], got %v", b.OverageEntryIDs)
	}
}

func TestComputeBreakdown_ExactAllocationNoOverage(t *testing.T) {
	// Landing exactly on the allocation is not overage.
	b := ComputeBreakdown(Period{}, entries(4, 6), 10)

	if b.OverageHours != 0 {
		t.Errorf("expected zero overage, got %v", b.OverageHours)
	}
	if len(b.OverageEntryIDs) != 0 {
		t.Errorf("expected empty overage set, got %v", b.OverageEntryIDs)
	}
	if b.RegularHours != 10 {
		t.Errorf("expected regular 10, got %v", b.RegularHours)
	}
}

func TestComputeBreakdown_FractionalOverage(t *testing.T) {
	b := ComputeBreakdown(Period{}, entries(4, 6.5), 10)

	if math.Abs(b.OverageHours-0.5) > 1e-9 {
		t.Errorf("expected overage 0.5, got %v", b.OverageHours)
	}
	if !reflect.DeepEqual(b.OverageEntryIDs, []string{"b"}) {
		t.Errorf("expected overage set [b], got %v", b.OverageEntryIDs)
	}
}

func TestComputeBreakdown_AllEntriesOverage(t *testing.T) {
	// Zero allocation: every entry is overage.
	b := ComputeBreakdown(Period{}, entries(1, 2), 0)

	if b.RegularHours != 0 {
		t.Errorf("expected regular 0, got %v", b.RegularHours)
	}
	if b.OverageHours != 3 {
		t.Errorf("expected overage 3, got %v", b.OverageHours)
	}
	if !reflect.DeepEqual(b.OverageEntryIDs, []string{"a", "b"}) {
		t.Errorf("expected overage set [a b], got %v", b.OverageEntryIDs)
	}
}

func TestComputeBreakdown_NoEntries(t *testing.T) {
	b := ComputeBreakdown(Period{}, nil, 10)

	if b.TotalHours != 0 || b.HasOverage() {
		t.Errorf("expected empty breakdown, got %+v", b)
	}
}

func TestComputeBreakdown_AttributionIsPositional(t *testing.T) {
	// The same hours in a different order shift which entries land in the
	// overage set; totals are unaffected.
	forward := ComputeBreakdown(Period{}, []types.TimeEntry{
		{ID: "small", Hours: 2},
		{ID: "big", Hours: 9},
	}, 10)
	reversed := ComputeBreakdown(Period{}, []types.TimeEntry{
		{ID: "big", Hours: 9},
		{ID: "small", Hours: 2},
	}, 10)

	if forward.OverageHours != reversed.OverageHours {
		t.Errorf("overage hours diverged: %v vs %v", forward.OverageHours, reversed.OverageHours)
	}
	if !reflect.DeepEqual(forward.OverageEntryIDs, []string{"big"}) {
		t.Errorf("expected [big], got %v", forward.OverageEntryIDs)
	}
	if !reflect.DeepEqual(reversed.OverageEntryIDs, []string{"small"}) {
		t.Errorf("expected [small], got %v", reversed.OverageEntryIDs)
	}
}
