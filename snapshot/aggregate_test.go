package snapshot

import (
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestAggregatorCartWeighting(t *testing.T) {
	tests := []struct {
		name      string
		actions   []string
		wantScore float64
		wantKept  bool
	}{
		{
			name:      "added + quantity_updated + removed sums to 3.0",
			actions:   []string{core.ActionAdded, core.ActionQuantityUpdated, core.ActionRemoved},
			wantScore: 3.0,
			wantKept:  true,
		},
		{
			name:     "removed alone is dropped",
			actions:  []string{core.ActionRemoved},
			wantKept: false,
		},
		{
			name:     "unknown action is dropped",
			actions:  []string{"viewed"},
			wantKept: false,
		},
		{
			name:      "double added",
			actions:   []string{core.ActionAdded, core.ActionAdded},
			wantScore: 4.0,
			wantKept:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for _, action := range tt.actions {
				agg.AddCart(core.CartEvent{UserID: "u", ProductID: "p", Action: action})
			}
			rows := agg.Rows()
			if !tt.wantKept {
				if len(rows) != 0 {
					t.Fatalf("expected row dropped, got %v", rows)
				}
				return
			}
			if len(rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(rows))
			}
			if rows[0].Score != tt.wantScore {
				t.Errorf("score = %v, want %v", rows[0].Score, tt.wantScore)
			}
		})
	}
}

// removed 不抵消先前的 added：历史兴趣信号单调不减。
func TestAggregatorFavoriteRemovalNeverCancels(t *testing.T) {
	tests := []struct {
		name      string
		actions   []string
		wantScore float64
		wantKept  bool
	}{
		{name: "added", actions: []string{core.ActionAdded}, wantScore: 3.0, wantKept: true},
		{name: "added then removed", actions: []string{core.ActionAdded, core.ActionRemoved}, wantScore: 3.0, wantKept: true},
		{name: "removed only", actions: []string{core.ActionRemoved}, wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			for _, action := range tt.actions {
				agg.AddFavorite(core.FavoriteEvent{UserID: "u", ProductID: "p", Action: action})
			}
			rows := agg.Rows()
			if !tt.wantKept {
				if len(rows) != 0 {
					t.Fatalf("expected row dropped, got %v", rows)
				}
				return
			}
			if len(rows) != 1 || rows[0].Score != tt.wantScore {
				t.Fatalf("rows = %v, want single row with score %v", rows, tt.wantScore)
			}
		})
	}
}

func TestAggregatorMergesStreams(t *testing.T) {
	agg := NewAggregator()
	agg.AddCart(core.CartEvent{UserID: "u", ProductID: "p", Action: core.ActionAdded})         // 2.0
	agg.AddFavorite(core.FavoriteEvent{UserID: "u", ProductID: "p", Action: core.ActionAdded}) // 3.0

	rows := agg.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 merged row, got %d", len(rows))
	}
	if rows[0].Score != 5.0 {
		t.Errorf("merged score = %v, want 5.0", rows[0].Score)
	}
}

func TestAggregatorDeterministicOrder(t *testing.T) {
	build := func() []InteractionRow {
		agg := NewAggregator()
		agg.AddCart(core.CartEvent{UserID: "u2", ProductID: "p3", Action: core.ActionAdded})
		agg.AddCart(core.CartEvent{UserID: "u1", ProductID: "p1", Action: core.ActionAdded})
		agg.AddFavorite(core.FavoriteEvent{UserID: "u1", ProductID: "p2", Action: core.ActionAdded})
		agg.AddCart(core.CartEvent{UserID: "u1", ProductID: "p1", Action: core.ActionQuantityUpdated})
		return agg.Rows()
	}

	first := build()
	second := build()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 rows, got %d / %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
	// 首现顺序：u2/p3 先于 u1/p1 先于 u1/p2
	if first[0].UserID != "u2" || first[1].ProductID != "p1" || first[2].ProductID != "p2" {
		t.Errorf("unexpected first-seen order: %v", first)
	}
}
