package recall_test

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/store"
)

func TestPopularRanking(t *testing.T) {
	st := store.NewMemoryRecordStore()
	st.SetProducts([]core.Product{
		// pop = 0.7×buys + 0.3×ratings_count，计数字段带本地化格式
		{ID: "p1", Buys: "10", RatingsCount: "1,000"}, // 7 + 300 = 307
		{ID: "p2", Buys: "500", RatingsCount: "None"}, // 350 + 0 = 350
		{ID: "p3", Buys: "", RatingsCount: ""},        // 0
	})
	snap := buildSnapshot(t, st)
	src := &recall.Popular{Snapshots: &fixedSnapshots{snap: snap}}

	items, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "anyone", TopK: 10})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d candidates, want 3", len(items))
	}
	if items[0].ID != "p2" || items[1].ID != "p1" || items[2].ID != "p3" {
		t.Fatalf("order = [%s, %s, %s], want [p2, p1, p3]",
			items[0].ID, items[1].ID, items[2].ID)
	}
	// 所有 fallback 候选带统一的低占位分，与真实 CF 分明确区分
	for _, it := range items {
		if it.Score != 0.1 {
			t.Errorf("placeholder score for %s = %v, want 0.1", it.ID, it.Score)
		}
		if label, ok := it.GetLabel("recall_source"); !ok || label.Value != "popular" {
			t.Errorf("recall_source label for %s = %v, want popular", it.ID, label)
		}
	}
}

func TestPopularTieBreakByID(t *testing.T) {
	st := store.NewMemoryRecordStore()
	st.SetProducts([]core.Product{
		{ID: "pb", Buys: "10"},
		{ID: "pa", Buys: "10"},
	})
	snap := buildSnapshot(t, st)
	src := &recall.Popular{Snapshots: &fixedSnapshots{snap: snap}}

	items, err := src.Recall(context.Background(), &core.RecommendContext{TopK: 10})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 2 || items[0].ID != "pa" {
		t.Fatalf("tie should break by ID ascending, got %v", items)
	}
}

func TestPopularEmptyCatalog(t *testing.T) {
	snap := buildSnapshot(t, store.NewMemoryRecordStore())
	src := &recall.Popular{Snapshots: &fixedSnapshots{snap: snap}}

	items, err := src.Recall(context.Background(), &core.RecommendContext{TopK: 10})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("empty catalog should yield no candidates, got %v", items)
	}
}
