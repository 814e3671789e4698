package snapshot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/snapshot"
	"github.com/rushteam/shoprec/store"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore() *store.MemoryRecordStore {
	st := store.NewMemoryRecordStore()
	st.SetProducts([]core.Product{
		{ID: "p1", Name: "Keyboard"},
		{ID: "p2", Name: "Mouse"},
		{ID: "p3", Name: "Monitor"},
	})
	st.SetCartEvents([]core.CartEvent{
		{UserID: "u1", ProductID: "p1", Action: core.ActionAdded},
		{UserID: "u1", ProductID: "p2", Action: core.ActionAdded},
		{UserID: "u2", ProductID: "p1", Action: core.ActionAdded},
		{UserID: "u2", ProductID: "p2", Action: core.ActionAdded},
	})
	return st
}

func TestBuilderIndexesAndCatalogFilter(t *testing.T) {
	st := testStore()
	// 目录之外的商品交互应被剔除
	st.SetFavoriteEvents([]core.FavoriteEvent{
		{UserID: "u1", ProductID: "ghost", Action: core.ActionAdded},
	})

	b := &snapshot.Builder{Store: st, Logger: quietLogger()}
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if got := snap.NumProducts(); got != 3 {
		t.Errorf("NumProducts = %d, want 3", got)
	}
	if got := snap.NumUsers(); got != 2 {
		t.Errorf("NumUsers = %d, want 2", got)
	}
	if got := snap.NumInteractions(); got != 4 {
		t.Errorf("NumInteractions = %d, want 4 (ghost row dropped)", got)
	}
	if row := snap.UserRow("u1"); len(row) != 2 {
		t.Errorf("UserRow(u1) = %v, want 2 entries", row)
	}
	if row := snap.UserRow("unknown"); row != nil {
		t.Errorf("UserRow(unknown) = %v, want nil", row)
	}
	if snap.Partial() {
		t.Error("Partial = true, want false")
	}
}

func TestBuilderSimilarity(t *testing.T) {
	b := &snapshot.Builder{Store: testStore(), Logger: quietLogger()}
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !snap.HasSimilarity() {
		t.Fatal("HasSimilarity = false, want true")
	}

	// u1 与 u2 对 p1/p2 的行为完全一致：两者应强相似
	neighbors := snap.SimilarTo("p1")
	var self, other bool
	for _, n := range neighbors {
		switch n.ProductID {
		case "p1":
			self = true
			if n.Sim < 0.999 || n.Sim > 1.001 {
				t.Errorf("self similarity = %v, want 1.0", n.Sim)
			}
		case "p2":
			other = true
			if n.Sim <= 0 {
				t.Errorf("sim(p1,p2) = %v, want > 0", n.Sim)
			}
		}
	}
	if !self || !other {
		t.Errorf("SimilarTo(p1) missing expected neighbors: %v", neighbors)
	}
	if neighbors := snap.SimilarTo("p3"); len(neighbors) != 0 {
		t.Errorf("SimilarTo(p3) = %v, want empty (no interactions)", neighbors)
	}
}

func TestBuilderNoInteractionsMatrixAbsent(t *testing.T) {
	st := store.NewMemoryRecordStore()
	st.SetProducts([]core.Product{{ID: "p1"}})

	b := &snapshot.Builder{Store: st, Logger: quietLogger()}
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if snap.HasSimilarity() {
		t.Error("HasSimilarity = true, want false for empty interactions")
	}
	if got := snap.SimilarTo("p1"); got != nil {
		t.Errorf("SimilarTo(p1) = %v, want nil without matrix", got)
	}
}

func TestBuilderPartialFetch(t *testing.T) {
	st := testStore()
	// 购物车流在第二页失败：已取回的行保留，快照带 Partial 标记
	st.FailAfter = map[string]int{"cart": 2}

	b := &snapshot.Builder{Store: st, Logger: quietLogger(), PageSize: 2}
	snap, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !snap.Partial() {
		t.Error("Partial = false, want true after injected page failure")
	}
	if got := snap.NumInteractions(); got != 2 {
		t.Errorf("NumInteractions = %d, want 2 (first page only)", got)
	}
}

func TestBuilderCatalogUnreachable(t *testing.T) {
	st := testStore()
	st.FailAfter = map[string]int{"product": 0}

	b := &snapshot.Builder{Store: st, Logger: quietLogger()}
	_, err := b.Build(context.Background())
	if !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("Build err = %v, want ErrStoreUnavailable", err)
	}
}

func TestBuilderIdempotentMappings(t *testing.T) {
	b := &snapshot.Builder{Store: testStore(), Logger: quietLogger()}

	first, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if len(first.UserIDs()) != len(second.UserIDs()) {
		t.Fatalf("user count differs: %d vs %d", len(first.UserIDs()), len(second.UserIDs()))
	}
	for i, id := range first.UserIDs() {
		if second.UserIDs()[i] != id {
			t.Errorf("user index %d differs: %s vs %s", i, id, second.UserIDs()[i])
		}
	}
	for i, id := range first.ProductIDs() {
		if second.ProductIDs()[i] != id {
			t.Errorf("product index %d differs: %s vs %s", i, id, second.ProductIDs()[i])
		}
	}
}
