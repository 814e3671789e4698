package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestDedupNodeKeepsFirstOccurrence(t *testing.T) {
	first := core.NewItem("p1")
	first.FinalScore = 0.9
	dup := core.NewItem("p1")
	dup.FinalScore = 0.2
	other := core.NewItem("p2")

	node := &DedupNode{}
	out, err := node.Process(context.Background(), nil, []*core.Item{first, dup, other, nil})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0] != first {
		t.Error("highest-ranked occurrence must survive dedup")
	}
	if out[1].ID != "p2" {
		t.Errorf("second item = %s, want p2", out[1].ID)
	}
}

func TestTopNNode(t *testing.T) {
	items := []*core.Item{core.NewItem("p1"), core.NewItem("p2"), core.NewItem("p3")}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "truncate", n: 2, want: 2},
		{name: "n larger than input", n: 10, want: 3},
		{name: "zero means no truncation", n: 0, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), nil, items)
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("got %d items, want %d", len(out), tt.want)
			}
		})
	}
}
