package dsl

import (
	"testing"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func evalItem() *core.Item {
	it := core.NewItem("p1")
	it.Score = 0.8
	it.Meta = &core.Product{
		ID:           "p1",
		Name:         "Gaming Keyboard Pro",
		Brand:        "Acme",
		MainCategory: "electronics",
	}
	it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	return it
}

func TestEvaluate(t *testing.T) {
	rctx := &core.RecommendContext{UserID: "u1", Scene: "home"}

	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr bool
	}{
		{name: "empty expression", expr: "", want: true},
		{name: "meta comparison", expr: `meta.main_category == "electronics"`, want: true},
		{name: "score threshold", expr: `item.score > 0.5`, want: true},
		{name: "label accessor", expr: `label.recall_source == "popular"`, want: true},
		{name: "contains", expr: `meta.name.contains("Pro")`, want: true},
		{name: "rctx access", expr: `rctx.scene == "home"`, want: true},
		{name: "combined", expr: `meta.brand == "Acme" && item.score > 0.9`, want: false},
		{name: "compile error", expr: `meta.brand ==`, wantErr: true},
		{name: "non-boolean result", expr: `item.score`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEval(evalItem(), rctx).Evaluate(tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}
