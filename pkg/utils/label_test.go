package utils

import "testing"

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{
			name:     "both present",
			existing: Label{Value: "itemcf", Source: "recall"},
			incoming: Label{Value: "llm", Source: "rerank"},
			want:     Label{Value: "itemcf|llm", Source: "recall,rerank"},
		},
		{
			name:     "existing empty",
			existing: Label{},
			incoming: Label{Value: "llm", Source: "rerank"},
			want:     Label{Value: "llm", Source: "rerank"},
		},
		{
			name:     "incoming empty",
			existing: Label{Value: "itemcf", Source: "recall"},
			incoming: Label{},
			want:     Label{Value: "itemcf", Source: "recall"},
		},
		{
			name:     "incoming source empty",
			existing: Label{Value: "a", Source: "recall"},
			incoming: Label{Value: "b"},
			want:     Label{Value: "a|b", Source: "recall"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeLabel(tt.existing, tt.incoming); got != tt.want {
				t.Errorf("MergeLabel = %+v, want %+v", got, tt.want)
			}
		})
	}
}
