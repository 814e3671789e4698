package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// DedupNode 按商品 ID 去重，保留首个（排名最高的）出现。
// 通常放在 rerank.llm 之后、rerank.topn 之前。
type DedupNode struct{}

func (n *DedupNode) Name() string {
	return "rerank.dedup"
}

func (n *DedupNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]bool, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out, nil
}
