package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在重排后截取前 N 个物品。
//
// 使用场景：
//   - 去重之后只返回 Top 10/20/50 个结果
//   - 控制推荐结果数量，提升性能
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &rerank.LLMNode{...},     // 融合重排
//	        &rerank.DedupNode{},      // 去重
//	        &rerank.TopNNode{N: 10},  // 截取 Top 10
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则返回所有物品（不截断）
	// 如果 N > len(items)，则返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	// 如果 N <= 0，不截断，返回所有物品
	if n.N <= 0 {
		return items, nil
	}

	if len(items) <= n.N {
		return items, nil
	}

	return items[:n.N], nil
}
