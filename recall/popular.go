package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Popular 是全局流行度召回源，作为 Item-CF 为空时的兜底。
//
// 打分：pop = 0.7 × clean(buys) + 0.3 × clean(no_of_ratings)。
// 计数字段可能带货币/本地化格式，统一经 conv.CleanCount 清洗（坏值按 0）。
//
// 返回的候选统一带固定的低占位分（默认 0.1），与真实 CF 分明确区分，
// 下游融合时 fallback 候选天然排在任何正常 CF 信号之后。
type Popular struct {
	Snapshots SnapshotProvider

	// TopK 返回的候选数，默认 50
	TopK int

	// PlaceholderScore 占位分，默认 0.1
	PlaceholderScore float64
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Snapshots == nil {
		return nil, nil
	}
	snap := r.Snapshots.Current()
	if snap == nil || snap.NumProducts() == 0 {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = (&core.DefaultEngineConfig{}).DefaultCandidateTopK()
	}
	placeholder := r.PlaceholderScore
	if placeholder <= 0 {
		placeholder = 0.1
	}

	type scored struct {
		meta *core.Product
		pop  float64
	}
	products := snap.Products()
	ranked := make([]scored, 0, len(products))
	for _, p := range products {
		pop := 0.7*float64(conv.CleanCount(p.Buys)) + 0.3*float64(conv.CleanCount(p.RatingsCount))
		ranked = append(ranked, scored{meta: p, pop: pop})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].pop != ranked[j].pop {
			return ranked[i].pop > ranked[j].pop
		}
		return ranked[i].meta.ID < ranked[j].meta.ID
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, s := range ranked {
		it := core.NewItem(s.meta.ID)
		it.Score = placeholder
		it.Meta = s.meta
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
