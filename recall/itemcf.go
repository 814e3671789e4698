package recall

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/pkg/utils"
)

// ItemCF 是基于物品的协同过滤召回源（Item-based Collaborative Filtering）。
//
// 核心思想："被同一批用户喜欢的物品，相互相似"
//
// 算法流程：
//  1. 取用户交互行（快照内已按分数降序），截断到 MaxInteractions 以
//     限定单请求开销
//  2. 统计用户的簇亲和直方图（无簇商品不计入）
//  3. 对每个交互过的商品（source），取其相似度行的有界前缀
//     （PrefixMultiplier × TopK）作为局部候选
//  4. 剔除用户已交互的商品与非正相似度的候选
//  5. 打分：sim × (1 + 0.5×交互分) × (1 + 0.1×ln(1+buys+0.5×add_to_cart))
//     × 簇加成（1 + 0.2×该簇交互次数，无簇或未命中直方图时为 1）
//  6. 同一候选被多个 source 提名时分数累加（CF "投票"：经由多条喜欢
//     路径可达的商品排得更高）
//  7. 降序取 TopK
//
// 前置条件不满足时（快照无相似度索引 / 用户不在索引中）返回空列表
// 而不是错误，是否走 fallback 由调用方决定。
type ItemCF struct {
	Snapshots SnapshotProvider

	// TopK 最终返回的候选数，默认 50
	TopK int

	// MaxInteractions 单次请求处理的用户交互上限，默认 50
	MaxInteractions int

	// PrefixMultiplier 相似度行前缀 = PrefixMultiplier × TopK，默认 4
	PrefixMultiplier int
}

func (r *ItemCF) Name() string        { return "recall.itemcf" }
func (r *ItemCF) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ItemCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *ItemCF) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Snapshots == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	snap := r.Snapshots.Current()
	if snap == nil || !snap.HasSimilarity() {
		return nil, nil
	}

	userRow := snap.UserRow(rctx.UserID)
	if len(userRow) == 0 {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = (&core.DefaultEngineConfig{}).DefaultCandidateTopK()
	}
	maxInteractions := r.MaxInteractions
	if maxInteractions <= 0 {
		maxInteractions = (&core.DefaultEngineConfig{}).DefaultMaxUserInteractions()
	}
	prefixMul := r.PrefixMultiplier
	if prefixMul <= 0 {
		prefixMul = 4
	}

	// 交互行已按分数降序，截断即保留最强信号
	if len(userRow) > maxInteractions {
		userRow = userRow[:maxInteractions]
	}

	// 已交互集合 + 簇亲和直方图
	interacted := make(map[string]struct{}, len(userRow))
	clusterPref := make(map[int64]int)
	for _, in := range userRow {
		interacted[in.ProductID] = struct{}{}
		if meta := snap.Product(in.ProductID); meta != nil && meta.ClusterID != nil {
			clusterPref[*meta.ClusterID]++
		}
	}

	prefix := prefixMul * topK
	candidateScores := make(map[string]float64)

	for _, source := range userRow {
		simRow := snap.SimilarTo(source.ProductID)
		// 相似度行包含自身（sim=1 排首位），前缀按原始行计数，
		// 自身会被已交互判断剔除
		n := min(len(simRow), prefix)
		for _, nb := range simRow[:n] {
			if _, ok := interacted[nb.ProductID]; ok {
				continue
			}
			if nb.Sim <= 0 {
				continue
			}

			meta := snap.Product(nb.ProductID)
			if meta == nil {
				continue
			}

			// 计数字段是原始文本，统一经 conv 清洗，坏值按 0
			buys := float64(conv.CleanCount(meta.Buys))
			addToCart := float64(conv.CleanCount(meta.AddToCart))
			popularity := math.Log1p(buys + 0.5*addToCart)

			clusterBoost := 1.0
			if meta.ClusterID != nil {
				if cnt, ok := clusterPref[*meta.ClusterID]; ok {
					clusterBoost += 0.2 * float64(cnt)
				}
			}

			score := nb.Sim * (1.0 + 0.5*source.Score) * (1.0 + 0.1*popularity) * clusterBoost
			candidateScores[nb.ProductID] += score
		}
	}

	if len(candidateScores) == 0 {
		return nil, nil
	}

	// 排序取 TopK；同分按 ID 升序，保证候选顺序确定
	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(candidateScores))
	for id, score := range candidateScores {
		ranked = append(ranked, scored{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, s := range ranked {
		it := core.NewItem(s.id)
		it.Score = s.score
		it.Meta = snap.Product(s.id)
		it.PutLabel("recall_source", utils.Label{Value: "itemcf", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
