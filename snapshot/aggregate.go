package snapshot

import "github.com/rushteam/shoprec/core"

// 行为权重表。两条事件流映射到同一个 (user, product) 打分空间。
//
// 注意 removed 的权重是 0 而不是负数：历史兴趣信号是单调的，
// 取消收藏不会抵消之前的 added（"曾经表现过兴趣"本身就是信号）。
const (
	weightCartAdded     = 2.0
	weightCartQuantity  = 1.0
	weightFavoriteAdded = 3.0
)

// CartWeight 返回购物车动作的权重，未知动作为 0。
func CartWeight(action string) float64 {
	switch action {
	case core.ActionAdded:
		return weightCartAdded
	case core.ActionQuantityUpdated:
		return weightCartQuantity
	default: // removed 与未知动作
		return 0
	}
}

// FavoriteWeight 返回收藏动作的权重，未知动作为 0。
func FavoriteWeight(action string) float64 {
	switch action {
	case core.ActionAdded:
		return weightFavoriteAdded
	default: // removed 与未知动作
		return 0
	}
}

// InteractionRow 是聚合后的一条 (user, product) 交互打分。
type InteractionRow struct {
	UserID    string
	ProductID string
	Score     float64
}

// Aggregator 把两条原始事件流归一成 (user, product) → score 表。
//
// 输出顺序是确定的：按 (user, product) 对在事件流中首次出现的顺序。
// 这保证同样的源数据两次 refresh 得到完全一致的索引映射（幂等性）。
type Aggregator struct {
	scores map[pairKey]float64
	order  []pairKey
}

type pairKey struct {
	user    string
	product string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		scores: make(map[pairKey]float64),
	}
}

// AddCart 累加一条购物车事件。
func (a *Aggregator) AddCart(ev core.CartEvent) {
	a.add(ev.UserID, ev.ProductID, CartWeight(ev.Action))
}

// AddFavorite 累加一条收藏事件。
func (a *Aggregator) AddFavorite(ev core.FavoriteEvent) {
	a.add(ev.UserID, ev.ProductID, FavoriteWeight(ev.Action))
}

func (a *Aggregator) add(userID, productID string, weight float64) {
	if userID == "" || productID == "" {
		return
	}
	key := pairKey{user: userID, product: productID}
	if _, ok := a.scores[key]; !ok {
		a.order = append(a.order, key)
	}
	a.scores[key] += weight
}

// Rows 返回聚合结果，只保留总分 > 0 的行。
func (a *Aggregator) Rows() []InteractionRow {
	rows := make([]InteractionRow, 0, len(a.order))
	for _, key := range a.order {
		score := a.scores[key]
		if score <= 0 {
			continue
		}
		rows = append(rows, InteractionRow{
			UserID:    key.user,
			ProductID: key.product,
			Score:     score,
		})
	}
	return rows
}
