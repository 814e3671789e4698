package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// Expr 是表达式过滤器，使用 CEL 表达式判断候选是否保留。
//
// 表达式返回 true 表示保留，false 表示过滤。可访问变量：
//   - item: id / score / labels
//   - label: label.recall_source 等（直接取 value）
//   - meta: meta.brand / meta.main_category / meta.cluster_id 等
//   - rctx: user_id / scene / params
//
// 示例：
//   - `meta.main_category != "toys"` → 排除玩具类目
//   - `item.score > 0.05 || label.recall_source == "popular"`
//
// 表达式编译/求值失败时按保留处理（过滤器永远不拖垮链路）。
type Expr struct {
	// Expression 是 CEL 表达式，空串表示全部保留
	Expression string
}

func (f *Expr) Name() string {
	return "filter.expr"
}

func (f *Expr) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.Expression == "" || item == nil {
		return false, nil
	}
	keep, err := dsl.NewEval(item, rctx).Evaluate(f.Expression)
	if err != nil {
		// 表达式问题不应导致候选丢失
		return false, nil
	}
	return !keep, nil
}
