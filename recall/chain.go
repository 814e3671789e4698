package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Chain 是按序降级的召回链：依次尝试各召回源，第一个返回非空结果的
// 源胜出，后续源不再执行。
//
// 与并发 fan-out 合并不同，Chain 表达的是严格的"当且仅当前序为空才
// 兜底"契约：fallback 源只在主召回彻底没有候选时才会生效。
//
// 单个源的错误被吸收（记 label，不中断链路），空结果与错误同样
// 触发降级到下一个源。
type Chain struct {
	Sources []Source
}

func (n *Chain) Name() string        { return "recall.chain" }
func (n *Chain) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口
func (n *Chain) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

// Recall 实现 Source 接口。胜出的源名会写入 rctx 的 recall_source
// 用户级 label，供下游（画像提示、观测）判断是否走了兜底召回。
func (n *Chain) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	for _, src := range n.Sources {
		items, err := src.Recall(ctx, rctx)
		if err != nil {
			// 源内部错误按空结果处理，继续向后降级
			continue
		}
		if len(items) == 0 {
			continue
		}
		if rctx != nil {
			rctx.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
		}
		return items, nil
	}
	return nil, nil
}
