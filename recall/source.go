package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/snapshot"
)

// Source 表示一个可复用的召回源（Item-CF / 流行度 / ...）。
// 你可以把它理解为“可按序组合的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// SnapshotProvider 提供当前生效的快照。召回源在每次请求开始时取一次
// 快照，整个请求只读这一份（不同快照的索引映射绝不混用）。
//
// engine.Engine 实现此接口。
type SnapshotProvider interface {
	Current() *snapshot.Snapshot
}
