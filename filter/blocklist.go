package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// Blocklist 是商品屏蔽过滤器：剔除屏蔽集合中的候选。
// serving 层可以把下架/缺货/违规商品 ID 在引擎装配时注入。
type Blocklist struct {
	ids map[string]struct{}
}

// NewBlocklist 创建商品屏蔽过滤器。
func NewBlocklist(productIDs []string) *Blocklist {
	ids := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		ids[id] = struct{}{}
	}
	return &Blocklist{ids: ids}
}

func (f *Blocklist) Name() string {
	return "filter.blocklist"
}

func (f *Blocklist) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, blocked := f.ids[item.ID]
	return blocked, nil
}
