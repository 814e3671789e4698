package core

import "github.com/rushteam/shoprec/pkg/utils"

// Item 是推荐链路中的统一承载结构：分数、解释、元信息、标签。
//
// Score 是召回阶段的 CF 分（可无界累积）；LLMScore / FinalScore 由
// ReRank 阶段写入；Meta 引用所在快照的商品元数据，链路内只读。
type Item struct {
	ID         string
	Score      float64 // CF 累积分（popular 召回时为占位分 0.1）
	LLMScore   float64 // 外部模型相关性分，[0,1]，未打分为 0
	FinalScore float64 // 融合分：0.7*(cf/(cf+1)) + 0.3*llm
	Reason     string  // 推荐理由（模型给出或规则兜底）
	Meta       *Product
	Labels     map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// GetLabel 获取 Label。
func (it *Item) GetLabel(key string) (utils.Label, bool) {
	if it.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := it.Labels[key]
	return lbl, ok
}
