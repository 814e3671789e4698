package rerank

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/snapshot"
)

// SnapshotProvider 提供当前生效的快照（用于读取簇标题等描述性元数据）。
type SnapshotProvider interface {
	Current() *snapshot.Snapshot
}

// LLMNode 是外部语言模型重排节点：把 CF 分与模型相关性判断融合为最终分。
//
// 调用契约：
//   - 只把候选列表的有界前缀（MaxCandidates，默认 20）送入模型，
//     控制请求体积与成本
//   - 单次尽力而为，超时有界，无重试
//   - 响应必须是严格的 JSON 数组 [{product_id, llm_score, reason}]，
//     其他任何形态都按无信号处理（容忍 markdown 代码围栏）
//
// 降级契约（绝不向调用方抛错）：
//   - 凭证缺失 / 调用失败 / 响应不合法 → 所有候选 llm_score = 0，
//     理由用规则兜底（按主类目生成，未知类目用通用话术）
//
// 融合：final = 0.7 × (cf / (cf + 1)) + 0.3 × llm。
// CF 项经过饱和变换，无界的累积 CF 分不会压过有界的模型信号，
// 因此 final 恒小于 1.0。
//
// 输出包含全部输入候选（不只是送入模型的前缀），按 final 降序。
type LLMNode struct {
	Chat      core.ChatService
	Snapshots SnapshotProvider
	Logger    *slog.Logger

	// MaxCandidates 送入模型的候选前缀长度，默认 20
	MaxCandidates int

	// Timeout 单次模型调用的超时，默认 30s
	Timeout time.Duration
}

func (n *LLMNode) Name() string        { return "rerank.llm" }
func (n *LLMNode) Kind() pipeline.Kind { return pipeline.KindReRank }

const llmSystemPrompt = `You are a recommendation ranking engine for an e-commerce website.
Your job is to:
1) Re-rank candidate products for a user based on their history and preferences.
2) Output a JSON array only, no extra text.
Each element must be:
{
  "product_id": "...",
  "llm_score": float (0.0 - 1.0),
  "reason": "short natural language explanation"
}
Higher llm_score means more relevant.`

// llmVerdict 是模型对单个候选的判断。
type llmVerdict struct {
	ProductID string  `json:"product_id"`
	LLMScore  float64 `json:"llm_score"`
	Reason    string  `json:"reason"`
}

// candidatePayload 是送入模型的单候选载荷。
type candidatePayload struct {
	ProductID     string        `json:"product_id"`
	CFScore       float64       `json:"cf_score"`
	Name          string        `json:"name,omitempty"`
	Brand         string        `json:"brand,omitempty"`
	MainCategory  string        `json:"main_category,omitempty"`
	SubCategory   string        `json:"sub_category,omitempty"`
	DiscountPrice string        `json:"discount_price,omitempty"`
	ActualPrice   string        `json:"actual_price,omitempty"`
	ClusterID     *int64        `json:"cluster_id,omitempty"`
	Cluster       *core.Cluster `json:"cluster,omitempty"`
}

func (n *LLMNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	verdicts := n.llmVerdicts(ctx, rctx, items)

	for _, it := range items {
		v, ok := verdicts[it.ID]
		if ok {
			it.LLMScore = clamp01(v.LLMScore)
			it.Reason = v.Reason
			it.PutLabel("rerank_signal", utils.Label{Value: "llm", Source: "rerank"})
		} else {
			it.LLMScore = 0
		}
		if it.Reason == "" {
			it.Reason = RuleReason(it.Meta)
			it.PutLabel("rerank_signal", utils.Label{Value: "rule", Source: "rerank"})
		}
		it.FinalScore = FuseScores(it.Score, it.LLMScore)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].FinalScore != items[j].FinalScore {
			return items[i].FinalScore > items[j].FinalScore
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// FuseScores 融合 CF 分与模型分：0.7 × (cf/(cf+1)) + 0.3 × llm。
func FuseScores(cfScore, llmScore float64) float64 {
	saturated := 0.0
	if cfScore > 0 {
		saturated = cfScore / (cfScore + 1.0)
	}
	return 0.7*saturated + 0.3*llmScore
}

// llmVerdicts 发起一次模型调用并解析结果。任何失败都返回空 map，
// 由调用方走规则兜底。
func (n *LLMNode) llmVerdicts(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) map[string]llmVerdict {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if n.Chat == nil {
		logger.Info("llm rerank skipped: no chat service configured")
		return nil
	}

	maxCandidates := n.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = (&core.DefaultEngineConfig{}).DefaultLLMCandidates()
	}
	timeout := n.Timeout
	if timeout <= 0 {
		timeout = (&core.DefaultEngineConfig{}).DefaultLLMTimeout()
	}

	var snap *snapshot.Snapshot
	if n.Snapshots != nil {
		snap = n.Snapshots.Current()
	}

	prefix := min(len(items), maxCandidates)
	candidates := make([]candidatePayload, 0, prefix)
	for _, it := range items[:prefix] {
		c := candidatePayload{ProductID: it.ID, CFScore: it.Score}
		if m := it.Meta; m != nil {
			c.Name = m.Name
			c.Brand = m.Brand
			c.MainCategory = m.MainCategory
			c.SubCategory = m.SubCategory
			c.DiscountPrice = m.DiscountPrice
			c.ActualPrice = m.ActualPrice
			c.ClusterID = m.ClusterID
			if m.ClusterID != nil && snap != nil {
				c.Cluster = snap.Cluster(*m.ClusterID)
			}
		}
		candidates = append(candidates, c)
	}

	var profile *core.UserProfile
	if rctx != nil {
		profile = rctx.Profile
	}
	payload, err := json.Marshal(map[string]any{
		"user_profile": profile,
		"candidates":   candidates,
	})
	if err != nil {
		logger.Warn("llm rerank payload marshal failed", "error", err)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := n.Chat.Complete(callCtx, llmSystemPrompt, string(payload))
	if err != nil {
		if core.IsUnavailable(err) {
			logger.Info("llm rerank degraded to cf-only", "reason", err)
		} else {
			logger.Warn("llm rerank call failed, degrading to cf-only", "error", err)
		}
		return nil
	}

	verdicts, err := parseVerdicts(raw)
	if err != nil {
		logger.Warn("llm rerank response rejected", "error", err)
		return nil
	}

	out := make(map[string]llmVerdict, len(verdicts))
	for _, v := range verdicts {
		if v.ProductID == "" {
			continue
		}
		out[v.ProductID] = v
	}
	return out
}

// parseVerdicts 按严格输出契约解析模型响应：一个 JSON 数组且仅此而已。
// 容忍模型把数组包进 markdown 代码围栏。
func parseVerdicts(raw string) ([]llmVerdict, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var verdicts []llmVerdict
	if err := json.Unmarshal([]byte(s), &verdicts); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// RuleReason 生成规则兜底理由：优先按主类目，未知类目用通用话术。
// 模型未给出理由或整体降级时使用。
func RuleReason(meta *core.Product) string {
	if meta != nil && meta.MainCategory != "" && meta.MainCategory != "None" {
		return "Recommended because you have shown interest in " + meta.MainCategory + " products."
	}
	return "Recommended based on your recent browsing activity and popular trends."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
