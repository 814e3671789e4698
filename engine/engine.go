// Package engine 是推荐引擎门面：懒初始化、快照原子替换、召回降级、
// 外部模型重排、去重截断与输出投影的编排都在这里完成。
//
// 对 serving 层的契约：
//   - Recommend 永远返回一个（可能为空的）列表，内部失败一律降级，
//     绝不以错误形态外泄
//   - Refresh 是异步触发且幂等的：并发触发被合并串行执行，
//     refresh 结束后引擎要么是 READY，要么维持原状，绝不崩坏
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/snapshot"
)

// State 是引擎就绪状态机：
// UNINITIALIZED → (refresh 成功) → READY → (触发 refresh) → REFRESHING → READY。
// 部分流取数失败的 refresh 依然进入 READY（用取到的数据构建，带
// Partial 标记），而不是退回 UNINITIALIZED。
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRefreshing:
		return "REFRESHING"
	default:
		return "UNINITIALIZED"
	}
}

// Options 是引擎装配参数。零值字段取 core.DefaultEngineConfig 默认值。
type Options struct {
	Store  core.RecordStore // 必填：四条记录流的数据源
	Chat   core.ChatService // 可选：nil 时重排走 CF-only 降级
	Logger *slog.Logger     // 可选：nil 时用 slog.Default()

	PageSize            int
	MaxRows             int
	CandidateTopK       int           // 召回候选集大小
	MaxUserInteractions int           // 单请求交互上限
	LLMCandidates       int           // 送入模型的候选前缀
	LLMTimeout          time.Duration // 单次模型调用超时
	HistoryLimit        int           // 画像行为摘要长度
	ClusterLimit        int           // 画像簇偏好长度

	// FilterExpression 是可选的 CEL 候选过滤表达式（返回 true 保留）
	FilterExpression string

	// Blocklist 是装配期注入的屏蔽商品 ID
	Blocklist []string
}

// Engine 是进程级推荐引擎。多请求并发读同一个原子快照句柄；
// 快照整体替换，读方要么看到全旧、要么看到全新，绝无混合。
type Engine struct {
	opts   Options
	logger *slog.Logger

	snap  atomic.Pointer[snapshot.Snapshot]
	state atomic.Int32

	// refresh 并发触发合并为一次执行
	refreshGroup singleflight.Group
}

// New 装配引擎。不触发任何 I/O；首次 Recommend 或显式 Refresh
// 才会构建快照。
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	def := &core.DefaultEngineConfig{}
	if opts.PageSize <= 0 {
		opts.PageSize = def.DefaultPageSize()
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = def.DefaultMaxRows()
	}
	if opts.CandidateTopK <= 0 {
		opts.CandidateTopK = def.DefaultCandidateTopK()
	}
	if opts.MaxUserInteractions <= 0 {
		opts.MaxUserInteractions = def.DefaultMaxUserInteractions()
	}
	if opts.LLMCandidates <= 0 {
		opts.LLMCandidates = def.DefaultLLMCandidates()
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = def.DefaultLLMTimeout()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = def.DefaultHistoryLimit()
	}
	if opts.ClusterLimit <= 0 {
		opts.ClusterLimit = def.DefaultClusterLimit()
	}

	return &Engine{
		opts:   opts,
		logger: logger,
	}
}

// Current 返回当前生效的快照（可能为 nil）。
// 实现 recall.SnapshotProvider / rerank.SnapshotProvider。
func (e *Engine) Current() *snapshot.Snapshot {
	return e.snap.Load()
}

// State 返回引擎就绪状态。
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Ready 返回引擎是否已有可用快照。
func (e *Engine) Ready() bool {
	return e.snap.Load() != nil
}

// Refresh 异步触发一次快照重建。触发方不阻塞；并发触发与正在
// 执行中的 refresh 合并，不会并行重建。
func (e *Engine) Refresh(ctx context.Context) {
	// 批处理的生命周期与触发方解耦
	bg := context.WithoutCancel(ctx)
	go func() {
		_ = e.RefreshSync(bg)
	}()
}

// RefreshSync 同步执行一次快照重建（启动时、定时任务或测试使用）。
//
// 失败语义：数据源整体不可达时返回错误并保持原快照/状态；
// 部分流失败时仍发布新快照（Partial 标记）并进入 READY。
func (e *Engine) RefreshSync(ctx context.Context) error {
	_, err, _ := e.refreshGroup.Do("refresh", func() (any, error) {
		if e.snap.Load() != nil {
			e.state.Store(int32(StateRefreshing))
		}

		builder := &snapshot.Builder{
			Store:    e.opts.Store,
			Logger:   e.logger,
			PageSize: e.opts.PageSize,
			MaxRows:  e.opts.MaxRows,
		}
		snap, err := builder.Build(ctx)
		if err != nil {
			// 维持原状：有旧快照则继续服务旧数据
			if e.snap.Load() != nil {
				e.state.Store(int32(StateReady))
			} else {
				e.state.Store(int32(StateUninitialized))
			}
			e.logger.Error("refresh aborted, keeping previous snapshot", "error", err)
			return nil, err
		}

		// 新快照整体替换，只在完全成功后发布
		e.snap.Store(snap)
		e.state.Store(int32(StateReady))
		return nil, nil
	})
	return err
}

// Recommend 返回用户的 Top-K 推荐。
//
// 编排步骤：懒初始化 → Item-CF 召回 → 流行度兜底 → 画像构建 →
// 模型重排（失败降级 CF-only）→ 去重 → 截断 → 输出投影。
// 任何内部失败都表现为空列表或降级结果，不向调用方抛错。
func (e *Engine) Recommend(ctx context.Context, userID string, topK int) []core.Recommendation {
	if topK <= 0 {
		topK = 10
	}

	// 懒初始化：无快照时同步构建一次
	if e.snap.Load() == nil {
		if err := e.RefreshSync(ctx); err != nil {
			e.logger.Warn("recommend on uninitialized engine, returning empty",
				"user_id", userID, "error", err)
			return []core.Recommendation{}
		}
	}

	// 请求开始时选定快照，整个请求只读这一份
	snap := e.snap.Load()
	if snap == nil {
		return []core.Recommendation{}
	}
	provider := pinnedSnapshot{snap: snap}

	rctx := &core.RecommendContext{
		UserID: userID,
		TopK:   topK,
	}

	// 召回链：Item-CF 为空时当且仅当此时走流行度兜底
	chain := &recall.Chain{
		Sources: []recall.Source{
			&recall.ItemCF{
				Snapshots:       provider,
				TopK:            e.opts.CandidateTopK,
				MaxInteractions: e.opts.MaxUserInteractions,
			},
			&recall.Popular{
				Snapshots: provider,
				TopK:      e.opts.CandidateTopK,
			},
		},
	}
	candidates, _ := chain.Recall(ctx, rctx)
	if len(candidates) == 0 {
		return []core.Recommendation{}
	}

	// 画像构建；兜底召回时在提示里注明，供模型理解候选来源
	profile := e.buildProfile(snap, userID)
	if lbl, ok := rctx.GetLabel("recall_source"); ok && lbl.Value == "recall.popular" {
		profile.PersonaHint += " (Using Popular Products Fallback)"
	}
	rctx.Profile = profile

	ranked := e.runRanking(ctx, rctx, candidates, provider, topK)
	if len(ranked) == 0 && len(candidates) > 0 {
		// 防御路径：重排意外清空时直接用原始 CF 分合成结果
		ranked = e.synthesize(ctx, rctx, candidates, topK)
	}

	out := make([]core.Recommendation, 0, len(ranked))
	for _, it := range ranked {
		out = append(out, project(it))
	}
	return out
}

// runRanking 组装并执行重排流水线：过滤 → 模型融合 → 去重 → 截断。
func (e *Engine) runRanking(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Item,
	provider pinnedSnapshot,
	topK int,
) []*core.Item {
	nodes := make([]pipeline.Node, 0, 4)

	filters := make([]filter.Filter, 0, 2)
	if len(e.opts.Blocklist) > 0 {
		filters = append(filters, filter.NewBlocklist(e.opts.Blocklist))
	}
	if e.opts.FilterExpression != "" {
		filters = append(filters, &filter.Expr{Expression: e.opts.FilterExpression})
	}
	if len(filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: filters})
	}

	nodes = append(nodes,
		&rerank.LLMNode{
			Chat:          e.opts.Chat,
			Snapshots:     provider,
			Logger:        e.logger,
			MaxCandidates: e.opts.LLMCandidates,
			Timeout:       e.opts.LLMTimeout,
		},
		&rerank.DedupNode{},
		&rerank.TopNNode{N: topK},
	)

	p := &pipeline.Pipeline{Nodes: nodes}
	ranked, err := p.Run(ctx, rctx, candidates)
	if err != nil {
		e.logger.Warn("ranking pipeline failed, falling back to raw candidates", "error", err)
		return nil
	}
	return ranked
}

// synthesize 是重排清空时的防御路径：用原始 CF 分生成最终条目，
// 只走去重与截断。
func (e *Engine) synthesize(
	ctx context.Context,
	rctx *core.RecommendContext,
	candidates []*core.Item,
	topK int,
) []*core.Item {
	for _, it := range candidates {
		it.LLMScore = 0
		it.FinalScore = rerank.FuseScores(it.Score, 0)
		if it.Reason == "" {
			it.Reason = rerank.RuleReason(it.Meta)
		}
	}
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&rerank.DedupNode{},
		&rerank.TopNNode{N: topK},
	}}
	out, err := p.Run(ctx, rctx, candidates)
	if err != nil {
		return candidates
	}
	return out
}

// project 把链路承载结构投影为 serving 层输出记录。
func project(it *core.Item) core.Recommendation {
	rec := core.Recommendation{
		ProductID:  it.ID,
		CFScore:    it.Score,
		LLMScore:   it.LLMScore,
		FinalScore: it.FinalScore,
		Reason:     it.Reason,
	}
	if m := it.Meta; m != nil {
		rec.Name = m.Name
		rec.Brand = m.Brand
		rec.MainCategory = m.MainCategory
		rec.SubCategory = m.SubCategory
		rec.Image = m.Image
		rec.Link = m.Link
		rec.ClusterID = m.ClusterID
		rec.DiscountPrice = m.DiscountPrice
		rec.ActualPrice = m.ActualPrice
		rec.Ratings = m.Ratings
	}
	return rec
}

// pinnedSnapshot 把请求入口处选定的快照固定下来，请求期间的
// 所有读取都针对这一份（并发 refresh 的替换对本请求不可见）。
type pinnedSnapshot struct {
	snap *snapshot.Snapshot
}

func (p pinnedSnapshot) Current() *snapshot.Snapshot { return p.snap }
