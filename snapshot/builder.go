package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/core"
)

// Builder 执行一次完整的快照构建：四条记录流的有界分页读取、
// 事件聚合、矩阵与相似度计算、元数据缓存。
//
// 构建是昂贵的批处理操作，必须在请求路径之外执行；Builder 本身
// 无状态，可重复使用。
type Builder struct {
	Store  core.RecordStore
	Logger *slog.Logger

	// PageSize / MaxRows 控制分页读取，零值取 core.DefaultEngineConfig
	PageSize int
	MaxRows  int
}

// Build 构建一份新快照。
//
// 错误语义：
//   - 数据源整体不可达（商品目录一行都取不回且流报错）→ 返回错误，
//     调用方保留旧快照（DataUnavailable）
//   - 单流中途失败 → 保留已取回的行继续构建，快照带 Partial 标记
//   - 没有任何交互 → 正常快照，矩阵显式缺席
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	if b.Store == nil {
		return nil, fmt.Errorf("build snapshot: %w", core.ErrStoreUnavailable)
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pageSize := b.PageSize
	if pageSize <= 0 {
		pageSize = (&core.DefaultEngineConfig{}).DefaultPageSize()
	}
	maxRows := b.MaxRows
	if maxRows <= 0 {
		maxRows = (&core.DefaultEngineConfig{}).DefaultMaxRows()
	}

	var (
		carts     []core.CartEvent
		favorites []core.FavoriteEvent
		products  []core.Product
		clusters  []core.Cluster

		cartFailed, favFailed, prodFailed, clusterFailed bool
	)

	// 四条流并发读取；fetchAll 自行吸收单流错误，errgroup 只做汇合
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		carts, cartFailed = fetchAll(egCtx, logger, "cart_activity_log", b.Store.CartEvents, pageSize, maxRows)
		return nil
	})
	eg.Go(func() error {
		favorites, favFailed = fetchAll(egCtx, logger, "favorites_activity_log", b.Store.FavoriteEvents, pageSize, maxRows)
		return nil
	})
	eg.Go(func() error {
		products, prodFailed = fetchAll(egCtx, logger, "products", b.Store.Products, pageSize, maxRows)
		return nil
	})
	eg.Go(func() error {
		clusters, clusterFailed = fetchAll(egCtx, logger, "clusters", b.Store.Clusters, pageSize, maxRows)
		return nil
	})
	_ = eg.Wait()

	// 目录一行都没有且流本身报错：数据源不可达，中止本次 refresh
	if prodFailed && len(products) == 0 {
		return nil, fmt.Errorf("build snapshot: product catalog unreachable: %w", core.ErrStoreUnavailable)
	}

	partial := cartFailed || favFailed || prodFailed || clusterFailed

	// 聚合两条事件流
	agg := NewAggregator()
	for _, ev := range carts {
		agg.AddCart(ev)
	}
	for _, ev := range favorites {
		agg.AddFavorite(ev)
	}
	rows := agg.Rows()

	snap := buildFromRows(rows, products, clusters)
	snap.builtAt = time.Now()
	snap.partial = partial

	logger.Info("snapshot built",
		"users", snap.NumUsers(),
		"products", snap.NumProducts(),
		"interactions", snap.NumInteractions(),
		"similarity", snap.HasSimilarity(),
		"partial", partial,
	)
	return snap, nil
}

// buildFromRows 从聚合交互表和目录构建快照主体（不含时间戳/标记）。
// 单独拆出便于测试幂等性。
func buildFromRows(rows []InteractionRow, products []core.Product, clusters []core.Cluster) *Snapshot {
	snap := &Snapshot{
		userIndex:   make(map[string]int),
		prodIndex:   make(map[string]int),
		productMeta: make(map[string]*core.Product, len(products)),
		clusterMeta: make(map[int64]*core.Cluster, len(clusters)),
	}

	// 商品索引按目录顺序；重复 ID 保留首个
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			continue
		}
		if _, ok := snap.prodIndex[p.ID]; ok {
			continue
		}
		snap.prodIndex[p.ID] = len(snap.prodIDs)
		snap.prodIDs = append(snap.prodIDs, p.ID)
		snap.productMeta[p.ID] = p
		snap.products = append(snap.products, p)
	}

	for i := range clusters {
		c := &clusters[i]
		if _, ok := snap.clusterMeta[c.ID]; ok {
			continue
		}
		snap.clusterMeta[c.ID] = c
	}

	// 用户索引按交互表首现顺序；目录之外的商品在此处剔除
	kept := make([]InteractionRow, 0, len(rows))
	for _, row := range rows {
		if _, ok := snap.prodIndex[row.ProductID]; !ok {
			continue
		}
		if _, ok := snap.userIndex[row.UserID]; !ok {
			snap.userIndex[row.UserID] = len(snap.userIDs)
			snap.userIDs = append(snap.userIDs, row.UserID)
		}
		kept = append(kept, row)
	}
	snap.interactions = len(kept)

	// 稀疏用户-商品矩阵：每用户一行
	entryRows := make([][]rowEntry, len(snap.userIDs))
	snap.userRows = make([][]Interaction, len(snap.userIDs))
	for _, row := range kept {
		u := snap.userIndex[row.UserID]
		p := snap.prodIndex[row.ProductID]
		entryRows[u] = append(entryRows[u], rowEntry{idx: p, score: row.Score})
		snap.userRows[u] = append(snap.userRows[u], Interaction{
			ProductID: row.ProductID,
			Score:     row.Score,
		})
	}
	for u := range snap.userRows {
		r := snap.userRows[u]
		sort.Slice(r, func(i, j int) bool {
			if r[i].Score != r[j].Score {
				return r[i].Score > r[j].Score
			}
			return r[i].ProductID < r[j].ProductID
		})
	}

	if snap.interactions > 0 {
		snap.simRows = buildSimilarity(entryRows, len(snap.prodIDs), snap.prodIDs)
		snap.hasMatrix = true
	}

	return snap
}
