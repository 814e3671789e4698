package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/snapshot"
)

// buildProfile 从选定快照为用户构建画像摘要。
//
//   - History：交互行前 HistoryLimit 条（行内已按分数降序），
//     合并商品元数据
//   - TopClusters：对全部交互统计簇直方图，取前 ClusterLimit
//   - PersonaHint：由簇偏好生成的自然语言提示；无簇偏好时给出
//     行为稀疏提示
//
// 不在交互索引中的用户得到冷启动画像。
func (e *Engine) buildProfile(snap *snapshot.Snapshot, userID string) *core.UserProfile {
	row := snap.UserRow(userID)
	if len(row) == 0 {
		return core.NewColdStartProfile(userID)
	}

	historyLimit := min(len(row), e.opts.HistoryLimit)
	history := make([]core.HistoryEntry, 0, historyLimit)
	for _, in := range row[:historyLimit] {
		entry := core.HistoryEntry{
			ProductID: in.ProductID,
			Score:     in.Score,
		}
		if meta := snap.Product(in.ProductID); meta != nil {
			entry.Name = meta.Name
			entry.ClusterID = meta.ClusterID
			entry.MainCategory = meta.MainCategory
			entry.SubCategory = meta.SubCategory
			entry.Brand = meta.Brand
		}
		history = append(history, entry)
	}

	// 簇直方图基于全部交互，不受 History 截断影响
	counts := make(map[int64]int)
	for _, in := range row {
		if meta := snap.Product(in.ProductID); meta != nil && meta.ClusterID != nil {
			counts[*meta.ClusterID]++
		}
	}
	type clusterCount struct {
		id    int64
		count int
	}
	ranked := make([]clusterCount, 0, len(counts))
	for id, cnt := range counts {
		ranked = append(ranked, clusterCount{id: id, count: cnt})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > e.opts.ClusterLimit {
		ranked = ranked[:e.opts.ClusterLimit]
	}

	topClusters := make([]core.ClusterAffinity, 0, len(ranked))
	for _, cc := range ranked {
		affinity := core.ClusterAffinity{
			ClusterID: cc.id,
			Count:     cc.count,
		}
		if cm := snap.Cluster(cc.id); cm != nil {
			affinity.Title = cm.Title
			affinity.Description = cm.Description
		}
		topClusters = append(topClusters, affinity)
	}

	return &core.UserProfile{
		UserID:      userID,
		History:     history,
		TopClusters: topClusters,
		PersonaHint: personaHint(topClusters),
	}
}

// personaHint 把簇偏好转为自然语言提示，透传给外部模型。
func personaHint(topClusters []core.ClusterAffinity) string {
	if len(topClusters) == 0 {
		return "User behavior sparse; no strong cluster preference detected."
	}
	parts := make([]string, 0, len(topClusters))
	for _, c := range topClusters {
		parts = append(parts, fmt.Sprintf("%d (%s)", c.ClusterID, c.Title))
	}
	return "User likes products in clusters: " + strings.Join(parts, ", ")
}
