// Package snapshot 负责把原始行为事件与商品/簇目录派生为一份不可变快照：
// 索引映射、稀疏用户-商品矩阵、物品余弦相似度索引、元数据缓存。
//
// 快照的生命周期纪律：
//   - 由一次 refresh 整体构建，构建成功后才对外发布（调用方持有
//     atomic 句柄做整体替换）
//   - 发布后只读；不同快照的索引映射绝不混用
//   - 排序请求在进入时选定一份快照，整个请求只读这一份
package snapshot

import (
	"time"

	"github.com/rushteam/shoprec/core"
)

// Snapshot 是一次 refresh 的完整产物。字段全部在 Build 内填充，
// 发布后不再修改。
type Snapshot struct {
	builtAt time.Time
	partial bool // 任一记录流发生过 PartialFetch（降级数据指示）

	userIndex map[string]int
	userIDs   []string
	prodIndex map[string]int
	prodIDs   []string

	// userRows[u] = 用户 u 的交互行，按分数降序（同分按商品 ID 升序）
	userRows [][]Interaction

	// simRows[p] = 商品 p 的相似邻居，按相似度降序；无交互时为 nil
	simRows [][]Neighbor

	hasMatrix    bool
	interactions int

	productMeta map[string]*core.Product
	clusterMeta map[int64]*core.Cluster

	// products 保持目录顺序，供全量扫描（popular 召回）使用
	products []*core.Product
}

// BuiltAt 返回快照构建完成时间。
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Partial 返回快照是否由不完整数据构建（存在失败的分页读取）。
func (s *Snapshot) Partial() bool { return s.partial }

// HasSimilarity 返回相似度索引是否存在。没有任何交互时矩阵显式缺席，
// 这不是错误状态。
func (s *Snapshot) HasSimilarity() bool { return s.hasMatrix }

// NumUsers 返回交互索引中的用户数。
func (s *Snapshot) NumUsers() int { return len(s.userIDs) }

// NumProducts 返回目录中的商品数。
func (s *Snapshot) NumProducts() int { return len(s.prodIDs) }

// NumInteractions 返回聚合后的交互行数（目录过滤之后）。
func (s *Snapshot) NumInteractions() int { return s.interactions }

// UserRow 返回用户的交互行（分数降序）。未知用户返回 nil。
// 返回的切片归快照所有，调用方只读。
func (s *Snapshot) UserRow(userID string) []Interaction {
	idx, ok := s.userIndex[userID]
	if !ok {
		return nil
	}
	return s.userRows[idx]
}

// SimilarTo 返回商品的相似邻居行（相似度降序）。行内包含自身
// （自相似度 1），调用方引用时自行跳过。未知商品返回 nil。
func (s *Snapshot) SimilarTo(productID string) []Neighbor {
	if !s.hasMatrix {
		return nil
	}
	idx, ok := s.prodIndex[productID]
	if !ok {
		return nil
	}
	return s.simRows[idx]
}

// Product 返回商品元数据，未知 ID 返回 nil。
func (s *Snapshot) Product(id string) *core.Product {
	return s.productMeta[id]
}

// Cluster 返回簇元数据，未知 ID 返回 nil。
func (s *Snapshot) Cluster(id int64) *core.Cluster {
	return s.clusterMeta[id]
}

// Products 返回目录顺序的全量商品列表（只读）。
func (s *Snapshot) Products() []*core.Product {
	return s.products
}

// UserIDs 返回交互索引顺序的用户 ID 列表（只读），用于观测与测试。
func (s *Snapshot) UserIDs() []string {
	return s.userIDs
}

// ProductIDs 返回目录顺序的商品 ID 列表（只读），用于观测与测试。
func (s *Snapshot) ProductIDs() []string {
	return s.prodIDs
}
