// Package store 包含 core.RecordStore 的基础设施实现。
// 接口定义在 core 包（依赖倒置：领域层定义接口，基础设施层实现）。
package store

import (
	"context"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryRecordStore 是内存实现的 RecordStore，适合原型与测试。
//
// 分页语义与生产实现一致：返回 [offset, offset+limit) 切片，
// 返回条数小于 limit 表示流已读尽。
type MemoryRecordStore struct {
	mu        sync.RWMutex
	carts     []core.CartEvent
	favorites []core.FavoriteEvent
	products  []core.Product
	clusters  []core.Cluster

	// FailAfter 按流名注入分页失败（offset 达到该值后报错），
	// 用于测试 PartialFetch 路径；零值表示不注入
	FailAfter map[string]int
}

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{}
}

func (m *MemoryRecordStore) Name() string { return "memory" }

// SetCartEvents 整体替换购物车事件流。
func (m *MemoryRecordStore) SetCartEvents(events []core.CartEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = events
}

// SetFavoriteEvents 整体替换收藏事件流。
func (m *MemoryRecordStore) SetFavoriteEvents(events []core.FavoriteEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites = events
}

// SetProducts 整体替换商品目录。
func (m *MemoryRecordStore) SetProducts(products []core.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
}

// SetClusters 整体替换簇目录。
func (m *MemoryRecordStore) SetClusters(clusters []core.Cluster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clusters = clusters
}

func (m *MemoryRecordStore) CartEvents(_ context.Context, offset, limit int) ([]core.CartEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.maybeFail("cart", offset); err != nil {
		return nil, err
	}
	return page(m.carts, offset, limit), nil
}

func (m *MemoryRecordStore) FavoriteEvents(_ context.Context, offset, limit int) ([]core.FavoriteEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.maybeFail("favorite", offset); err != nil {
		return nil, err
	}
	return page(m.favorites, offset, limit), nil
}

func (m *MemoryRecordStore) Products(_ context.Context, offset, limit int) ([]core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.maybeFail("product", offset); err != nil {
		return nil, err
	}
	return page(m.products, offset, limit), nil
}

func (m *MemoryRecordStore) Clusters(_ context.Context, offset, limit int) ([]core.Cluster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.maybeFail("cluster", offset); err != nil {
		return nil, err
	}
	return page(m.clusters, offset, limit), nil
}

func (m *MemoryRecordStore) Close() error { return nil }

func (m *MemoryRecordStore) maybeFail(stream string, offset int) error {
	if m.FailAfter == nil {
		return nil
	}
	at, ok := m.FailAfter[stream]
	if !ok || offset < at {
		return nil
	}
	return core.ErrStoreUnavailable
}

func page[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) || limit <= 0 {
		return nil
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	out := make([]T, end-offset)
	copy(out, rows[offset:end])
	return out
}
