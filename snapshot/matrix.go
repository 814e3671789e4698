package snapshot

import (
	"math"
	"sort"
)

// Interaction 是用户-商品矩阵中某个用户行的一个非零元。
type Interaction struct {
	ProductID string
	Score     float64
}

// Neighbor 是物品相似度矩阵中某个商品行的一个非零元。
type Neighbor struct {
	ProductID string
	Sim       float64
}

// rowEntry 是矩阵构建期间的 (列索引, 值) 元组。
type rowEntry struct {
	idx   int
	score float64
}

// buildSimilarity 对稀疏用户-商品矩阵按列（商品向量）计算两两余弦相似度。
//
// 实现方式是标准的稀疏共现累加：逐个用户行，对行内每对非零列
// 累加点积，最后除以列向量模长。只保留正相似度；对角线（自相似）
// 保留为 1，由查询方在引用时自行跳过。
//
// 返回 simRows[p] = 商品 p 的邻居列表，按相似度降序（同分按 ID 升序，
// 保证排序结果确定）。
func buildSimilarity(userRows [][]rowEntry, numProducts int, prodIDs []string) [][]Neighbor {
	norms := make([]float64, numProducts)
	dots := make([]map[int]float64, numProducts)

	for _, row := range userRows {
		for _, e := range row {
			norms[e.idx] += e.score * e.score
		}
		// 行内两两共现累加。注意单个用户行很长时这里是 O(n^2)，
		// 上游聚合已经把同一 (user, product) 合并为一行，实际行长
		// 等于该用户交互过的不同商品数。
		for i := 0; i < len(row); i++ {
			for j := i + 1; j < len(row); j++ {
				a, b := row[i], row[j]
				if dots[a.idx] == nil {
					dots[a.idx] = make(map[int]float64)
				}
				if dots[b.idx] == nil {
					dots[b.idx] = make(map[int]float64)
				}
				prod := a.score * b.score
				dots[a.idx][b.idx] += prod
				dots[b.idx][a.idx] += prod
			}
		}
	}

	simRows := make([][]Neighbor, numProducts)
	for p := 0; p < numProducts; p++ {
		if norms[p] == 0 {
			continue
		}
		row := make([]Neighbor, 0, len(dots[p])+1)
		// 自相似度恒为 1，保留在行内，查询方负责跳过
		row = append(row, Neighbor{ProductID: prodIDs[p], Sim: 1.0})
		for q, dot := range dots[p] {
			if norms[q] == 0 {
				continue
			}
			sim := dot / (math.Sqrt(norms[p]) * math.Sqrt(norms[q]))
			if sim <= 0 {
				continue
			}
			row = append(row, Neighbor{ProductID: prodIDs[q], Sim: sim})
		}
		sort.Slice(row, func(i, j int) bool {
			if row[i].Sim != row[j].Sim {
				return row[i].Sim > row[j].Sim
			}
			return row[i].ProductID < row[j].ProductID
		})
		simRows[p] = row
	}
	return simRows
}
