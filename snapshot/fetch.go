package snapshot

import (
	"context"
	"log/slog"
)

// pageFunc 是某条记录流的一页读取函数。
type pageFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// fetchAll 对单条记录流做有界分页读取。
//
// 终止条件：
//   - 一页返回行数小于 pageSize（流已读尽）
//   - 累计行数达到 maxRows 硬上限（记日志，正常结束）
//   - 某页读取失败：保留已取回的行，记 Warn 日志并返回 failed=true，
//     不让单流失败拖垮整个 refresh（PartialFetch 语义）
func fetchAll[T any](
	ctx context.Context,
	logger *slog.Logger,
	stream string,
	page pageFunc[T],
	pageSize, maxRows int,
) (rows []T, failed bool) {
	offset := 0
	for {
		limit := pageSize
		if maxRows > 0 && offset+limit > maxRows {
			limit = maxRows - offset
		}
		if limit <= 0 {
			logger.Info("fetch reached row cap", "stream", stream, "rows", len(rows))
			return rows, false
		}

		batch, err := page(ctx, offset, limit)
		if err != nil {
			logger.Warn("page fetch failed, keeping partial rows",
				"stream", stream, "offset", offset, "rows", len(rows), "error", err)
			return rows, true
		}

		rows = append(rows, batch...)
		if len(batch) < limit {
			return rows, false
		}
		offset += len(batch)
	}
}
