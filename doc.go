// Package shoprec 是一个电商混合推荐引擎（Hybrid Recommender for Shop）。
//
// 设计要点：
// - Snapshot-first: 所有派生数据（交互矩阵、相似度索引、元数据缓存）由一次
//   refresh 整体构建为不可变快照，读请求只针对单一快照做纯函数计算
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank → TopN）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - Degrade-first: 任何 I/O / 解析 / 外部模型失败都降级为空结果或 CF-only，
//   绝不把内部错误抛给 serving 层
package shoprec

import "github.com/rushteam/shoprec/pipeline"

// 轻量 facade：便于用户直接 import "shoprec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
