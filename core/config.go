package core

import "time"

// EngineConfig 是引擎相关的配置接口，用于提供默认值。
type EngineConfig interface {
	// DefaultPageSize 返回分页读取的页大小
	DefaultPageSize() int

	// DefaultMaxRows 返回单表单次 refresh 的硬性行数上限
	DefaultMaxRows() int

	// DefaultCandidateTopK 返回召回阶段的候选集大小
	DefaultCandidateTopK() int

	// DefaultMaxUserInteractions 返回单次请求处理的用户交互上限
	DefaultMaxUserInteractions() int

	// DefaultLLMCandidates 返回送入外部模型重排的候选前缀长度
	DefaultLLMCandidates() int

	// DefaultHistoryLimit 返回画像行为摘要的截断长度
	DefaultHistoryLimit() int

	// DefaultClusterLimit 返回画像簇偏好的截断长度
	DefaultClusterLimit() int

	// DefaultLLMTimeout 返回外部模型调用的超时时间
	DefaultLLMTimeout() time.Duration
}

// DefaultEngineConfig 是默认的引擎配置实现。
type DefaultEngineConfig struct{}

func (c *DefaultEngineConfig) DefaultPageSize() int {
	return 1000
}

func (c *DefaultEngineConfig) DefaultMaxRows() int {
	return 50000
}

func (c *DefaultEngineConfig) DefaultCandidateTopK() int {
	return 50
}

func (c *DefaultEngineConfig) DefaultMaxUserInteractions() int {
	return 50
}

func (c *DefaultEngineConfig) DefaultLLMCandidates() int {
	return 20
}

func (c *DefaultEngineConfig) DefaultHistoryLimit() int {
	return 20
}

func (c *DefaultEngineConfig) DefaultClusterLimit() int {
	return 5
}

func (c *DefaultEngineConfig) DefaultLLMTimeout() time.Duration {
	return 30 * time.Second
}
