// Package config 提供配置驱动的引擎与流水线装配。
//
// 与纯 YAML 工厂不同，shoprec 的多数 Node 需要运行期依赖（快照
// 提供者、外部模型客户端），这些无法从配置文件里来；因此工厂在
// 创建时注入 Deps，各 builder 闭包持有依赖，配置只描述结构与参数。
package config

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/conv"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// Deps 是 Node 构建所需的运行期依赖。
type Deps struct {
	Snapshots recall.SnapshotProvider
	Chat      core.ChatService
	Logger    *slog.Logger
}

// NewFactory 返回注册了全部内置 Node 的工厂。
//
// 支持的类型：
//   - recall.itemcf / recall.popular / recall.chain
//   - filter
//   - rerank.llm / rerank.dedup / rerank.topn
func NewFactory(deps Deps) *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register("recall.itemcf", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildItemCF(deps, cfg), nil
	})
	f.Register("recall.popular", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildPopular(deps, cfg), nil
	})
	f.Register("recall.chain", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildChain(deps, cfg)
	})
	f.Register("filter", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFilter(cfg)
	})
	f.Register("rerank.llm", func(cfg map[string]interface{}) (pipeline.Node, error) {
		node := &rerank.LLMNode{
			Chat:          deps.Chat,
			Snapshots:     rerankProvider(deps),
			Logger:        deps.Logger,
			MaxCandidates: conv.ConfigGetInt(cfg, "max_candidates", 0),
		}
		if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
			node.Timeout = time.Duration(sec) * time.Second
		}
		return node, nil
	})
	f.Register("rerank.dedup", func(map[string]interface{}) (pipeline.Node, error) {
		return &rerank.DedupNode{}, nil
	})
	f.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
	})

	return f
}

func buildItemCF(deps Deps, cfg map[string]interface{}) *recall.ItemCF {
	return &recall.ItemCF{
		Snapshots:        deps.Snapshots,
		TopK:             conv.ConfigGetInt(cfg, "top_k", 0),
		MaxInteractions:  conv.ConfigGetInt(cfg, "max_interactions", 0),
		PrefixMultiplier: conv.ConfigGetInt(cfg, "prefix_multiplier", 0),
	}
}

func buildPopular(deps Deps, cfg map[string]interface{}) *recall.Popular {
	return &recall.Popular{
		Snapshots:        deps.Snapshots,
		TopK:             conv.ConfigGetInt(cfg, "top_k", 0),
		PlaceholderScore: conv.ConfigGetFloat(cfg, "placeholder_score", 0),
	}
}

func buildChain(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		switch sourceType := conv.ConfigGet[string](sourceMap, "type", ""); sourceType {
		case "itemcf":
			sources = append(sources, buildItemCF(deps, sourceMap))
		case "popular":
			sources = append(sources, buildPopular(deps, sourceMap))
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	return &recall.Chain{Sources: sources}, nil
}

func buildFilter(cfg map[string]interface{}) (pipeline.Node, error) {
	filters := make([]filter.Filter, 0, 2)
	if expr := conv.ConfigGet[string](cfg, "expr", ""); expr != "" {
		filters = append(filters, &filter.Expr{Expression: expr})
	}
	if raw, ok := cfg["blocklist"].([]interface{}); ok {
		ids := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := conv.ToString(v); ok {
				ids = append(ids, s)
			}
		}
		if len(ids) > 0 {
			filters = append(filters, filter.NewBlocklist(ids))
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// rerankProvider 把 recall 的快照提供者适配为 rerank 侧的同构接口。
func rerankProvider(deps Deps) rerank.SnapshotProvider {
	if deps.Snapshots == nil {
		return nil
	}
	return deps.Snapshots
}

// SupportedTypes 返回工厂支持的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	types := []string{
		"recall.itemcf", "recall.popular", "recall.chain",
		"filter",
		"rerank.llm", "rerank.dedup", "rerank.topn",
	}
	sort.Strings(types)
	return types
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均受支持。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	supported := make(map[string]bool)
	for _, t := range SupportedTypes() {
		supported[t] = true
	}
	for _, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			continue
		}
		if !supported[nc.Type] {
			return fmt.Errorf("unsupported node type %q (supported: %v)", nc.Type, SupportedTypes())
		}
	}
	return nil
}
