package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/engine"
	"github.com/rushteam/shoprec/service"
	"github.com/rushteam/shoprec/store"
)

// EngineFile 是引擎的 YAML 配置。
//
// 示例：
//
//	store:
//	  backend: redis
//	  addr: 127.0.0.1:6379
//	  db: 0
//	llm:
//	  base_url: https://api.openai.com/v1
//	  model: gpt-4o-mini
//	engine:
//	  page_size: 1000
//	  max_rows: 50000
//	  candidate_top_k: 50
//	  filter_expr: 'meta.main_category != "excluded"'
type EngineFile struct {
	Store struct {
		Backend   string `yaml:"backend"` // memory / redis
		Addr      string `yaml:"addr"`
		DB        int    `yaml:"db"`
		KeyPrefix string `yaml:"key_prefix"`
	} `yaml:"store"`

	LLM struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"` // 为空时回退到 OPENAI_API_KEY 环境变量
		Model   string `yaml:"model"`
		Timeout int    `yaml:"timeout"` // 秒
	} `yaml:"llm"`

	Engine struct {
		PageSize            int      `yaml:"page_size"`
		MaxRows             int      `yaml:"max_rows"`
		CandidateTopK       int      `yaml:"candidate_top_k"`
		MaxUserInteractions int      `yaml:"max_user_interactions"`
		LLMCandidates       int      `yaml:"llm_candidates"`
		HistoryLimit        int      `yaml:"history_limit"`
		ClusterLimit        int      `yaml:"cluster_limit"`
		FilterExpr          string   `yaml:"filter_expr"`
		Blocklist           []string `yaml:"blocklist"`
	} `yaml:"engine"`
}

// LoadEngineFile 从 YAML 文件加载引擎配置。
func LoadEngineFile(path string) (*EngineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var cfg EngineFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// BuildEngine 按配置装配引擎：构造记录存储、补全客户端与引擎门面。
// 不触发任何快照构建。
func (f *EngineFile) BuildEngine(logger *slog.Logger) (*engine.Engine, error) {
	recordStore, err := f.buildStore()
	if err != nil {
		return nil, err
	}

	apiKey := f.LLM.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	chat := service.NewOpenAIChat(&service.OpenAIConfig{
		BaseURL: f.LLM.BaseURL,
		APIKey:  apiKey,
		Model:   f.LLM.Model,
		Timeout: time.Duration(f.LLM.Timeout) * time.Second,
	})

	return engine.New(engine.Options{
		Store:               recordStore,
		Chat:                chat,
		Logger:              logger,
		PageSize:            f.Engine.PageSize,
		MaxRows:             f.Engine.MaxRows,
		CandidateTopK:       f.Engine.CandidateTopK,
		MaxUserInteractions: f.Engine.MaxUserInteractions,
		LLMCandidates:       f.Engine.LLMCandidates,
		LLMTimeout:          time.Duration(f.LLM.Timeout) * time.Second,
		HistoryLimit:        f.Engine.HistoryLimit,
		ClusterLimit:        f.Engine.ClusterLimit,
		FilterExpression:    f.Engine.FilterExpr,
		Blocklist:           f.Engine.Blocklist,
	}), nil
}

func (f *EngineFile) buildStore() (core.RecordStore, error) {
	switch f.Store.Backend {
	case "", "memory":
		return store.NewMemoryRecordStore(), nil
	case "redis":
		rs, err := store.NewRedisRecordStore(f.Store.Addr, f.Store.DB)
		if err != nil {
			return nil, fmt.Errorf("build redis store: %w", err)
		}
		return rs.WithKeyPrefix(f.Store.KeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", f.Store.Backend)
	}
}
