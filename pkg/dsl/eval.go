package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("meta", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是候选过滤 DSL 解释器，使用 CEL (Common Expression Language) 实现。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "popular" / meta.brand != "X"
//   - 数值：item.score > 0.7
//   - 逻辑：meta.main_category == "electronics" && item.score > 0.5
//   - 包含：meta.name.contains("Pro")
//
// 示例：
//   - `meta.main_category != "tv, audio & cameras"` → 排除某个主类目
//   - `label.recall_source.contains("popular")` → 只命中 fallback 召回
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
	env  *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		item: item,
		rctx: rctx,
		env:  env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 注意：has(label.key) 可以用 label.key != null 替代
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		// 对于不存在的 key，CEL 会返回错误
		// 用户应该使用 label.key != null 来检查存在性，而不是直接访问
		return false, fmt.Errorf("eval error: %v", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	labels := make(map[string]interface{})
	labelAccessor := make(map[string]interface{})
	for k, v := range e.item.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
		// label.recall_source 直接返回 value，方便书写
		labelAccessor[k] = v.Value
	}

	// meta 展开为 map，表达式里用 meta.brand / meta.main_category 访问
	meta := map[string]interface{}{}
	if m := e.item.Meta; m != nil {
		meta = map[string]interface{}{
			"name":          m.Name,
			"brand":         m.Brand,
			"main_category": m.MainCategory,
			"sub_category":  m.SubCategory,
		}
		if m.ClusterID != nil {
			meta["cluster_id"] = *m.ClusterID
		}
	}

	item := map[string]interface{}{
		"id":     e.item.ID,
		"score":  e.item.Score,
		"labels": labels,
	}

	rctx := map[string]interface{}{}
	if e.rctx != nil {
		rctx = map[string]interface{}{
			"user_id": e.rctx.UserID,
			"scene":   e.rctx.Scene,
			"params":  e.rctx.Params,
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labelAccessor,
		"meta":  meta,
		"rctx":  rctx,
	}
}
