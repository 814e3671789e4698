package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rushteam/shoprec/core"
)

// appendNode 往候选列表追加一个固定物品。
type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "test.append." + n.id }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipelineRunsNodesInOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&appendNode{id: "p1"},
		&appendNode{id: "p2"},
	}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != "p1" || out[1].ID != "p2" {
		t.Fatalf("got %v, want [p1, p2]", out)
	}
}

func TestPipelineStopsOnNodeError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&appendNode{id: "p1"},
		&appendNode{id: "p2", err: boom},
		&appendNode{id: "p3"},
	}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestNodeFactory(t *testing.T) {
	factory := NewNodeFactory()
	factory.Register("test.append", func(cfg map[string]interface{}) (Node, error) {
		id, _ := cfg["id"].(string)
		return &appendNode{id: id}, nil
	})

	node, err := factory.Build("test.append", map[string]interface{}{"id": "p9"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if node.Name() != "test.append.p9" {
		t.Errorf("node name = %s", node.Name())
	}

	if _, err := factory.Build("unknown.node", nil); err == nil {
		t.Error("unknown node type should fail")
	}
}
