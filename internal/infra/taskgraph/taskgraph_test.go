package taskgraph

import (
	"context"
	"testing"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/executive"
)

func TestGraph_SequentialEdgesFireInOrder(t *testing.T) {
	exec := executive.NewExecutive(nil)
	g := New(exec)
	gctx := domain.NewGraphContext()

	v0 := g.AddVertex(domain.RolePre)
	v1 := g.AddVertex(domain.RolePost)
	v2 := g.AddVertex(domain.RolePost)

	var order []string
	a := g.AddEdge("a", v0, v1, func(_ domain.EventController, _ *domain.GraphContext) bool {
		order = append(order, "a")
		return true
	})
	b := g.AddEdge("b", v1, v2, func(_ domain.EventController, _ *domain.GraphContext) bool {
		order = append(order, "b")
		return true
	})
	_ = a
	_ = b

	if err := g.StartEdge(a, gctx); err != nil {
		t.Fatalf("StartEdge: %v", err)
	}
	if err := exec.Run(context.Background(), gctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", order)
	}
}

func TestGraph_CostartFiresAlongside(t *testing.T) {
	exec := executive.NewExecutive(nil)
	g := New(exec)
	gctx := domain.NewGraphContext()

	v0 := g.AddVertex(domain.RolePre)
	v1 := g.AddVertex(domain.RolePost)
	v2 := g.AddVertex(domain.RolePost)

	var ran []string
	a := g.AddEdge("a", v0, v1, func(_ domain.EventController, _ *domain.GraphContext) bool {
		ran = append(ran, "a")
		return true
	})
	c := g.AddEdge("c", v0, v2, func(_ domain.EventController, _ *domain.GraphContext) bool {
		ran = append(ran, "c")
		return true
	})
	g.AddCostart(a, c)

	if err := g.StartEdge(a, gctx); err != nil {
		t.Fatalf("StartEdge: %v", err)
	}
	if err := exec.Run(context.Background(), gctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(ran) != 2 {
		t.Fatalf("ran = %v, want both a and c", ran)
	}
}

func TestGraph_ReentrantStartBeforeSignalerConsumedFails(t *testing.T) {
	exec := executive.NewExecutive(nil)
	g := New(exec)
	gctx := domain.NewGraphContext()

	v0 := g.AddVertex(domain.RolePre)
	v1 := g.AddVertex(domain.RolePost)
	a := g.AddEdge("a", v0, v1, func(_ domain.EventController, _ *domain.GraphContext) bool { return true })

	if err := g.StartEdge(a, gctx); err != nil {
		t.Fatalf("first StartEdge: %v", err)
	}
	// Re-entering before the executive has dispatched (and thus signaled
	// completion for) the first run must fail.
	if err := g.StartEdge(a, gctx); err == nil {
		t.Fatal("expected reentrant StartEdge to fail")
	}
}

func TestGraph_FailingProcessorMarksSelfInvalidAndRecordsError(t *testing.T) {
	exec := executive.NewExecutive(nil)
	g := New(exec)
	gctx := domain.NewGraphContext()

	v0 := g.AddVertex(domain.RolePre)
	v1 := g.AddVertex(domain.RolePost)
	a := g.AddEdge("a", v0, v1, func(_ domain.EventController, _ *domain.GraphContext) bool {
		panic("boom")
	})

	if err := g.StartEdge(a, gctx); err != nil {
		t.Fatalf("StartEdge: %v", err)
	}
	if err := exec.Run(context.Background(), gctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	edge, _ := g.Edge(a)
	if edge.SelfValid {
		t.Fatal("edge should be self-invalid after a panicking processor")
	}
	if len(g.Errors()) != 1 {
		t.Fatalf("Errors() = %v, want 1 recorded task error", g.Errors())
	}
}
