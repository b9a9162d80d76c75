package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/fluxgraph/types"
)

func mustNode(t *testing.T, name string, opts ...NodeOption) *Node {
	t.Helper()
	n, err := NewNode(name, &stubAgent{}, opts...)
	require.NoError(t, err)
	return n
}

func mustGraph(t *testing.T, name string, opts ...GraphOption) *Graph {
	t.Helper()
	g, err := NewGraph(name, opts...)
	require.NoError(t, err)
	return g
}

func TestNewGraph_Validation(t *testing.T) {
	g, err := NewGraph("")
	require.Error(t, err)
	assert.Nil(t, g)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))

	g, err = NewGraph("wf", WithDefaultRetry(-1, 0))
	require.Error(t, err)
	assert.Nil(t, g)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))

	g, err = NewGraph("wf", WithDefaultRetry(2, -time.Second))
	require.Error(t, err)
	assert.Nil(t, g)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))
}

func TestGraph_AddNode(t *testing.T) {
	g := mustGraph(t, "wf")

	require.NoError(t, g.AddNode(mustNode(t, "a")))
	require.NoError(t, g.AddNode(mustNode(t, "b")))
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.Nodes())

	n, ok := g.Node("a")
	require.True(t, ok)
	assert.Equal(t, "a", n.Name())

	_, ok = g.Node("ghost")
	assert.False(t, ok)
}

func TestGraph_AddNode_Duplicate(t *testing.T) {
	g := mustGraph(t, "wf")
	original := mustNode(t, "a")
	require.NoError(t, g.AddNode(original))

	err := g.AddNode(mustNode(t, "a"))
	require.Error(t, err)
	assert.Equal(t, types.ErrDuplicateNode, types.GetErrorCode(err))

	// The graph keeps the original registration untouched.
	assert.Equal(t, 1, g.Len())
	n, _ := g.Node("a")
	assert.Same(t, original, n)
}

func TestGraph_AddNode_Nil(t *testing.T) {
	g := mustGraph(t, "wf")
	err := g.AddNode(nil)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfiguration, types.GetErrorCode(err))
}

func TestGraph_Validate_OK(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("a", &stubAgent{}))
	require.NoError(t, g.Add("b", &stubAgent{}, WithDependencies("a")))
	require.NoError(t, g.Add("c", &stubAgent{}, WithBinding("x", FromOutput("b", "y"))))

	assert.NoError(t, g.Validate())
	assert.NoError(t, g.Validate(), "validation is idempotent")
}

func TestGraph_Validate_MissingDependency(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("solo", &stubAgent{}, WithBinding("x", FromOutput("Ghost", "value"))))

	err := g.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingDependency, types.GetErrorCode(err))
	assert.Contains(t, err.Error(), "solo")
	assert.Contains(t, err.Error(), "Ghost")
}

func TestGraph_Validate_MissingExplicitDependency(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("a", &stubAgent{}, WithDependencies("missing")))

	err := g.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingDependency, types.GetErrorCode(err))
}

func TestGraph_Validate_Cycle(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("a", &stubAgent{}, WithDependencies("c")))
	require.NoError(t, g.Add("b", &stubAgent{}, WithDependencies("a")))
	require.NoError(t, g.Add("c", &stubAgent{}, WithDependencies("b")))

	err := g.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrCyclicDependency, types.GetErrorCode(err))
}

func TestGraph_Validate_SelfDependency(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("a", &stubAgent{}, WithDependencies("a")))

	err := g.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrCyclicDependency, types.GetErrorCode(err))
}

func TestGraph_Validate_CacheInvalidatedByAddNode(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("a", &stubAgent{}))
	require.NoError(t, g.Validate())

	require.NoError(t, g.Add("b", &stubAgent{}, WithDependencies("nope")))
	err := g.Validate()
	require.Error(t, err)
	assert.Equal(t, types.ErrMissingDependency, types.GetErrorCode(err))
}

func TestGraph_ExecutionOrder_Linear(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("fetch", &stubAgent{}))
	require.NoError(t, g.Add("double", &stubAgent{}, WithDependencies("fetch")))

	order, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "double"}, order)
}

func TestGraph_ExecutionOrder_InsertionTieBreak(t *testing.T) {
	// All independent: pure insertion order.
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("c", &stubAgent{}))
	require.NoError(t, g.Add("b", &stubAgent{}))
	require.NoError(t, g.Add("a", &stubAgent{}))

	order, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)

	// The first-inserted node waits on a later one: at every step the
	// earliest-inserted ready node runs first.
	g2 := mustGraph(t, "wf2")
	require.NoError(t, g2.Add("a", &stubAgent{}, WithDependencies("c")))
	require.NoError(t, g2.Add("b", &stubAgent{}))
	require.NoError(t, g2.Add("c", &stubAgent{}))

	order, err = g2.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, order)
}

func TestGraph_ExecutionOrder_Diamond(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("root", &stubAgent{}))
	require.NoError(t, g.Add("left", &stubAgent{}, WithDependencies("root")))
	require.NoError(t, g.Add("right", &stubAgent{}, WithDependencies("root")))
	require.NoError(t, g.Add("join", &stubAgent{}, WithDependencies("left", "right")))

	order, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "left", "right", "join"}, order)
}

func TestGraph_ExecutionOrder_Stable(t *testing.T) {
	g := mustGraph(t, "wf")
	require.NoError(t, g.Add("e", &stubAgent{}))
	require.NoError(t, g.Add("d", &stubAgent{}, WithDependencies("e")))
	require.NoError(t, g.Add("c", &stubAgent{}))
	require.NoError(t, g.Add("b", &stubAgent{}, WithDependencies("c", "d")))
	require.NoError(t, g.Add("a", &stubAgent{}, WithDependencies("b")))

	first, err := g.ExecutionOrder()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := g.ExecutionOrder()
		require.NoError(t, err)
		assert.Equal(t, first, again, "execution order must be fully deterministic")
	}
}
