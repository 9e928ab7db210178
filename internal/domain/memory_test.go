package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidateMemory(t *testing.T) {
	memory := NewCandidateMemory("c1", map[string]any{"stage": "screening"})

	root := memory.Root()
	require.NotNil(t, root)
	assert.Equal(t, "c1", memory.CandidateID)
	assert.Equal(t, 0, root.Level)
	assert.Empty(t, root.ParentID)
	assert.Equal(t, "screening", root.Data["stage"])
	assert.Len(t, memory.Nodes, 1)
	assert.Equal(t, SchemaVersion, memory.Version)
	assert.False(t, root.Timestamp.IsZero())

	require.NoError(t, memory.Validate())
}

func TestAddNode(t *testing.T) {
	t.Run("LevelIsParentPlusOne", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)

		child, err := memory.AddNode(memory.RootNodeID, map[string]any{"q": 1}, nil, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, child.Level)
		assert.Equal(t, memory.RootNodeID, child.ParentID)

		grandchild, err := memory.AddNode(child.NodeID, nil, nil, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, grandchild.Level)

		assert.Equal(t, []string{child.NodeID}, memory.Root().Children)
		assert.Equal(t, []string{grandchild.NodeID}, child.Children)
		require.NoError(t, memory.Validate())
	})

	t.Run("ChildrenKeepInsertionOrder", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)

		first, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		second, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		third, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)

		assert.Equal(t, []string{first.NodeID, second.NodeID, third.NodeID}, memory.Root().Children)
	})

	t.Run("UnknownParent", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)

		node, err := memory.AddNode("no-such-node", nil, nil, 10)
		require.ErrorIs(t, err, ErrParentNotFound)
		assert.Nil(t, node)
		assert.Len(t, memory.Nodes, 1)
	})

	t.Run("DepthBound", func(t *testing.T) {
		// With max depth 5, chaining each new node under the previous
		// one succeeds exactly 5 times; the 6th attempt is rejected
		// without mutating the tree.
		memory := NewCandidateMemory("c1", nil)

		parentID := memory.RootNodeID
		for i := 1; i <= 5; i++ {
			node, err := memory.AddNode(parentID, nil, nil, 5)
			require.NoError(t, err, "append %d should fit within the depth bound", i)
			assert.Equal(t, i, node.Level)
			parentID = node.NodeID
		}

		before := len(memory.Nodes)
		node, err := memory.AddNode(parentID, nil, nil, 5)
		require.ErrorIs(t, err, ErrDepthExceeded)
		assert.Nil(t, node)
		assert.Len(t, memory.Nodes, before)

		deepest, ok := memory.Node(parentID)
		require.True(t, ok)
		assert.Empty(t, deepest.Children)
		require.NoError(t, memory.Validate())
	})
}

func TestUpdateNode(t *testing.T) {
	t.Run("ReplacesDataInPlace", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		child, err := memory.AddNode(memory.RootNodeID, map[string]any{"score": 1.0}, nil, 10)
		require.NoError(t, err)

		ok := memory.UpdateNode(child.NodeID, map[string]any{"score": 2.5}, map[string]any{"kind": "assessment"})
		require.True(t, ok)

		updated, found := memory.Node(child.NodeID)
		require.True(t, found)
		assert.Equal(t, 2.5, updated.Data["score"])
		assert.Equal(t, "assessment", updated.Metadata["kind"])
		// Identity and position are untouched.
		assert.Equal(t, child.NodeID, updated.NodeID)
		assert.Equal(t, memory.RootNodeID, updated.ParentID)
		assert.Equal(t, 1, updated.Level)
	})

	t.Run("NilArgumentLeavesMappingUntouched", func(t *testing.T) {
		memory := NewCandidateMemory("c1", map[string]any{"keep": true})

		ok := memory.UpdateNode(memory.RootNodeID, nil, map[string]any{"note": "only metadata"})
		require.True(t, ok)
		assert.Equal(t, true, memory.Root().Data["keep"])
		assert.Equal(t, "only metadata", memory.Root().Metadata["note"])
	})

	t.Run("UnknownNode", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		assert.False(t, memory.UpdateNode("no-such-node", map[string]any{}, nil))
	})
}

func TestPath(t *testing.T) {
	t.Run("RootToNode", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		a, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		b, err := memory.AddNode(a.NodeID, nil, nil, 10)
		require.NoError(t, err)

		path := memory.Path(b.NodeID)
		require.Len(t, path, b.Level+1)
		assert.Equal(t, memory.RootNodeID, path[0].NodeID)
		assert.Equal(t, a.NodeID, path[1].NodeID)
		assert.Equal(t, b.NodeID, path[2].NodeID)
	})

	t.Run("RootPathIsSingleElement", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		path := memory.Path(memory.RootNodeID)
		require.Len(t, path, 1)
		assert.Equal(t, memory.RootNodeID, path[0].NodeID)
	})

	t.Run("UnknownNode", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		assert.Empty(t, memory.Path("no-such-node"))
	})
}

func TestCodecRoundTrip(t *testing.T) {
	memory := NewCandidateMemory("c1", map[string]any{"stage": "onsite"})
	a, err := memory.AddNode(memory.RootNodeID, map[string]any{"question": "q1"}, map[string]any{"kind": "assessment"}, 10)
	require.NoError(t, err)
	_, err = memory.AddNode(a.NodeID, map[string]any{"answer": "a1"}, nil, 10)
	require.NoError(t, err)

	b, err := Marshal(memory)
	require.NoError(t, err)

	decoded, err := Unmarshal(b)
	require.NoError(t, err)

	assert.Equal(t, memory.CandidateID, decoded.CandidateID)
	assert.Equal(t, memory.RootNodeID, decoded.RootNodeID)
	assert.Equal(t, memory.Version, decoded.Version)
	require.Len(t, decoded.Nodes, len(memory.Nodes))
	for id, node := range memory.Nodes {
		got, ok := decoded.Node(id)
		require.True(t, ok, "node %s missing after round trip", id)
		assert.Equal(t, node.ParentID, got.ParentID)
		assert.Equal(t, node.Level, got.Level)
		assert.Equal(t, node.Children, got.Children)
	}
}

func TestUnmarshalRejectsCorruptDocuments(t *testing.T) {
	t.Run("IncompatibleVersion", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		memory.Version = "99.0"
		b, err := Marshal(memory)
		require.NoError(t, err)

		_, err = Unmarshal(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "incompatible document version")
	})

	t.Run("MissingParentLink", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		child, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		child.ParentID = "no-such-node"
		b, err := Marshal(memory)
		require.NoError(t, err)

		_, err = Unmarshal(b)
		require.Error(t, err)
	})

	t.Run("NotJSON", func(t *testing.T) {
		_, err := Unmarshal([]byte("not a document"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("WrongLevel", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		child, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		child.Level = 7
		require.Error(t, memory.Validate())
	})

	t.Run("DuplicateChildEntry", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		child, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		memory.Root().Children = append(memory.Root().Children, child.NodeID)
		require.Error(t, memory.Validate())
	})

	t.Run("OrphanNode", func(t *testing.T) {
		memory := NewCandidateMemory("c1", nil)
		child, err := memory.AddNode(memory.RootNodeID, nil, nil, 10)
		require.NoError(t, err)
		// Detach from the parent's children while keeping the node in
		// the map: unreachable from the root.
		memory.Root().Children = nil
		_ = child
		require.Error(t, memory.Validate())
	})
}
