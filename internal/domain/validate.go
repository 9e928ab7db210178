package domain

import (
	"fmt"
	"strings"
)

// Validate re-checks the structural invariants of the aggregate. It is
// run on every deserialization path so a corrupt or hand-edited
// document is rejected instead of served as an incoherent tree.
func (m *CandidateMemory) Validate() error {
	if m.CandidateID == "" {
		return fmt.Errorf("candidate memory has empty candidate_id")
	}
	if !compatibleVersion(m.Version) {
		return fmt.Errorf("incompatible document version %q (want major %s)", m.Version, majorOf(SchemaVersion))
	}

	root, ok := m.Nodes[m.RootNodeID]
	if !ok {
		return fmt.Errorf("root node %s missing from node map", m.RootNodeID)
	}
	if root.Level != 0 {
		return fmt.Errorf("root node %s has level %d, want 0", root.NodeID, root.Level)
	}
	if root.ParentID != "" {
		return fmt.Errorf("root node %s has a parent", root.NodeID)
	}

	for id, node := range m.Nodes {
		if id != node.NodeID {
			return fmt.Errorf("node map key %s does not match node_id %s", id, node.NodeID)
		}
		if node.NodeID == m.RootNodeID {
			continue
		}
		parent, ok := m.Nodes[node.ParentID]
		if !ok {
			return fmt.Errorf("node %s references missing parent %s", node.NodeID, node.ParentID)
		}
		if node.Level != parent.Level+1 {
			return fmt.Errorf("node %s has level %d, want parent level + 1 = %d", node.NodeID, node.Level, parent.Level+1)
		}
		if occurrences(parent.Children, node.NodeID) != 1 {
			return fmt.Errorf("node %s appears %d times in children of parent %s, want exactly once",
				node.NodeID, occurrences(parent.Children, node.NodeID), parent.NodeID)
		}
	}

	// Children links must point at existing nodes that link back, and
	// every node must be reachable from the root exactly once (a tree,
	// not a DAG).
	seen := map[string]bool{}
	stack := []string{m.RootNodeID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return fmt.Errorf("node %s is reachable from more than one parent", id)
		}
		seen[id] = true
		node := m.Nodes[id]
		for _, childID := range node.Children {
			child, ok := m.Nodes[childID]
			if !ok {
				return fmt.Errorf("node %s lists missing child %s", id, childID)
			}
			if child.ParentID != id {
				return fmt.Errorf("child %s of node %s points back at %s", childID, id, child.ParentID)
			}
			stack = append(stack, childID)
		}
	}
	if len(seen) != len(m.Nodes) {
		return fmt.Errorf("%d of %d nodes are unreachable from the root", len(m.Nodes)-len(seen), len(m.Nodes))
	}
	return nil
}

func occurrences(ids []string, id string) int {
	count := 0
	for _, v := range ids {
		if v == id {
			count++
		}
	}
	return count
}

func compatibleVersion(version string) bool {
	return majorOf(version) == majorOf(SchemaVersion)
}

func majorOf(version string) string {
	if i := strings.IndexByte(version, '.'); i >= 0 {
		return version[:i]
	}
	return version
}
