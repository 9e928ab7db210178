// Package domain contains the candidate memory model: a per-candidate
// tree of memory nodes kept as a flat node map with parent/child links
// by identifier.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion tags serialized documents. Readers reject documents
// from a different major version instead of guessing at their layout.
const SchemaVersion = "1.0"

var (
	// ErrParentNotFound is returned when a node append names a parent
	// that does not exist in the tree.
	ErrParentNotFound = errors.New("parent node not found")

	// ErrDepthExceeded is returned when a node append would push the
	// tree past the configured maximum depth.
	ErrDepthExceeded = errors.New("maximum tree depth exceeded")
)

// MemoryNode is the atomic persisted unit: one labeled point in a
// candidate's tree holding a caller-supplied payload.
type MemoryNode struct {
	NodeID    string         `json:"node_id"`
	ParentID  string         `json:"parent_id,omitempty"` // empty only for the root
	Level     int            `json:"level"`
	Data      map[string]any `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Children  []string       `json:"children,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CandidateMemory is the aggregate: one candidate's full node set plus
// the denormalized root pointer, last-updated timestamp and format
// version. Version is a compatibility guard, not a lock token.
type CandidateMemory struct {
	CandidateID string                 `json:"candidate_id"`
	RootNodeID  string                 `json:"root_node_id"`
	Nodes       map[string]*MemoryNode `json:"nodes"`
	LastUpdated time.Time              `json:"last_updated"`
	Version     string                 `json:"version"`
}

// NewCandidateMemory creates a fresh aggregate with a single root node
// at level 0 carrying initialData.
func NewCandidateMemory(candidateID string, initialData map[string]any) *CandidateMemory {
	if initialData == nil {
		initialData = map[string]any{}
	}
	now := time.Now().UTC()
	root := &MemoryNode{
		NodeID:    uuid.New().String(),
		Level:     0,
		Data:      initialData,
		Timestamp: now,
	}
	return &CandidateMemory{
		CandidateID: candidateID,
		RootNodeID:  root.NodeID,
		Nodes:       map[string]*MemoryNode{root.NodeID: root},
		LastUpdated: now,
		Version:     SchemaVersion,
	}
}

// Root returns the root node.
func (m *CandidateMemory) Root() *MemoryNode {
	return m.Nodes[m.RootNodeID]
}

// Node looks up a node by identifier.
func (m *CandidateMemory) Node(nodeID string) (*MemoryNode, bool) {
	n, ok := m.Nodes[nodeID]
	return n, ok
}

// AddNode appends a new child under parentID. The new node's level is
// parent.Level+1; the append is rejected without mutating the tree when
// the parent is unknown or the resulting level would exceed maxDepth.
func (m *CandidateMemory) AddNode(parentID string, data, metadata map[string]any, maxDepth int) (*MemoryNode, error) {
	parent, ok := m.Nodes[parentID]
	if !ok {
		return nil, ErrParentNotFound
	}
	level := parent.Level + 1
	if level > maxDepth {
		return nil, ErrDepthExceeded
	}
	if data == nil {
		data = map[string]any{}
	}
	node := &MemoryNode{
		NodeID:    uuid.New().String(),
		ParentID:  parentID,
		Level:     level,
		Data:      data,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
	m.Nodes[node.NodeID] = node
	parent.Children = append(parent.Children, node.NodeID)
	m.touch()
	return node, nil
}

// UpdateNode replaces a node's data and/or metadata in place. A nil
// argument leaves that mapping untouched. Identity, parent, level and
// children are never modified. Returns false when the node is unknown.
func (m *CandidateMemory) UpdateNode(nodeID string, data, metadata map[string]any) bool {
	node, ok := m.Nodes[nodeID]
	if !ok {
		return false
	}
	if data != nil {
		node.Data = data
	}
	if metadata != nil {
		node.Metadata = metadata
	}
	m.touch()
	return true
}

// Path walks parent links from nodeID up to the root and returns the
// nodes ordered root first. The result has node.Level+1 elements; it is
// empty when nodeID is unknown or the chain is broken.
func (m *CandidateMemory) Path(nodeID string) []*MemoryNode {
	node, ok := m.Nodes[nodeID]
	if !ok {
		return nil
	}
	var reversed []*MemoryNode
	for node != nil {
		reversed = append(reversed, node)
		if node.ParentID == "" {
			break
		}
		parent, ok := m.Nodes[node.ParentID]
		if !ok {
			return nil
		}
		node = parent
	}
	path := make([]*MemoryNode, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path
}

func (m *CandidateMemory) touch() {
	m.LastUpdated = time.Now().UTC()
}
