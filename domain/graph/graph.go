package graph

import (
	"errors"
	"fmt"

	"github.com/NickG503/World-Simulator/domain/state"
)

// Errors returned by graph operations.
var (
	ErrNodeNotFound = errors.New("graph: node not found")
	ErrNoRoot       = errors.New("graph: no root node")
)

// Graph is a layered DAG of simulation nodes. Node ids are assigned
// sequentially ("state0", "state1", ...) in creation order; the root is
// always "state0".
type Graph struct {
	nodes map[string]*Node
	order []string
	next  int
}

// New creates a graph with the given root snapshot as node state0.
func New(root state.Snapshot) *Graph {
	g := &Graph{nodes: make(map[string]*Node)}
	g.add(&Node{
		Snapshot: root,
		Status:   StatusInitial,
		Depth:    0,
	})
	return g
}

// add assigns the next sequential id and registers the node.
func (g *Graph) add(n *Node) *Node {
	n.ID = fmt.Sprintf("state%d", g.next)
	g.next++
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n
}

// NewNode creates a child node with one incoming edge from parent.
func (g *Graph) NewNode(parent string, snap state.Snapshot, act string, status Status, edge Edge) (*Node, error) {
	p, ok := g.nodes[parent]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	edge.Parent = parent
	n := g.add(&Node{
		Snapshot: snap,
		Action:   act,
		Status:   status,
		Depth:    p.Depth + 1,
		Edges:    []Edge{edge},
	})
	p.Children = append(p.Children, n.ID)
	return n, nil
}

// AddEdge links an additional parent to an existing node, merging the
// paths. The node keeps its original depth.
func (g *Graph) AddEdge(node, parent string, edge Edge) error {
	n, ok := g.nodes[node]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, node)
	}
	p, ok := g.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parent)
	}
	edge.Parent = parent
	n.Edges = append(n.Edges, edge)
	p.Children = append(p.Children, n.ID)
	return nil
}

// Root returns the root node.
func (g *Graph) Root() *Node {
	return g.nodes["state0"]
}

// Node returns a node by id.
func (g *Graph) Node(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return n, nil
}

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Leaves returns nodes without children.
func (g *Graph) Leaves() []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; len(n.Children) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Frontier returns the expandable nodes without children, i.e. the
// nodes the next action applies to.
func (g *Graph) Frontier() []*Node {
	var out []*Node
	for _, n := range g.Leaves() {
		if n.Status.IsExpandable() {
			out = append(out, n)
		}
	}
	return out
}

// Stats summarizes the shape of a simulation graph.
type Stats struct {
	Nodes        int `yaml:"nodes" json:"nodes"`
	Edges        int `yaml:"edges" json:"edges"`
	Depth        int `yaml:"depth" json:"depth"`
	Width        int `yaml:"width" json:"width"`
	Leaves       int `yaml:"leaves" json:"leaves"`
	BranchPoints int `yaml:"branch_points" json:"branch_points"`
	SuccessNodes int `yaml:"success_nodes" json:"success_nodes"`
	FailNodes    int `yaml:"fail_nodes" json:"fail_nodes"`
	MergedNodes  int `yaml:"merged_nodes" json:"merged_nodes"`
}

// Stats computes summary statistics over the graph.
func (g *Graph) Stats() Stats {
	st := Stats{Nodes: len(g.order)}
	width := make(map[int]int)
	for _, id := range g.order {
		n := g.nodes[id]
		st.Edges += len(n.Edges)
		width[n.Depth]++
		if n.Depth > st.Depth {
			st.Depth = n.Depth
		}
		if len(n.Children) == 0 {
			st.Leaves++
		}
		if len(n.Children) > 1 {
			st.BranchPoints++
		}
		if n.IsMerged() {
			st.MergedNodes++
		}
		switch n.Status {
		case StatusSuccess:
			st.SuccessNodes++
		case StatusRejected, StatusConstraintViolated, StatusFailed:
			st.FailNodes++
		}
	}
	for _, w := range width {
		if w > st.Width {
			st.Width = w
		}
	}
	return st
}
