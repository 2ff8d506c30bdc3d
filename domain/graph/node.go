// Package graph provides the simulation graph: a layered DAG of world
// snapshots connected by action transitions. Nodes reference each other
// by string id only; there are no owning pointers between nodes.
package graph

import (
	"strings"

	"github.com/NickG503/World-Simulator/domain/constraint"
	"github.com/NickG503/World-Simulator/domain/state"
)

// Status classifies a node's transition outcome.
type Status string

// Node statuses.
const (
	// StatusInitial marks the root snapshot.
	StatusInitial Status = "initial"
	// StatusSuccess marks a branch whose action applied.
	StatusSuccess Status = "success"
	// StatusRejected marks a branch whose precondition failed.
	StatusRejected Status = "rejected"
	// StatusConstraintViolated marks a branch that broke a dependency.
	StatusConstraintViolated Status = "constraint_violated"
	// StatusFailed marks a branch with no satisfiable required case.
	StatusFailed Status = "failed"
)

// IsValid returns true if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusInitial, StatusSuccess, StatusRejected, StatusConstraintViolated, StatusFailed:
		return true
	default:
		return false
	}
}

// IsExpandable returns true if further actions may be applied to a node
// with this status.
func (s Status) IsExpandable() bool {
	return s == StatusInitial || s == StatusSuccess
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Source tells which clause of an action produced a branch.
type Source string

// Branch sources.
const (
	SourcePrecondition  Source = "precondition"
	SourcePostcondition Source = "postcondition"
)

// Role tells which side of a split a branch took.
type Role string

// Branch roles.
const (
	RoleSuccess Role = "success"
	RoleFail    Role = "fail"
	RoleIf      Role = "if"
	RoleElif    Role = "elif"
	RoleElse    Role = "else"
)

// CompoundType distinguishes simple branch conditions from compound
// and/or combinations.
type CompoundType string

// Compound types.
const (
	CompoundSimple CompoundType = "simple"
	CompoundAnd    CompoundType = "and"
	CompoundOr     CompoundType = "or"
)

// BranchCondition describes the assumption under which a branch exists:
// either one attribute restricted to a level set, or an and/or
// combination of such restrictions.
type BranchCondition struct {
	Type      CompoundType      `yaml:"type" json:"type"`
	Source    Source            `yaml:"source" json:"source"`
	Role      Role              `yaml:"role" json:"role"`
	Attribute string            `yaml:"attribute,omitempty" json:"attribute,omitempty"`
	Levels    []string          `yaml:"levels,omitempty" json:"levels,omitempty"`
	Sub       []BranchCondition `yaml:"sub,omitempty" json:"sub,omitempty"`
}

// Simple builds a single-attribute branch condition.
func Simple(source Source, role Role, attribute string, levels []string) BranchCondition {
	return BranchCondition{
		Type:      CompoundSimple,
		Source:    source,
		Role:      role,
		Attribute: attribute,
		Levels:    append([]string(nil), levels...),
	}
}

// Compound builds an and/or combination of branch conditions. A
// combination of zero or one parts collapses to its only member.
func Compound(typ CompoundType, source Source, role Role, parts []BranchCondition) BranchCondition {
	if len(parts) == 1 {
		p := parts[0]
		p.Source = source
		p.Role = role
		return p
	}
	return BranchCondition{Type: typ, Source: source, Role: role, Sub: parts}
}

// IsZero returns true for the absent condition.
func (c BranchCondition) IsZero() bool {
	return c.Type == ""
}

// String renders the condition as a readable assumption, for example
// "battery.level in {low, medium}".
func (c BranchCondition) String() string {
	switch c.Type {
	case CompoundAnd, CompoundOr:
		parts := make([]string, len(c.Sub))
		for i, sub := range c.Sub {
			parts[i] = sub.String()
		}
		sep := " and "
		if c.Type == CompoundOr {
			sep = " or "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case CompoundSimple:
		if len(c.Levels) == 1 {
			return c.Attribute + " = " + c.Levels[0]
		}
		return c.Attribute + " in {" + strings.Join(c.Levels, ", ") + "}"
	default:
		return ""
	}
}

// Edge is one incoming transition of a node. Merged nodes carry one
// edge per parent, each with its own change list.
type Edge struct {
	Parent    string          `yaml:"parent" json:"parent"`
	Changes   []state.Change  `yaml:"changes,omitempty" json:"changes,omitempty"`
	Condition BranchCondition `yaml:"condition" json:"condition"`
}

// Node is one world snapshot in the simulation graph.
type Node struct {
	ID       string
	Snapshot state.Snapshot
	Action   string
	Status   Status
	Depth    int
	Edges    []Edge
	Children []string

	Violations []constraint.Violation
	Deferred   []constraint.Deferred
}

// ParentIDs returns the parent node ids in edge order.
func (n *Node) ParentIDs() []string {
	out := make([]string, len(n.Edges))
	for i, e := range n.Edges {
		out[i] = e.Parent
	}
	return out
}

// IsMerged returns true if the node has more than one parent.
func (n *Node) IsMerged() bool {
	return len(n.Edges) > 1
}
