package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/GenericConfluent/finescale/catalog"
)

var ErrUnknownCourse = errors.New("requirement refers to an unknown course")

// ReferenceError reports a requirement whose target never appears in the
// catalog.
type ReferenceError struct {
	From    catalog.CourseId
	Missing catalog.CourseId
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%v requires %v: %v", e.From, e.Missing, ErrUnknownCourse)
}

func (e *ReferenceError) Unwrap() error {
	return ErrUnknownCourse
}

type NodeIndex int

type NodeKind int

const (
	CourseNode NodeKind = iota
	OrNode
)

type Relation int

const (
	Prereq Relation = iota
	Coreq
)

func (r Relation) String() string {
	if r == Coreq {
		return "Coreq"
	}
	return "Prereq"
}

// Node is either a course or an or marker. Or markers stand for "one of my
// children" and carry no course.
type Node struct {
	Kind   NodeKind
	Course catalog.Course
}

func (n Node) String() string {
	if n.Kind == OrNode {
		return "OR"
	}
	return n.Course.ID.String()
}

// Edge points from a dependent node to one of its requirements.
type Edge struct {
	To       NodeIndex
	Relation Relation
}

// CourseGraph holds the catalog as an arena of nodes. Scheduling weights
// are kept apart from the nodes and are the only state that changes after
// construction.
type CourseGraph struct {
	nodes   []Node
	edges   [][]Edge
	weights []int
	index   map[catalog.CourseId]NodeIndex
}

type pendingEdge struct {
	from     NodeIndex
	source   catalog.CourseId
	target   catalog.CourseId
	relation Relation
}

// New builds the graph for a catalog. Courses are inserted in id order and a
// later duplicate of an id is ignored. Requirements may name courses that
// appear later in the catalog; every name must resolve by the end.
func New(courses []catalog.Course) (*CourseGraph, error) {
	sorted := slices.Clone(courses)
	slices.SortStableFunc(sorted, func(a, b catalog.Course) int {
		return a.ID.Compare(b.ID)
	})
	sorted = slices.CompactFunc(sorted, func(a, b catalog.Course) bool {
		return a.ID == b.ID
	})

	g := &CourseGraph{
		nodes:   make([]Node, 0, len(sorted)),
		edges:   make([][]Edge, 0, len(sorted)),
		weights: make([]int, 0, len(sorted)),
		index:   make(map[catalog.CourseId]NodeIndex, len(sorted)),
	}

	var queue []pendingEdge
	for _, course := range sorted {
		idx := g.addNode(Node{Kind: CourseNode, Course: course})
		g.index[course.ID] = idx

		remaining := queue[:0]
		for _, p := range queue {
			if p.target == course.ID {
				g.addEdge(p.from, idx, p.relation)
				continue
			}
			remaining = append(remaining, p)
		}
		queue = remaining

		if course.Requirements != nil {
			g.descend(idx, course.ID, *course.Requirements, &queue)
		}
	}

	for _, p := range queue {
		to, ok := g.index[p.target]
		if !ok {
			return nil, &ReferenceError{From: p.source, Missing: p.target}
		}
		g.addEdge(p.from, to, p.relation)
	}

	return g, nil
}

func (g *CourseGraph) descend(node NodeIndex, source catalog.CourseId, req catalog.Requirement, queue *[]pendingEdge) {
	switch req.Op {
	case catalog.And:
		for _, child := range req.Children {
			g.descend(node, source, child, queue)
		}

	case catalog.Or:
		// A single alternative is no choice at all.
		if len(req.Children) < 2 {
			for _, child := range req.Children {
				g.descend(node, source, child, queue)
			}
			return
		}
		marker := g.addNode(Node{Kind: OrNode})
		g.addEdge(node, marker, Prereq)
		for _, child := range req.Children {
			g.descend(marker, source, child, queue)
		}

	case catalog.Prereq, catalog.Coreq:
		relation := Prereq
		if req.Op == catalog.Coreq {
			relation = Coreq
		}
		// Corequisites stay one directional: A coreq B does not make B coreq A.
		if to, ok := g.index[req.Course]; ok {
			g.addEdge(node, to, relation)
			return
		}
		*queue = append(*queue, pendingEdge{from: node, source: source, target: req.Course, relation: relation})
	}
}

func (g *CourseGraph) addNode(n Node) NodeIndex {
	g.nodes = append(g.nodes, n)
	g.edges = append(g.edges, nil)
	g.weights = append(g.weights, 0)
	return NodeIndex(len(g.nodes) - 1)
}

func (g *CourseGraph) addEdge(from, to NodeIndex, relation Relation) {
	g.edges[from] = append(g.edges[from], Edge{To: to, Relation: relation})
}

// IndexOf finds the node for a course id. Or markers are never returned.
func (g *CourseGraph) IndexOf(id catalog.CourseId) (NodeIndex, bool) {
	idx, ok := g.index[id]
	return idx, ok
}

func (g *CourseGraph) Node(idx NodeIndex) Node {
	return g.nodes[idx]
}

func (g *CourseGraph) Edges(idx NodeIndex) []Edge {
	return g.edges[idx]
}

func (g *CourseGraph) Len() int {
	return len(g.nodes)
}

func (g *CourseGraph) Weight(idx NodeIndex) int {
	return g.weights[idx]
}

func (g *CourseGraph) ResetWeights() {
	clear(g.weights)
}

// Clone returns an independent copy, so callers can schedule on separate
// goroutines.
func (g *CourseGraph) Clone() *CourseGraph {
	c := &CourseGraph{
		nodes:   slices.Clone(g.nodes),
		edges:   make([][]Edge, len(g.edges)),
		weights: slices.Clone(g.weights),
		index:   make(map[catalog.CourseId]NodeIndex, len(g.index)),
	}
	for i, edges := range g.edges {
		c.edges[i] = slices.Clone(edges)
	}
	for id, idx := range g.index {
		c.index[id] = idx
	}
	return c
}

// Dot renders the graph in Graphviz format.
func (g *CourseGraph) Dot() string {
	var sb strings.Builder
	sb.WriteString("digraph {\n")
	for i, n := range g.nodes {
		fmt.Fprintf(&sb, "    %d [ label = %q ]\n", i, n.String())
	}
	for from, edges := range g.edges {
		for _, e := range edges {
			fmt.Fprintf(&sb, "    %d -> %d [ label = %q ]\n", from, e.To, e.Relation.String())
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
