package graph

import (
	"errors"
	"slices"

	"github.com/GenericConfluent/finescale/catalog"
)

var ErrNoDesiredCourses = errors.New("no desired courses given")

// CountDependents adds, to every node, the number of requirement paths that
// lead to it from the desired courses. A desired course counts one for
// itself. Weights add up across calls; use ResetWeights between independent
// runs.
func (g *CourseGraph) CountDependents(desired []NodeIndex) {
	delta := make([]int, len(g.nodes))
	onPath := make([]bool, len(g.nodes))

	var walk func(idx NodeIndex)
	walk = func(idx NodeIndex) {
		delta[idx]++
		onPath[idx] = true
		for _, e := range g.edges[idx] {
			if !onPath[e.To] {
				walk(e.To)
			}
		}
		onPath[idx] = false
	}
	for _, idx := range desired {
		walk(idx)
	}

	for i, d := range delta {
		g.weights[i] += d
	}
}

type setBuilder struct {
	graph    *CourseGraph
	capacity int
	sets     []CourseSet
	onPath   []bool
}

// BuildSets lays the requirements of the desired courses out into terms.
// The set at index 0 is taken last: a prerequisite lands at least one set
// further along than the course needing it, a corequisite may share the set.
// An or marker contributes only its heaviest alternative, and nothing when
// no alternative has a weight, so CountDependents should run first. A course
// reached along several paths appears once per path.
func (g *CourseGraph) BuildSets(desired []NodeIndex, capacity int) []CourseSet {
	b := &setBuilder{
		graph:    g,
		capacity: clampCapacity(capacity),
		onPath:   make([]bool, len(g.nodes)),
	}
	for _, idx := range desired {
		depth := 0
		b.add(idx, &depth)
	}
	return b.sets
}

func (b *setBuilder) add(idx NodeIndex, depth *int) {
	if b.onPath[idx] {
		return
	}
	b.onPath[idx] = true
	defer func() { b.onPath[idx] = false }()

	if b.graph.nodes[idx].Kind == OrNode {
		if choice, ok := b.graph.heaviest(idx); ok {
			b.add(choice, depth)
		}
		return
	}

	for *depth < len(b.sets) && len(b.sets[*depth]) >= b.capacity {
		*depth++
	}
	for len(b.sets) <= *depth {
		b.sets = append(b.sets, nil)
	}
	b.sets[*depth] = append(b.sets[*depth], idx)

	for _, e := range b.graph.edges[idx] {
		if e.Relation == Coreq {
			b.add(e.To, depth)
			continue
		}
		*depth++
		b.add(e.To, depth)
		*depth--
	}
}

// heaviest picks the alternative of an or marker with the greatest weight.
// Ties go to the first alternative.
func (g *CourseGraph) heaviest(marker NodeIndex) (NodeIndex, bool) {
	best, bestWeight := NodeIndex(-1), 0
	for _, e := range g.edges[marker] {
		if w := g.weights[e.To]; w > bestWeight {
			best, bestWeight = e.To, w
		}
	}
	return best, best >= 0
}

func (g *CourseGraph) reaches(from NodeIndex, match func(NodeIndex) bool) bool {
	seen := make([]bool, len(g.nodes))
	stack := []NodeIndex{from}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges[idx] {
			if match(e.To) {
				return true
			}
			if !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return false
}

// CourseDependency reports After when lhs requires rhs, directly or not,
// and Before when rhs requires lhs.
func (g *CourseGraph) CourseDependency(lhs, rhs NodeIndex) Dependency {
	is := func(want NodeIndex) func(NodeIndex) bool {
		return func(idx NodeIndex) bool { return idx == want }
	}
	after := func() bool { return g.reaches(lhs, is(rhs)) }
	before := func() bool { return g.reaches(rhs, is(lhs)) }

	// The heavier course is more likely to be the requirement, so its
	// direction is checked first. Reachability alone decides the answer.
	if g.weights[lhs] > g.weights[rhs] {
		if before() {
			return Before
		}
		if after() {
			return After
		}
		return Independent
	}
	if after() {
		return After
	}
	if before() {
		return Before
	}
	return Independent
}

// SetDependency is CourseDependency for whole sets. The sets are assumed not
// to depend on each other in both directions at once.
func (g *CourseGraph) SetDependency(lhs, rhs CourseSet) Dependency {
	for _, idx := range lhs {
		if g.reaches(idx, rhs.Contains) {
			return After
		}
	}
	for _, idx := range rhs {
		if g.reaches(idx, lhs.Contains) {
			return Before
		}
	}
	return Independent
}

// SwapCourse exchanges lhs[i] and rhs[j] when neither course depends on the
// other, and reports whether it did.
func (g *CourseGraph) SwapCourse(lhs *CourseSet, i int, rhs *CourseSet, j int) bool {
	if g.CourseDependency((*lhs)[i], (*rhs)[j]) != Independent {
		return false
	}
	(*lhs)[i], (*rhs)[j] = (*rhs)[j], (*lhs)[i]
	return true
}

func (g *CourseGraph) SwapSet(sets []CourseSet, i, j int) bool {
	if g.SetDependency(sets[i], sets[j]) != Independent {
		return false
	}
	sets[i], sets[j] = sets[j], sets[i]
	return true
}

// Plan is a schedule in the order the terms should be taken.
type Plan struct {
	Terms   [][]catalog.CourseId
	Missing []catalog.CourseId
}

// Schedule resets the weights, then counts and lays out the requirements of
// the desired courses. Ids that are not in the catalog are listed in
// Plan.Missing. A course is scheduled once, in the earliest term any path
// needs it.
func (g *CourseGraph) Schedule(desired []catalog.CourseId, capacity int) (*Plan, error) {
	if len(desired) == 0 {
		return nil, ErrNoDesiredCourses
	}

	plan := &Plan{}
	var roots []NodeIndex
	for _, id := range desired {
		idx, ok := g.IndexOf(id)
		if !ok {
			plan.Missing = append(plan.Missing, id)
			continue
		}
		if !slices.Contains(roots, idx) {
			roots = append(roots, idx)
		}
	}

	g.ResetWeights()
	g.CountDependents(roots)
	sets := g.BuildSets(roots, capacity)

	earliest := make(map[NodeIndex]int)
	for i, set := range sets {
		for _, idx := range set {
			earliest[idx] = i
		}
	}

	for i := len(sets) - 1; i >= 0; i-- {
		var term []catalog.CourseId
		for _, idx := range sets[i] {
			if earliest[idx] != i {
				continue
			}
			id := g.nodes[idx].Course.ID
			if !slices.Contains(term, id) {
				term = append(term, id)
			}
		}
		if len(term) > 0 {
			plan.Terms = append(plan.Terms, term)
		}
	}
	return plan, nil
}
