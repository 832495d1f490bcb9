package graph

import (
	"testing"

	"github.com/GenericConfluent/finescale/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(s string) catalog.CourseId {
	return catalog.MustParseCourseId(s)
}

func course(s string, req *catalog.Requirement) catalog.Course {
	return catalog.Course{ID: id(s), Requirements: req}
}

func ptr(req catalog.Requirement) *catalog.Requirement {
	return &req
}

func prereq(s string) catalog.Requirement {
	return catalog.NewPrereq(id(s))
}

func coreq(s string) catalog.Requirement {
	return catalog.NewCoreq(id(s))
}

func cmputSmall() []catalog.Course {
	return []catalog.Course{
		course("CMPUT 101", nil),
		course("CMPUT 102", ptr(catalog.NewAnd(prereq("CMPUT 101"), prereq("MATH 112")))),
		course("MATH 111", nil),
		course("MATH 112", ptr(prereq("MATH 111"))),
	}
}

func mustIndex(t *testing.T, g *CourseGraph, s string) NodeIndex {
	t.Helper()
	idx, ok := g.IndexOf(id(s))
	require.True(t, ok, "%v not in the graph", s)
	return idx
}

func edgeCount(g *CourseGraph) int {
	n := 0
	for i := 0; i < g.Len(); i++ {
		n += len(g.Edges(NodeIndex(i)))
	}
	return n
}

func TestNewCmputSmall(t *testing.T) {
	g, err := New(cmputSmall())
	require.NoError(t, err)
	assert.Equal(t, 4, g.Len())

	cmput101 := mustIndex(t, g, "CMPUT 101")
	cmput102 := mustIndex(t, g, "CMPUT 102")
	math111 := mustIndex(t, g, "MATH 111")
	math112 := mustIndex(t, g, "MATH 112")

	assert.Empty(t, g.Edges(cmput101), "CMPUT 101 has no requirements")
	assert.ElementsMatch(t, []Edge{
		{To: cmput101, Relation: Prereq},
		{To: math112, Relation: Prereq},
	}, g.Edges(cmput102))
	assert.Equal(t, []Edge{{To: math111, Relation: Prereq}}, g.Edges(math112))
	assert.Equal(t, id("MATH 112"), g.Node(math112).Course.ID)
}

func TestNewForwardReference(t *testing.T) {
	// ANTH 200 sorts first but needs ZOOL 100, which is inserted after it.
	g, err := New([]catalog.Course{
		course("ANTH 200", ptr(prereq("ZOOL 100"))),
		course("ZOOL 100", nil),
	})
	require.NoError(t, err)

	anth := mustIndex(t, g, "ANTH 200")
	zool := mustIndex(t, g, "ZOOL 100")
	assert.Equal(t, []Edge{{To: zool, Relation: Prereq}}, g.Edges(anth))
	assert.Equal(t, 1, edgeCount(g))
}

func TestNewDeclarationOrderDoesNotMatter(t *testing.T) {
	courses := cmputSmall()
	reversed := []catalog.Course{courses[3], courses[2], courses[1], courses[0]}

	a, err := New(courses)
	require.NoError(t, err)
	b, err := New(reversed)
	require.NoError(t, err)
	assert.Equal(t, a.Dot(), b.Dot())
}

func TestNewDropsDuplicates(t *testing.T) {
	first := course("CMPUT 101", nil)
	first.Name = "first"
	second := course("CMPUT 101", ptr(prereq("MATH 111")))
	second.Name = "second"

	g, err := New([]catalog.Course{first, course("MATH 111", nil), second})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	idx := mustIndex(t, g, "CMPUT 101")
	assert.Equal(t, "first", g.Node(idx).Course.Name)
	assert.Empty(t, g.Edges(idx))
}

func TestNewOrMarker(t *testing.T) {
	g, err := New([]catalog.Course{
		course("CMPUT 174", nil),
		course("CMPUT 274", nil),
		course("CMPUT 201", ptr(catalog.NewOr(prereq("CMPUT 174"), coreq("CMPUT 274")))),
	})
	require.NoError(t, err)

	edges := g.Edges(mustIndex(t, g, "CMPUT 201"))
	require.Len(t, edges, 1)
	assert.Equal(t, Prereq, edges[0].Relation)

	marker := g.Node(edges[0].To)
	assert.Equal(t, OrNode, marker.Kind)
	assert.Equal(t, "OR", marker.String())
	assert.Equal(t, []Edge{
		{To: mustIndex(t, g, "CMPUT 174"), Relation: Prereq},
		{To: mustIndex(t, g, "CMPUT 274"), Relation: Coreq},
	}, g.Edges(edges[0].To))

	_, ok := g.IndexOf(catalog.CourseId{})
	assert.False(t, ok)
}

func TestNewSingleAlternativeHasNoMarker(t *testing.T) {
	g, err := New([]catalog.Course{
		course("CMPUT 174", nil),
		course("CMPUT 201", ptr(catalog.NewOr(prereq("CMPUT 174")))),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []Edge{{To: mustIndex(t, g, "CMPUT 174"), Relation: Prereq}},
		g.Edges(mustIndex(t, g, "CMPUT 201")))
}

func TestNewCoreqIsDirectional(t *testing.T) {
	g, err := New([]catalog.Course{
		course("PHYS 124", ptr(coreq("MATH 117"))),
		course("MATH 117", nil),
	})
	require.NoError(t, err)

	assert.Equal(t, []Edge{{To: mustIndex(t, g, "MATH 117"), Relation: Coreq}},
		g.Edges(mustIndex(t, g, "PHYS 124")))
	assert.Empty(t, g.Edges(mustIndex(t, g, "MATH 117")))
}

func TestNewUnknownReference(t *testing.T) {
	_, err := New([]catalog.Course{
		course("CMPUT 101", nil),
		course("CMPUT 102", ptr(catalog.NewAnd(prereq("CMPUT 101"), prereq("STAT 151")))),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCourse)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, id("CMPUT 102"), refErr.From)
	assert.Equal(t, id("STAT 151"), refErr.Missing)
	assert.Contains(t, err.Error(), "CMPUT 102 requires STAT 151")
}

func TestDot(t *testing.T) {
	g, err := New(cmputSmall())
	require.NoError(t, err)

	dot := g.Dot()
	assert.Contains(t, dot, "digraph {\n")
	assert.Contains(t, dot, `0 [ label = "CMPUT 101" ]`)
	assert.Contains(t, dot, `1 -> 0 [ label = "Prereq" ]`)
	assert.Contains(t, dot, `3 -> 2 [ label = "Prereq" ]`)
}

func TestCloneIsIndependent(t *testing.T) {
	g, err := New(cmputSmall())
	require.NoError(t, err)
	clone := g.Clone()

	clone.CountDependents([]NodeIndex{mustIndex(t, clone, "CMPUT 102")})
	assert.Equal(t, 1, clone.Weight(mustIndex(t, clone, "MATH 111")))
	assert.Equal(t, 0, g.Weight(mustIndex(t, g, "MATH 111")))
	assert.Equal(t, g.Dot(), clone.Dot())
}
