package graph

import "slices"

// MaxCourseSetSize bounds a term. Nobody takes more than ten courses at once.
const MaxCourseSetSize = 10

// CourseSet is one term worth of courses.
type CourseSet []NodeIndex

func (s CourseSet) Contains(idx NodeIndex) bool {
	return slices.Contains(s, idx)
}

// Dependency says where lhs has to go relative to rhs.
type Dependency int

const (
	Independent Dependency = iota
	Before
	After
	// Together is reserved for courses that must share a term. Nothing
	// returns it yet.
	Together
)

func (d Dependency) String() string {
	switch d {
	case Before:
		return "before"
	case After:
		return "after"
	case Together:
		return "together"
	}
	return "independent"
}

func clampCapacity(capacity int) int {
	return min(max(capacity, 1), MaxCourseSetSize)
}
