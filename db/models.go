package db

type NodeType string

const (
	NodeTypeValue NodeType = "value"
	NodeTypeAnd   NodeType = "and"
	NodeTypeOr    NodeType = "or"
)

// Node is a course (value) or one and/or group of a requirement tree.
type Node struct {
	Id   string
	Type NodeType
}

type Course struct {
	NodeId      string
	SubjectId   string
	ClassId     int
	Name        string
	Description *string
}

// Relation is an edge of a stored requirement tree. Edges into and/or groups
// leave Prereq and Coreq unset.
type Relation struct {
	SourceId string
	TargetId string
	Position int
	Prereq   *bool
	Coreq    *bool
}
