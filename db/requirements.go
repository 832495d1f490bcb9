package db

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/GenericConfluent/finescale/catalog"
)

var ErrMalformedTree = errors.New("malformed stored requirement tree")

func flag(b bool) *bool {
	return &b
}

// FlattenRequirements turns a course into its row, its nodes and the
// relations of its requirement tree. The course's own value node comes
// first; and/or groups are numbered in tree order. Value nodes of the
// courses it requires are not included.
func FlattenRequirements(course catalog.Course) (Course, []Node, []Relation) {
	nodeId := ValueNodeId(course.ID)
	row := Course{
		NodeId:    nodeId,
		SubjectId: course.ID.Subject,
		ClassId:   int(course.ID.Number),
		Name:      course.Name,
	}
	if course.Description != "" {
		description := course.Description
		row.Description = &description
	}

	nodes := []Node{{Id: nodeId, Type: NodeTypeValue}}
	var relations []Relation
	if course.Requirements == nil {
		return row, nodes, relations
	}

	groups := 0
	var walk func(source string, position int, req catalog.Requirement)
	walk = func(source string, position int, req catalog.Requirement) {
		relation := Relation{SourceId: source, Position: position}
		switch req.Op {
		case catalog.Prereq, catalog.Coreq:
			relation.TargetId = ValueNodeId(req.Course)
			relation.Prereq = flag(req.Op == catalog.Prereq)
			relation.Coreq = flag(req.Op == catalog.Coreq)
			relations = append(relations, relation)

		case catalog.And, catalog.Or:
			node := Node{Id: groupNodeId(nodeId, groups), Type: NodeTypeAnd}
			if req.Op == catalog.Or {
				node.Type = NodeTypeOr
			}
			groups++
			nodes = append(nodes, node)
			relation.TargetId = node.Id
			relations = append(relations, relation)
			for i, child := range req.Children {
				walk(node.Id, i, child)
			}
		}
	}
	walk(nodeId, 0, *course.Requirements)

	return row, nodes, relations
}

// AssembleRequirements rebuilds the requirement tree hanging off a course's
// value node. It returns nil when the course has no requirements.
func AssembleRequirements(courseNodeId string, types map[string]NodeType, relations []Relation) (*catalog.Requirement, error) {
	outgoing := make(map[string][]Relation)
	for _, relation := range relations {
		outgoing[relation.SourceId] = append(outgoing[relation.SourceId], relation)
	}
	for _, edges := range outgoing {
		slices.SortStableFunc(edges, func(a, b Relation) int {
			return cmp.Compare(a.Position, b.Position)
		})
	}

	roots := outgoing[courseNodeId]
	switch len(roots) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("%w: %v has %d roots", ErrMalformedTree, courseNodeId, len(roots))
	}

	seen := make(map[string]bool)
	var build func(relation Relation) (catalog.Requirement, error)
	build = func(relation Relation) (catalog.Requirement, error) {
		if relation.Prereq != nil || relation.Coreq != nil {
			id, err := ParseValueNodeId(relation.TargetId)
			if err != nil {
				return catalog.Requirement{}, err
			}
			if relation.Coreq != nil && *relation.Coreq {
				return catalog.NewCoreq(id), nil
			}
			return catalog.NewPrereq(id), nil
		}

		if seen[relation.TargetId] {
			return catalog.Requirement{}, fmt.Errorf("%w: %v is reached twice", ErrMalformedTree, relation.TargetId)
		}
		seen[relation.TargetId] = true

		var children []catalog.Requirement
		for _, edge := range outgoing[relation.TargetId] {
			child, err := build(edge)
			if err != nil {
				return catalog.Requirement{}, err
			}
			children = append(children, child)
		}

		switch types[relation.TargetId] {
		case NodeTypeAnd:
			return catalog.NewAnd(children...), nil
		case NodeTypeOr:
			return catalog.NewOr(children...), nil
		}
		return catalog.Requirement{}, fmt.Errorf("%w: %v is not a group node", ErrMalformedTree, relation.TargetId)
	}

	req, err := build(roots[0])
	if err != nil {
		return nil, err
	}
	return &req, nil
}
