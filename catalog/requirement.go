package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Operator int

const (
	And Operator = iota
	Or
	Prereq
	Coreq
)

func (o Operator) String() string {
	switch o {
	case And:
		return "and"
	case Or:
		return "or"
	case Prereq:
		return "prereq"
	case Coreq:
		return "coreq"
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

var ErrMalformedRequirement = errors.New("malformed requirement")

// Requirement is the requirement tree stored with each course. And and Or
// nodes use Children, Prereq and Coreq leaves use Course.
type Requirement struct {
	Op       Operator
	Children []Requirement
	Course   CourseId
}

func NewAnd(children ...Requirement) Requirement {
	return Requirement{Op: And, Children: children}
}

func NewOr(children ...Requirement) Requirement {
	return Requirement{Op: Or, Children: children}
}

func NewPrereq(id CourseId) Requirement {
	return Requirement{Op: Prereq, Course: id}
}

func NewCoreq(id CourseId) Requirement {
	return Requirement{Op: Coreq, Course: id}
}

func (r Requirement) IsLeaf() bool {
	return r.Op == Prereq || r.Op == Coreq
}

// Courses lists every course the tree mentions, in tree order.
func (r Requirement) Courses() []CourseId {
	if r.IsLeaf() {
		return []CourseId{r.Course}
	}
	var ids []CourseId
	for _, child := range r.Children {
		ids = append(ids, child.Courses()...)
	}
	return ids
}

func (r Requirement) String() string {
	if r.IsLeaf() {
		return fmt.Sprintf("(%v %v)", r.Op, r.Course)
	}
	parts := make([]string, 0, len(r.Children)+1)
	parts = append(parts, r.Op.String())
	for _, child := range r.Children {
		parts = append(parts, child.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	if r.IsLeaf() {
		return json.Marshal(map[string]CourseId{r.Op.String(): r.Course})
	}
	children := r.Children
	if children == nil {
		children = []Requirement{}
	}
	return json.Marshal(map[string][]Requirement{r.Op.String(): children})
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) != 1 {
		return fmt.Errorf("%w: expected exactly one key, got %d", ErrMalformedRequirement, len(fields))
	}

	for key, raw := range fields {
		switch key {
		case "and", "or":
			var children []Requirement
			if err := json.Unmarshal(raw, &children); err != nil {
				return err
			}
			op := And
			if key == "or" {
				op = Or
			}
			*r = Requirement{Op: op, Children: children}
		case "prereq", "coreq":
			var id CourseId
			if err := json.Unmarshal(raw, &id); err != nil {
				return err
			}
			op := Prereq
			if key == "coreq" {
				op = Coreq
			}
			*r = Requirement{Op: op, Course: id}
		default:
			return fmt.Errorf("%w: unknown key %q", ErrMalformedRequirement, key)
		}
	}
	return nil
}
