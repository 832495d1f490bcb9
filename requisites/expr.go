package requisites

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type ExprKind int

const (
	ExprEmpty ExprKind = iota
	ExprAll
	ExprAny
	ExprCourse
)

// Expr is a boolean requirement over course references. The zero value is
// Empty. Build All and Any nodes through All and Any so they stay normalised.
type Expr struct {
	Kind     ExprKind
	Children []Expr
	Topic    string
	Number   string
}

var Empty = Expr{}

func Course(topic, number string) Expr {
	return Expr{Kind: ExprCourse, Topic: topic, Number: number}
}

// All drops Empty members. One remaining member is returned as is and none
// yields Empty.
func All(children ...Expr) Expr {
	return combine(ExprAll, children)
}

func Any(children ...Expr) Expr {
	return combine(ExprAny, children)
}

func combine(kind ExprKind, children []Expr) Expr {
	kept := make([]Expr, 0, len(children))
	for _, child := range children {
		if !child.IsEmpty() {
			kept = append(kept, child)
		}
	}

	switch len(kept) {
	case 0:
		return Empty
	case 1:
		return kept[0]
	}
	return Expr{Kind: kind, Children: kept}
}

func (e Expr) IsEmpty() bool {
	return e.Kind == ExprEmpty
}

// Courses lists the referenced courses in tree order.
func (e Expr) Courses() []Expr {
	switch e.Kind {
	case ExprCourse:
		return []Expr{e}
	case ExprAll, ExprAny:
		var courses []Expr
		for _, child := range e.Children {
			courses = append(courses, child.Courses()...)
		}
		return courses
	}
	return nil
}

// String renders the s-expression form, e.g. "(any (CMPUT 174) (CMPUT 274))".
func (e Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e Expr) write(sb *strings.Builder) {
	switch e.Kind {
	case ExprEmpty:
		sb.WriteString("()")
	case ExprCourse:
		fmt.Fprintf(sb, "(%v %v)", e.Topic, e.Number)
	case ExprAll, ExprAny:
		sb.WriteString("(")
		if e.Kind == ExprAll {
			sb.WriteString("all")
		} else {
			sb.WriteString("any")
		}
		for _, child := range e.Children {
			sb.WriteString(" ")
			child.write(sb)
		}
		sb.WriteString(")")
	}
}

var ErrMalformedExpr = errors.New("malformed requirement expression")

type courseJSON struct {
	Topic  string `json:"topic"`
	Number string `json:"number"`
}

type exprJSON struct {
	All    []Expr      `json:"all,omitempty"`
	Any    []Expr      `json:"any,omitempty"`
	Course *courseJSON `json:"course,omitempty"`
}

func (e Expr) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case ExprAll:
		return json.Marshal(exprJSON{All: e.Children})
	case ExprAny:
		return json.Marshal(exprJSON{Any: e.Children})
	case ExprCourse:
		return json.Marshal(exprJSON{Course: &courseJSON{Topic: e.Topic, Number: e.Number}})
	}
	return []byte("{}"), nil
}

// UnmarshalJSON accepts the form written by MarshalJSON and normalises the
// result through All and Any.
func (e *Expr) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	switch len(fields) {
	case 0:
		*e = Empty
		return nil
	case 1:
	default:
		return fmt.Errorf("%w: expected at most one key, got %d", ErrMalformedExpr, len(fields))
	}

	for key, raw := range fields {
		switch key {
		case "all", "any":
			var children []Expr
			if err := json.Unmarshal(raw, &children); err != nil {
				return err
			}
			if key == "all" {
				*e = All(children...)
			} else {
				*e = Any(children...)
			}
		case "course":
			var course courseJSON
			if err := json.Unmarshal(raw, &course); err != nil {
				return err
			}
			*e = Course(course.Topic, course.Number)
		default:
			return fmt.Errorf("%w: unknown key %q", ErrMalformedExpr, key)
		}
	}
	return nil
}
