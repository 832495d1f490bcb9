package requisites

import (
	"errors"
	"fmt"

	"github.com/GenericConfluent/finescale/catalog"
	"go.uber.org/zap"
)

// Reader pulls prerequisite and corequisite expressions out of a course
// description. Clauses that do not parse are logged and left out.
type Reader struct {
	extractor *Extractor
	parser    *Parser
	logger    *zap.Logger
}

func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		extractor: NewExtractor(),
		parser:    NewParser(),
		logger:    logger,
	}
}

func (r *Reader) Read(description string) (prereqs, coreqs Expr) {
	var pre, co []Expr
	for _, span := range r.extractor.Extract(description) {
		expr, err := r.parser.Parse(span.Text)
		if err != nil {
			r.logger.Debug("dropping requirement clause",
				zap.Stringer("kind", span.Kind),
				zap.String("text", span.Text),
				zap.Error(err))
			continue
		}

		if span.Kind == Corequisite {
			co = append(co, expr)
		} else {
			pre = append(pre, expr)
		}
	}
	return All(pre...), All(co...)
}

// ToRequirement converts parsed expressions into a course requirement tree.
// A course reference that is not a valid course id (such as a high school
// course) cannot be scheduled: it is removed from an all-of group and makes
// an any-of group satisfiable on its own, so the group is removed. The
// returned error lists every reference that was removed; the tree is usable
// either way. A nil tree means the course has no requirements.
func ToRequirement(prereqs, coreqs Expr) (*catalog.Requirement, error) {
	var errs []error
	pre, hasPre := convert(prereqs, catalog.NewPrereq, &errs)
	co, hasCo := convert(coreqs, catalog.NewCoreq, &errs)

	var req *catalog.Requirement
	switch {
	case hasPre && hasCo:
		and := catalog.NewAnd(pre, co)
		req = &and
	case hasPre:
		req = &pre
	case hasCo:
		req = &co
	}
	return req, errors.Join(errs...)
}

func convert(e Expr, leaf func(catalog.CourseId) catalog.Requirement, errs *[]error) (catalog.Requirement, bool) {
	switch e.Kind {
	case ExprCourse:
		id, err := catalog.NewCourseId(e.Topic, e.Number)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("course %v %v: %w", e.Topic, e.Number, err))
			return catalog.Requirement{}, false
		}
		return leaf(id), true

	case ExprAll, ExprAny:
		var children []catalog.Requirement
		for _, child := range e.Children {
			req, ok := convert(child, leaf, errs)
			if !ok {
				if e.Kind == ExprAny {
					return catalog.Requirement{}, false
				}
				continue
			}
			children = append(children, req)
		}

		switch len(children) {
		case 0:
			return catalog.Requirement{}, false
		case 1:
			return children[0], true
		}
		if e.Kind == ExprAll {
			return catalog.NewAnd(children...), true
		}
		return catalog.NewOr(children...), true
	}
	return catalog.Requirement{}, false
}
