package requisites

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Prerequisite Kind = iota
	Corequisite
)

func (k Kind) String() string {
	if k == Corequisite {
		return "Corequisite"
	}
	return "Prerequisite"
}

// Span is one requirement clause found in a course description.
type Span struct {
	Kind Kind
	Text string
}

// Patterns are listed in priority order. Both positive patterns only match at
// the start of the text or right after '.' or ':'.
const (
	corequisitePattern = `(?i)(?:^|\.|:)\s*` +
		`(?P<kind>(?:pre-(?:and/or)?\sor\s|pre-?requisite(?:\(s\)|s)?\sor\s)?co-?requisite(?:\(s\)|s)?` +
		`|(?:préalable(?:\s?\(s\)|s)?\sou\s)?concomitant(?:\s?\(s\)|s)?)` +
		`\s?(?::|;|.)?\s+(?P<data>[^.]*)(?:\.|$)`

	prerequisitePattern = `(?i)(?:^|\.|:)\s*` +
		`(?P<kind>pre-?requisite(?:\(s\)|s)?|préalable(?:\s?\(s\)|s)?|prérequis)` +
		`\s?(?::|;|.)?\s+(?P<data>[^.]*?)(?:\.|$)`

	noPrerequisitePattern = `(?i)no\s(?P<kind>pre-?requisite)(?:\(s\)|s)?`
)

type pattern struct {
	re   *regexp.Regexp
	kind Kind
	// negation patterns consume text without producing a span
	negation bool
	kindIdx  int
	dataIdx  int
}

// Extractor finds prerequisite and corequisite clauses in free text. It is
// safe for concurrent use once built.
type Extractor struct {
	patterns []pattern
}

func NewExtractor() *Extractor {
	compile := func(expr string, kind Kind, negation bool) pattern {
		re := regexp.MustCompile(expr)
		return pattern{
			re:       re,
			kind:     kind,
			negation: negation,
			kindIdx:  re.SubexpIndex("kind"),
			dataIdx:  re.SubexpIndex("data"),
		}
	}

	return &Extractor{patterns: []pattern{
		compile(corequisitePattern, Corequisite, false),
		compile(prerequisitePattern, Prerequisite, false),
		compile(noPrerequisitePattern, Prerequisite, true),
	}}
}

// Extract returns the requirement clauses of description in reading order.
//
// Every round scans the unconsumed remainder as a new string so the sentence
// anchors see its start as a boundary. The earliest match wins, then the one
// with the longest keyword, then the pattern listed first.
func (e *Extractor) Extract(description string) []Span {
	var spans []Span

	rest := description
	for {
		best := -1
		var bestLoc []int
		for i, p := range e.patterns {
			loc := p.re.FindStringSubmatchIndex(rest)
			if loc == nil {
				continue
			}
			if best < 0 || e.before(loc, i, bestLoc, best) {
				best, bestLoc = i, loc
			}
		}
		if best < 0 {
			return spans
		}

		p := e.patterns[best]
		if !p.negation {
			text := rest[bestLoc[2*p.dataIdx]:bestLoc[2*p.dataIdx+1]]
			spans = append(spans, Span{Kind: p.kind, Text: strings.TrimSpace(text)})
		}
		rest = rest[bestLoc[1]:]
	}
}

func (e *Extractor) before(loc []int, i int, other []int, j int) bool {
	if loc[0] != other[0] {
		return loc[0] < other[0]
	}
	length := loc[2*e.patterns[i].kindIdx+1] - loc[2*e.patterns[i].kindIdx]
	otherLength := other[2*e.patterns[j].kindIdx+1] - other[2*e.patterns[j].kindIdx]
	if length != otherLength {
		return length > otherLength
	}
	return i < j
}
