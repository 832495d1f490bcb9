package requisites

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNoDerivation = errors.New("no derivation")

// ParseError reports the furthest token the parser could not get past.
type ParseError struct {
	Pos   int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v at token %d (%q): %v", e.Msg, e.Pos, e.Token, ErrNoDerivation)
}

func (e *ParseError) Unwrap() error {
	return ErrNoDerivation
}

const defaultMaxTokens = 256

// Parser turns one requirement clause into an Expr.
//
// Clauses are ambiguous ("A or B, C or D"), so every rule yields all of its
// derivations in a fixed order: alternatives in the order they are written
// below and repetitions longest first. The first derivation of the whole
// clause that consumes every token is the result.
//
//	top      = "none" | group { ";" ["and"] group } [";" "or" consent]
//	group    = conj { "," conj }
//	conj     = item { "," item } and-tail { and-tail }   (tails all with or all without ",")
//	         | disj
//	item     = disj | disj and-tail { and-tail }          (tails without ",")
//	and-tail = [","] ("and" | "et") item
//	disj     = [min-grade] ( [one-of] simple { "," simple } or-tail { or-tail }
//	                       | one-of simple { "," simple }
//	                       | atom )
//	or-tail  = [","] ("or" | "ou" | "and/or") simple
//	atom     = primary [aside] ["or" equivalent] [aside]
//	primary  = "either" atom "or" atom | "both" disj "and" disj | "(" top ")"
//	         | topic number { "," number } [","] ("and" | "or") number
//	         | topic number "/" number { "/" number }
//	         | topic number | number | consent
//
// A simple atom is an atom whose primary is not a shared topic list with a
// connective, so a list such as "A 1 or 2, B 3 or 4" splits at its commas.
type Parser struct {
	maxTokens int
}

func NewParser() *Parser {
	return &Parser{maxTokens: defaultMaxTokens}
}

func (p *Parser) Parse(text string) (Expr, error) {
	tokens := Tokenize(text)
	if len(tokens) == 1 {
		return Empty, &ParseError{Pos: 0, Token: "$", Msg: "empty requirement"}
	}
	if len(tokens) > p.maxTokens {
		return Empty, &ParseError{Pos: p.maxTokens, Token: tokens[p.maxTokens].Value, Msg: "requirement too long"}
	}

	s := newParseState(tokens)
	end := len(tokens) - 1
	for _, d := range s.top(0) {
		if d.end == end {
			return d.expr, nil
		}
	}

	return Empty, &ParseError{Pos: s.furthest, Token: tokens[s.furthest].Value, Msg: "unexpected token"}
}

type derivation struct {
	expr Expr
	end  int
}

type sequence struct {
	exprs []Expr
	end   int
}

type rule int

const (
	ruleTop rule = iota
	ruleGroupSeq
	ruleSemiSeq
	ruleConj
	ruleItem
	ruleItemSeq
	ruleAndTailsComma
	ruleAndTailsBare
	ruleDisj
	ruleSimpleSeq
	ruleOrTails
	ruleAtom
	ruleSimpleAtom
	ruleConsent
)

type memoKey struct {
	rule rule
	pos  int
}

type parseState struct {
	tokens []Token
	// topics holds, for each bare number, the closest topic written before it
	topics   []string
	furthest int

	derivations map[memoKey][]derivation
	sequences   map[memoKey][]sequence
}

func newParseState(tokens []Token) *parseState {
	s := &parseState{
		tokens:      tokens,
		topics:      make([]string, len(tokens)),
		derivations: make(map[memoKey][]derivation),
		sequences:   make(map[memoKey][]sequence),
	}

	current := ""
	for i := 0; i < len(tokens); i++ {
		if tokens[i].Type == TokenNumber {
			s.topics[i] = current
			continue
		}
		if tokens[i].Type != TokenUpper {
			continue
		}
		j := i
		for j < len(tokens) && tokens[j].Type == TokenUpper {
			j++
		}
		if tokens[j].Type == TokenNumber {
			current = joinValues(tokens[i:j])
		}
		i = j - 1
	}
	return s
}

func joinValues(tokens []Token) string {
	values := make([]string, len(tokens))
	for i, token := range tokens {
		values[i] = token.Value
	}
	return strings.Join(values, " ")
}

// addDerivation keeps only the first derivation for each end position. Later
// ones with the same end can never be picked since every caller only looks
// at where a derivation stops.
func addDerivation(list []derivation, d derivation) []derivation {
	for _, existing := range list {
		if existing.end == d.end {
			return list
		}
	}
	return append(list, d)
}

func addSequence(list []sequence, s sequence) []sequence {
	for _, existing := range list {
		if existing.end == s.end {
			return list
		}
	}
	return append(list, s)
}

func prepend(e Expr, rest []Expr) []Expr {
	return append([]Expr{e}, rest...)
}

func (s *parseState) memo(r rule, pos int, build func() []derivation) []derivation {
	key := memoKey{r, pos}
	if list, ok := s.derivations[key]; ok {
		return list
	}
	list := build()
	s.derivations[key] = list
	return list
}

func (s *parseState) memoSequence(r rule, pos int, build func() []sequence) []sequence {
	key := memoKey{r, pos}
	if list, ok := s.sequences[key]; ok {
		return list
	}
	list := build()
	s.sequences[key] = list
	return list
}

func (s *parseState) see(pos int) {
	if pos > s.furthest {
		s.furthest = pos
	}
}

func (s *parseState) punct(pos int, tokenType TokenType) (int, bool) {
	if s.tokens[pos].Type != tokenType {
		return pos, false
	}
	s.see(pos + 1)
	return pos + 1, true
}

func (s *parseState) isKeyword(pos int, words ...string) bool {
	token := s.tokens[pos]
	if token.Type != TokenWord && token.Type != TokenUpper {
		return false
	}
	for _, word := range words {
		if strings.EqualFold(token.Value, word) {
			return true
		}
	}
	return false
}

// keywords matches a sequence of single keywords.
func (s *parseState) keywords(pos int, words ...string) (int, bool) {
	for _, word := range words {
		if !s.isKeyword(pos, word) {
			return pos, false
		}
		pos++
	}
	s.see(pos)
	return pos, true
}

var (
	andWords = []string{"and", "et"}
	orWords  = []string{"or", "ou", "and/or"}

	consentWords    = []string{"consent", "permission", "approval"}
	equivalentWords = []string{"equivalent", "équivalent", "l'équivalent", "l’équivalent"}
)

func (s *parseState) connective(pos int, words []string) (int, bool) {
	if !s.isKeyword(pos, words...) {
		return pos, false
	}
	s.see(pos + 1)
	return pos + 1, true
}

func (s *parseState) top(pos int) []derivation {
	return s.memo(ruleTop, pos, func() []derivation {
		var out []derivation
		if next, ok := s.keywords(pos, "none"); ok {
			out = addDerivation(out, derivation{Empty, next})
		}

		for _, groups := range s.semiSequence(pos) {
			if next, ok := s.punct(groups.end, TokenSemicolon); ok {
				if next, ok := s.connective(next, orWords); ok {
					for _, consent := range s.consent(next) {
						out = addDerivation(out, derivation{All(groups.exprs...), consent.end})
					}
				}
			}
			out = addDerivation(out, derivation{All(groups.exprs...), groups.end})
		}
		return out
	})
}

// semiSequence is group { ";" ["and"] group }.
func (s *parseState) semiSequence(pos int) []sequence {
	return s.memoSequence(ruleSemiSeq, pos, func() []sequence {
		var out []sequence
		for _, group := range s.group(pos) {
			if next, ok := s.punct(group.end, TokenSemicolon); ok {
				if after, ok := s.connective(next, andWords); ok {
					next = after
				}
				for _, rest := range s.semiSequence(next) {
					out = addSequence(out, sequence{prepend(group.expr, rest.exprs), rest.end})
				}
			}
			out = addSequence(out, sequence{[]Expr{group.expr}, group.end})
		}
		return out
	})
}

func (s *parseState) group(pos int) []derivation {
	var out []derivation
	for _, conjs := range s.commaSequence(ruleGroupSeq, pos, s.conj) {
		out = addDerivation(out, derivation{All(conjs.exprs...), conjs.end})
	}
	return out
}

// commaSequence is element { "," element }, longest first.
func (s *parseState) commaSequence(r rule, pos int, element func(int) []derivation) []sequence {
	return s.memoSequence(r, pos, func() []sequence {
		var out []sequence
		for _, first := range element(pos) {
			if next, ok := s.punct(first.end, TokenComma); ok {
				for _, rest := range s.commaSequence(r, next, element) {
					out = addSequence(out, sequence{prepend(first.expr, rest.exprs), rest.end})
				}
			}
			out = addSequence(out, sequence{[]Expr{first.expr}, first.end})
		}
		return out
	})
}

func (s *parseState) conj(pos int) []derivation {
	return s.memo(ruleConj, pos, func() []derivation {
		var out []derivation
		for _, head := range s.commaSequence(ruleItemSeq, pos, s.item) {
			for _, comma := range []bool{true, false} {
				for _, tail := range s.andTails(head.end, comma) {
					exprs := append(append([]Expr{}, head.exprs...), tail.exprs...)
					out = addDerivation(out, derivation{All(exprs...), tail.end})
				}
			}
		}
		for _, d := range s.disj(pos) {
			out = addDerivation(out, d)
		}
		return out
	})
}

func (s *parseState) item(pos int) []derivation {
	return s.memo(ruleItem, pos, func() []derivation {
		var out []derivation
		disjs := s.disj(pos)
		for _, d := range disjs {
			out = addDerivation(out, d)
		}
		for _, d := range disjs {
			for _, tail := range s.andTails(d.end, false) {
				out = addDerivation(out, derivation{All(prepend(d.expr, tail.exprs)...), tail.end})
			}
		}
		return out
	})
}

// andTails is one or more and-tails that either all start with a comma or
// all do not.
func (s *parseState) andTails(pos int, comma bool) []sequence {
	r := ruleAndTailsBare
	if comma {
		r = ruleAndTailsComma
	}
	return s.memoSequence(r, pos, func() []sequence {
		next := pos
		if comma {
			var ok bool
			if next, ok = s.punct(pos, TokenComma); !ok {
				return nil
			}
		}
		next, ok := s.connective(next, andWords)
		if !ok {
			return nil
		}

		var out []sequence
		for _, it := range s.item(next) {
			for _, rest := range s.andTails(it.end, comma) {
				out = addSequence(out, sequence{prepend(it.expr, rest.exprs), rest.end})
			}
			out = addSequence(out, sequence{[]Expr{it.expr}, it.end})
		}
		return out
	})
}

func (s *parseState) disj(pos int) []derivation {
	return s.memo(ruleDisj, pos, func() []derivation {
		at := pos
		if next, ok := s.minimumGrade(pos); ok {
			at = next
		}

		var out []derivation
		starts := []int{at}
		afterOneOf, hasOneOf := s.oneOf(at)
		if hasOneOf {
			starts = []int{afterOneOf, at}
		}

		for _, start := range starts {
			for _, head := range s.commaSequence(ruleSimpleSeq, start, s.simpleAtom) {
				for _, tail := range s.orTails(head.end) {
					exprs := append(append([]Expr{}, head.exprs...), tail.exprs...)
					out = addDerivation(out, derivation{Any(exprs...), tail.end})
				}
			}
		}

		if hasOneOf {
			for _, head := range s.commaSequence(ruleSimpleSeq, afterOneOf, s.simpleAtom) {
				out = addDerivation(out, derivation{Any(head.exprs...), head.end})
			}
		}

		for _, a := range s.atom(at) {
			out = addDerivation(out, a)
		}
		return out
	})
}

func (s *parseState) oneOf(pos int) (int, bool) {
	if !s.isKeyword(pos, "one", "any") {
		return pos, false
	}
	return s.keywords(pos+1, "of")
}

// minimumGrade is "a minimum grade of X in".
func (s *parseState) minimumGrade(pos int) (int, bool) {
	next, ok := s.keywords(pos, "a", "minimum", "grade", "of")
	if !ok {
		return pos, false
	}
	switch s.tokens[next].Type {
	case TokenWord, TokenUpper:
	default:
		return pos, false
	}
	return s.keywords(next+1, "in")
}

// orTails is one or more or-tails, each with or without a leading comma.
func (s *parseState) orTails(pos int) []sequence {
	return s.memoSequence(ruleOrTails, pos, func() []sequence {
		next := pos
		if after, ok := s.punct(pos, TokenComma); ok {
			next = after
		}
		next, ok := s.connective(next, orWords)
		if !ok {
			return nil
		}

		var out []sequence
		for _, a := range s.simpleAtom(next) {
			for _, rest := range s.orTails(a.end) {
				out = addSequence(out, sequence{prepend(a.expr, rest.exprs), rest.end})
			}
			out = addSequence(out, sequence{[]Expr{a.expr}, a.end})
		}
		return out
	})
}

func (s *parseState) atom(pos int) []derivation {
	return s.memo(ruleAtom, pos, func() []derivation {
		return s.withSuffixes(s.primary(pos, false))
	})
}

func (s *parseState) simpleAtom(pos int) []derivation {
	return s.memo(ruleSimpleAtom, pos, func() []derivation {
		return s.withSuffixes(s.primary(pos, true))
	})
}

// withSuffixes extends each primary with the optional aside and "or
// equivalent" fillers, longest first. Fillers never change the expression.
func (s *parseState) withSuffixes(primaries []derivation) []derivation {
	var out []derivation
	for _, prim := range primaries {
		for _, afterAside := range s.optional(prim.end, s.aside) {
			for _, afterEquivalent := range s.optional(afterAside, s.orEquivalent) {
				for _, end := range s.optional(afterEquivalent, s.aside) {
					out = addDerivation(out, derivation{prim.expr, end})
				}
			}
		}
	}
	return out
}

func (s *parseState) optional(pos int, match func(int) (int, bool)) []int {
	if next, ok := match(pos); ok {
		return []int{next, pos}
	}
	return []int{pos}
}

// aside is a balanced parenthesised run of any tokens.
func (s *parseState) aside(pos int) (int, bool) {
	if s.tokens[pos].Type != TokenLParen {
		return pos, false
	}
	depth := 0
	for i := pos; i < len(s.tokens); i++ {
		switch s.tokens[i].Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				s.see(i + 1)
				return i + 1, true
			}
		case TokenEnd:
			return pos, false
		}
	}
	return pos, false
}

func (s *parseState) orEquivalent(pos int) (int, bool) {
	next, ok := s.connective(pos, orWords)
	if !ok {
		return pos, false
	}
	if after, ok := s.keywords(next, "its"); ok {
		next = after
	}
	return s.connective(next, equivalentWords)
}

func (s *parseState) primary(pos int, simple bool) []derivation {
	var out []derivation

	if next, ok := s.keywords(pos, "either"); ok {
		for _, a := range s.atom(next) {
			if next, ok := s.connective(a.end, orWords); ok {
				for _, b := range s.atom(next) {
					out = addDerivation(out, derivation{Any(a.expr, b.expr), b.end})
				}
			}
		}
	}
	if next, ok := s.keywords(pos, "both"); ok {
		for _, a := range s.disj(next) {
			if next, ok := s.connective(a.end, andWords); ok {
				for _, b := range s.disj(next) {
					out = addDerivation(out, derivation{All(a.expr, b.expr), b.end})
				}
			}
		}
	}

	if next, ok := s.punct(pos, TokenLParen); ok {
		for _, inner := range s.top(next) {
			if end, ok := s.punct(inner.end, TokenRParen); ok {
				out = addDerivation(out, derivation{inner.expr, end})
			}
		}
	}

	if topic, next, ok := s.topic(pos); ok && s.tokens[next].Type == TokenNumber {
		if !simple {
			for _, d := range s.sharedTopicList(topic, next) {
				out = addDerivation(out, d)
			}
		}
		if d, ok := s.slashList(topic, next); ok {
			out = addDerivation(out, d)
		}
		s.see(next + 1)
		out = addDerivation(out, derivation{Course(topic, s.tokens[next].Value), next + 1})
	}

	if s.tokens[pos].Type == TokenNumber && s.topics[pos] != "" {
		s.see(pos + 1)
		out = addDerivation(out, derivation{Course(s.topics[pos], s.tokens[pos].Value), pos + 1})
	}

	for _, d := range s.consent(pos) {
		out = addDerivation(out, d)
	}
	return out
}

func (s *parseState) topic(pos int) (string, int, bool) {
	end := pos
	for s.tokens[end].Type == TokenUpper {
		end++
	}
	if end == pos {
		return "", pos, false
	}
	return joinValues(s.tokens[pos:end]), end, true
}

// sharedTopicList reads "TOPIC 1, 2 and 3" (or "or 3"), longest first.
func (s *parseState) sharedTopicList(topic string, pos int) []derivation {
	numbers := []Expr{Course(topic, s.tokens[pos].Value)}
	ends := []int{pos + 1}
	for {
		last := ends[len(ends)-1]
		next, ok := s.punct(last, TokenComma)
		if !ok || s.tokens[next].Type != TokenNumber {
			break
		}
		numbers = append(numbers, Course(topic, s.tokens[next].Value))
		ends = append(ends, next+1)
	}

	var out []derivation
	for k := len(ends) - 1; k >= 0; k-- {
		next := ends[k]
		if after, ok := s.punct(next, TokenComma); ok {
			next = after
		}

		join := All
		after, ok := s.connective(next, andWords)
		if !ok {
			join = Any
			if after, ok = s.connective(next, orWords); !ok {
				continue
			}
		}
		if s.tokens[after].Type != TokenNumber {
			continue
		}

		s.see(after + 1)
		members := append(append([]Expr{}, numbers[:k+1]...), Course(topic, s.tokens[after].Value))
		out = addDerivation(out, derivation{join(members...), after + 1})
	}
	return out
}

// slashList reads "TOPIC 1/2/3".
func (s *parseState) slashList(topic string, pos int) (derivation, bool) {
	members := []Expr{Course(topic, s.tokens[pos].Value)}
	end := pos + 1
	for {
		next, ok := s.punct(end, TokenSlash)
		if !ok || s.tokens[next].Type != TokenNumber {
			break
		}
		members = append(members, Course(topic, s.tokens[next].Value))
		end = next + 1
	}
	if len(members) == 1 {
		return derivation{}, false
	}
	s.see(end)
	return derivation{Any(members...), end}, true
}

// consent is a permission phrase such as "consent of the instructor". It
// parses to Empty and takes every following plain word that is not a
// connective, longest first.
func (s *parseState) consent(pos int) []derivation {
	return s.memo(ruleConsent, pos, func() []derivation {
		if !s.isKeyword(pos, consentWords...) {
			return nil
		}
		end := pos + 1
		for s.tokens[end].Type == TokenWord && !s.isKeyword(end, andWords...) && !s.isKeyword(end, orWords...) {
			end++
		}
		s.see(end)

		var out []derivation
		for e := end; e > pos; e-- {
			out = append(out, derivation{Empty, e})
		}
		return out
	})
}
