package requisites

import (
	"strings"
	"unicode"
)

type TokenType int

const (
	TokenWord TokenType = iota
	TokenUpper
	TokenNumber
	TokenComma
	TokenSemicolon
	TokenSlash
	TokenLParen
	TokenRParen
	TokenEnd
)

type Token struct {
	Type  TokenType
	Value string
	// Offset is the byte offset of the token in the tokenized text.
	Offset int
}

type LexerState int

const (
	LexerStart LexerState = iota
	LexerWord
)

var punctuation = map[rune]TokenType{
	',': TokenComma,
	';': TokenSemicolon,
	'/': TokenSlash,
	'(': TokenLParen,
	')': TokenRParen,
}

// Tokenize splits a requirement clause into tokens and always ends the result
// with a TokenEnd.
func Tokenize(text string) []Token {
	initialPos := 0
	state := LexerStart

	var tokens []Token
	flush := func(end int) {
		if state == LexerWord {
			tokens = append(tokens, classifyWord(text[initialPos:end], initialPos)...)
			state = LexerStart
		}
	}

	for pos, char := range text {
		punct, isPunct := punctuation[char]
		switch {
		case unicode.IsSpace(char):
			flush(pos)
		case isPunct:
			flush(pos)
			tokens = append(tokens, Token{Type: punct, Value: string(char), Offset: pos})
		case state == LexerStart:
			initialPos = pos
			state = LexerWord
		}
	}
	flush(len(text))

	tokens = mergeAndOr(tokens)
	return append(tokens, Token{Type: TokenEnd, Value: "$", Offset: len(text)})
}

// classifyWord turns a run of non separator characters into one token, or two
// when an uppercase topic is glued to its number ("PH131").
func classifyWord(word string, offset int) []Token {
	letters := strings.IndexFunc(word, func(r rune) bool { return !isUpperASCII(r) })
	switch {
	case letters < 0:
		return []Token{{Type: TokenUpper, Value: word, Offset: offset}}
	case letters == 0:
		if isDigits(word) {
			return []Token{{Type: TokenNumber, Value: word, Offset: offset}}
		}
	case isDigits(word[letters:]):
		return []Token{
			{Type: TokenUpper, Value: word[:letters], Offset: offset},
			{Type: TokenNumber, Value: word[letters:], Offset: offset + letters},
		}
	}
	return []Token{{Type: TokenWord, Value: word, Offset: offset}}
}

func mergeAndOr(tokens []Token) []Token {
	merged := tokens[:0:0]
	for i := 0; i < len(tokens); i++ {
		if i+2 < len(tokens) &&
			tokens[i].Type == TokenWord && strings.EqualFold(tokens[i].Value, "and") &&
			tokens[i+1].Type == TokenSlash &&
			tokens[i+2].Type == TokenWord && strings.EqualFold(tokens[i+2].Value, "or") {
			merged = append(merged, Token{Type: TokenWord, Value: "and/or", Offset: tokens[i].Offset})
			i += 2
			continue
		}
		merged = append(merged, tokens[i])
	}
	return merged
}

func isUpperASCII(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
