// Package lexer turns source text into a linear token stream.
//
// Unlike the teacher's goparsec-based tokenizers, this one walks the
// source with an explicit rune-index cursor rather than head-popping a
// list, per the repo's own design notes on avoiding O(n) front-pop costs.
package lexer

import (
	"fmt"
	"strings"

	"tinyrv.dev/compiler/pkg/token"
)

// Lexer holds the cursor state over an immutable rune slice.
type Lexer struct {
	source []rune
	pos    int
}

// New returns a Lexer positioned at the start of source.
func New(source string) *Lexer {
	return &Lexer{source: []rune(source)}
}

// Tokenize scans source end to end and returns its full token stream,
// terminated by exactly one Eof token. It fails fast: the first
// position matching no rule aborts the scan.
func Tokenize(source string) ([]token.Token, error) {
	return New(source).Tokenize()
}

// Tokenize is the instance form of the package-level Tokenize.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	tokens := []token.Token{}

	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		switch {
		// Rule 1: whitespace
		case isWhitespace(ch):
			l.pos++

		// Rule 2: two-char punctuation, tried before single-char so that
		// e.g. "==" is never split into two "=" tokens.
		case l.matchTwoCharPunct() != "":
			lexeme := l.matchTwoCharPunct()
			tokens = append(tokens, token.Token{Kind: token.Punct, Lexeme: lexeme})
			l.pos += 2

		// Rule 3: single-char punctuation
		case strings.ContainsRune(token.OneCharPuncts, ch):
			tokens = append(tokens, token.Token{Kind: token.Punct, Lexeme: string(ch)})
			l.pos++

		// Rule 4: number literal, tried before idents so a leading digit
		// is never captured as part of an identifier.
		case isDigit(ch):
			rest := string(l.source[l.pos:])
			value, length := token.ParseLeadingInteger(rest)
			lexeme := string(l.source[l.pos : l.pos+length])
			tokens = append(tokens, token.Token{Kind: token.Number, Lexeme: lexeme, Value: value})
			l.pos += length

		// Rule 5: identifier or keyword
		case token.IsIdentStart(ch):
			start := l.pos
			for l.pos < len(l.source) && token.IsIdentCont(l.source[l.pos]) {
				l.pos++
			}
			lexeme := string(l.source[start:l.pos])
			kind := token.Ident
			if token.Keywords[lexeme] {
				kind = token.Keyword
			}
			tokens = append(tokens, token.Token{Kind: kind, Lexeme: lexeme})

		// Rule 6: nothing matched, fatal.
		default:
			return nil, fmt.Errorf("failed to tokenize: %s", string(l.source[l.pos:]))
		}
	}

	tokens = append(tokens, token.Token{Kind: token.Eof})
	return tokens, nil
}

// matchTwoCharPunct returns the two-char punctuation lexeme starting at
// the cursor, or "" if none matches.
func (l *Lexer) matchTwoCharPunct() string {
	if l.pos+1 >= len(l.source) {
		return ""
	}
	candidate := string(l.source[l.pos : l.pos+2])
	for _, op := range token.TwoCharPuncts {
		if candidate == op {
			return op
		}
	}
	return ""
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
