/*
 * lexer.go, part of gobasis.
 *
 * Copyright 2026 The gobasis Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package parser

import "fmt"

// Kind is the kind of a token.
type Kind int

const (
	Word Kind = iota
	Space
	Newline
	End
)

func (K Kind) String() string {
	switch K {
	case Word:
		return "WORD"
	case Space:
		return "SPACE"
	case Newline:
		return "NEWLINE"
	case End:
		return "END"
	}
	return fmt.Sprintf("Kind(%d)", int(K))
}

// Token is one lexical unit of the input. Offset is the byte offset of the first
// character of the token, Line the (1-based) line where the token starts.
type Token struct {
	Kind   Kind
	Value  string
	Offset int
	Line   int
}

func (T Token) String() string {
	return fmt.Sprintf("Token(%s, %q, line %d)", T.Kind, T.Value, T.Line)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isNewline(c byte) bool {
	return c == '\n' || c == '\r'
}

// Lexer splits a text in words separated by spaces and newlines.
// It never fails: once the input is exhausted it returns an End token
// on every call.
type Lexer struct {
	input string
	pos   int
	line  int
}

// NewLexer returns a lexer for the given text.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1}
}

// Next returns the next token.
func (L *Lexer) Next() Token {
	if L.pos >= len(L.input) {
		return Token{Kind: End, Value: "", Offset: len(L.input), Line: L.line}
	}
	start := L.pos
	line := L.line
	c := L.input[start]
	var kind Kind
	switch {
	case isSpace(c):
		kind = Space
		L.advance(isSpace)
	case isNewline(c):
		kind = Newline
		L.advance(isNewline)
		L.line += countLines(L.input[start:L.pos])
	default:
		kind = Word
		L.advance(func(b byte) bool { return !isSpace(b) && !isNewline(b) })
	}
	return Token{Kind: kind, Value: L.input[start:L.pos], Offset: start, Line: line}
}

func (L *Lexer) advance(mustBe func(byte) bool) {
	L.pos++
	for L.pos < len(L.input) && mustBe(L.input[L.pos]) {
		L.pos++
	}
}

// countLines counts the line breaks in a run of newline characters.
// "\r\n" counts as a single break, as does a lone "\r".
func countLines(run string) int {
	n := 0
	for i := 0; i < len(run); i++ {
		if run[i] == '\r' && i+1 < len(run) && run[i+1] == '\n' {
			continue
		}
		n++
	}
	return n
}

// Tokenize returns all the tokens in input, the last one being
// the End token.
func Tokenize(input string) []Token {
	L := NewLexer(input)
	ret := make([]Token, 0, len(input)/4+1)
	for {
		t := L.Next()
		ret = append(ret, t)
		if t.Kind == End {
			return ret
		}
	}
}
