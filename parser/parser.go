/*
 * parser.go, part of gobasis.
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

//Package parser contains the tokenizer and the recursive-descent machinery
//shared by the basis set and pseudopotential grammars. The grammars themselves
//live in the root package.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser holds a single-token cursor over a Lexer. All the parsing
// methods advance this cursor.
type Parser struct {
	lex     *Lexer
	current Token
	source  string
}

// New returns a parser for input. source is an optional provenance tag,
// it is only used for error messages and for the grammars' bookkeeping.
func New(input, source string) *Parser {
	P := &Parser{lex: NewLexer(input), source: source}
	P.current = P.lex.Next()
	return P
}

// Source returns the provenance tag given at creation.
func (P *Parser) Source() string {
	return P.source
}

// Current returns the token under the cursor.
func (P *Parser) Current() Token {
	return P.current
}

// Next advances the cursor. It does nothing once End has been reached.
func (P *Parser) Next() {
	if P.current.Kind != End {
		P.current = P.lex.Next()
	}
}

// Errorf builds a SyntaxError located at the current token.
func (P *Parser) Errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Source:  P.source,
		Line:    P.current.Line,
		Offset:  P.current.Offset,
	}
}

// Expect fails if the current token is not of kind k. It does not consume it.
func (P *Parser) Expect(k Kind) error {
	if P.current.Kind != k {
		return P.Errorf("expected %s, got %s (%q)", k, P.current.Kind, P.current.Value)
	}
	return nil
}

// Eat consumes the current token if it is of kind k, and fails otherwise.
func (P *Parser) Eat(k Kind) error {
	if err := P.Expect(k); err != nil {
		return err
	}
	P.Next()
	return nil
}

// SkipSpace consumes the current token if it is a space.
func (P *Parser) SkipSpace() {
	if P.current.Kind == Space {
		P.Next()
	}
}

// SkipLine discards everything until the end of the current line,
// the newline included.
func (P *Parser) SkipLine() {
	for P.current.Kind != Newline && P.current.Kind != End {
		P.Next()
	}
	P.Next()
}

// Comment skips a comment (a word starting with '#') and the rest of its line.
// It does nothing if the current token is not a comment.
func (P *Parser) Comment() {
	if P.current.Kind == Word && strings.HasPrefix(P.current.Value, "#") {
		P.SkipLine()
	}
}

// Skip skips comments, blank lines and stray spaces, and stops
// at the first meaningful word (or at End).
func (P *Parser) Skip() {
	for {
		switch {
		case P.current.Kind == End:
			return
		case P.current.Kind == Word && strings.HasPrefix(P.current.Value, "#"):
			P.SkipLine()
		case P.current.Kind == Word:
			return
		default:
			P.Next()
		}
	}
}

// EndOfLine consumes an optional trailing space and the newline
// that terminates a line. End is accepted as an implicit terminator.
func (P *Parser) EndOfLine() error {
	P.SkipSpace()
	switch P.current.Kind {
	case Newline:
		P.Next()
		return nil
	case End:
		return nil
	}
	return P.Errorf("expected end of line, got %q", P.current.Value)
}

// Word consumes a word and returns it.
func (P *Parser) Word() (string, error) {
	if err := P.Expect(Word); err != nil {
		return "", err
	}
	w := P.current.Value
	P.Next()
	return w, nil
}

// Integer consumes a word and returns it as an int.
func (P *Parser) Integer() (int, error) {
	if err := P.Expect(Word); err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(P.current.Value)
	if err != nil {
		return 0, P.Errorf("%q is not an integer", P.current.Value)
	}
	P.Next()
	return i, nil
}

// Float consumes a word and returns it as a float64.
func (P *Parser) Float() (float64, error) {
	if err := P.Expect(Word); err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(P.current.Value, 64)
	if err != nil {
		return 0, P.Errorf("%q is not a number", P.current.Value)
	}
	P.Next()
	return f, nil
}

// Fields reads len(spec) space-separated fields, an optional leading space
// being allowed. Each character of spec gives the kind of the field:
// 'i' for an int, 'n' for a float64 and 'w' for a raw word (string).
// It does not touch what follows the last field.
func (P *Parser) Fields(spec string) ([]interface{}, error) {
	ret := make([]interface{}, 0, len(spec))
	P.SkipSpace()
	for i, code := range spec {
		if i > 0 {
			if P.current.Kind == Newline || P.current.Kind == End {
				return nil, P.Errorf("line too short: %d fields expected, %d found", len(spec), i)
			}
			if err := P.Eat(Space); err != nil {
				return nil, err
			}
		}
		var v interface{}
		var err error
		switch code {
		case 'i':
			v, err = P.Integer()
		case 'n':
			v, err = P.Float()
		case 'w':
			v, err = P.Word()
		default:
			panic(fmt.Sprintf("parser: unknown field code %q", code))
		}
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// Line is like Fields, but also consumes the end of the line, failing if
// anything other than a trailing space remains on it.
func (P *Parser) Line(spec string) ([]interface{}, error) {
	ret, err := P.Fields(spec)
	if err != nil {
		return nil, err
	}
	if err := P.EndOfLine(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Count fails if n items can't follow in the input: n is negative or
// larger than the number of bytes left. Counts read from the input should be
// checked with it before they are used to size anything.
func (P *Parser) Count(n int, what string) error {
	if n < 0 {
		return P.Errorf("negative number of %s", what)
	}
	if left := len(P.lex.input) - P.current.Offset; n > left {
		return P.Errorf("%d %s can't fit in the %d bytes left", n, what, left)
	}
	return nil
}

// Integers reads n space-separated integers.
func (P *Parser) Integers(n int) ([]int, error) {
	if err := P.Count(n, "integers"); err != nil {
		return nil, err
	}
	var ret []int
	P.SkipSpace()
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := P.Eat(Space); err != nil {
				return nil, err
			}
		}
		v, err := P.Integer()
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// Floats reads n space-separated float64s.
func (P *Parser) Floats(n int) ([]float64, error) {
	if err := P.Count(n, "numbers"); err != nil {
		return nil, err
	}
	var ret []float64
	P.SkipSpace()
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := P.Eat(Space); err != nil {
				return nil, err
			}
		}
		v, err := P.Float()
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

// SyntaxError is returned when the input does not follow the grammar.
// It is also used by the binary codec when a stored layout is malformed.
type SyntaxError struct {
	Message string
	Source  string //the provenance tag of the input, if any
	Line    int    //0 if not relevant
	Offset  int
	deco    []string
}

func (E *SyntaxError) Error() string {
	where := E.Source
	if where == "" {
		where = "input"
	}
	if E.Line > 0 {
		return fmt.Sprintf("syntax error in %s, line %d: %s", where, E.Line, E.Message)
	}
	return fmt.Sprintf("syntax error in %s: %s", where, E.Message)
}

// Decorate adds the name of a caller to the error and returns the accumulated
// list. An empty string only returns the current list.
func (E *SyntaxError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}
