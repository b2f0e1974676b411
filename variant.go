/*
 * variant.go, part of gobasis.
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

package basis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rmera/gobasis/container"
	"github.com/rmera/gobasis/parser"
)

// Variant holds what every atomic entry has: the element symbol, all the names
// found in its header line (in order) and, optionally, where it came from.
type Variant struct {
	Symbol string
	Names  []string
	Source string
}

// Info returns V itself, so types embedding a Variant satisfy part of AtomicData.
func (V *Variant) Info() *Variant {
	return V
}

// PreferredName returns the first name containing both variant and family, or
// else the first containing variant, or else the first containing family, or
// else the first name.
func (V *Variant) PreferredName(family, variant string) string {
	if len(V.Names) == 0 {
		return family
	}
	for _, n := range V.Names {
		if strings.Contains(n, variant) && strings.Contains(n, family) {
			return n
		}
	}
	for _, n := range V.Names {
		if strings.Contains(n, variant) {
			return n
		}
	}
	for _, n := range V.Names {
		if strings.Contains(n, family) {
			return n
		}
	}
	return V.Names[0]
}

func (V *Variant) sameHeader(o *Variant) bool {
	if V.Symbol != o.Symbol || len(V.Names) != len(o.Names) {
		return false
	}
	for i := range V.Names {
		if V.Names[i] != o.Names[i] {
			return false
		}
	}
	return true
}

func (V *Variant) header() string {
	return V.Symbol + " " + strings.Join(V.Names, " ") + "\n"
}

//dumpInfo writes the names and source of V in g.
func (V *Variant) dumpInfo(g *container.Group) error {
	if _, err := g.CreateStrings("names", V.Names); err != nil {
		return err
	}
	if V.Source != "" {
		return g.SetAttr("source", V.Source)
	}
	return nil
}

//readInfo reads back what dumpInfo wrote.
func readInfo(symbol string, g *container.Group) (Variant, error) {
	V := Variant{Symbol: symbol}
	d, err := g.Dataset("names")
	if err != nil {
		return V, formatError(g, "%v", err)
	}
	if len(d.Shape()) != 1 {
		return V, formatError(g, "dataset names must be one-dimensional, not %v", d.Shape())
	}
	names, err := d.Strings()
	if err != nil {
		return V, formatError(g, "%v", err)
	}
	V.Names = append([]string(nil), names...)
	if s, ok := g.Attr("source"); ok {
		if str, ok := s.(string); ok {
			V.Source = str
		}
	}
	return V, nil
}

//formatError returns a SyntaxError for a malformed group.
func formatError(g *container.Group, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Source: g.Path()}
}

//formatFloat gives the shortest representation of f that parses back to the same
//value, in fixed notation for "reasonable" magnitudes and in exponent notation otherwise.
func formatFloat(f float64) string {
	a := math.Abs(f)
	if f == 0 || (a >= 1e-4 && a < 1e9) {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'E', -1, 64)
}

//pad right-aligns a formatted number in a column of the given width, with at
//least one leading space so numbers are always separated.
func pad(s string, width int) string {
	if len(s) >= width {
		return " " + s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

//readHeader reads the first line of a record: an element symbol followed by one or more names.
//It returns the normalized symbol, the names and the line where the record starts.
func readHeader(P *parser.Parser) (string, []string, int, error) {
	line := P.Current().Line
	symbol, err := P.Word()
	if err != nil {
		return "", nil, line, err
	}
	if Z(symbol) == 0 {
		lg().Debug("Unknown element symbol", "symbol", symbol, "source", P.Source(), "line", line)
	}
	var names []string
	for {
		P.SkipSpace()
		if k := P.Current().Kind; k == parser.Newline || k == parser.End {
			break
		}
		n, err := P.Word()
		if err != nil {
			return "", nil, line, err
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return "", nil, line, P.Errorf("no name given for %s", symbol)
	}
	if err := P.EndOfLine(); err != nil {
		return "", nil, line, err
	}
	return NormalizeSymbol(symbol), names, line, nil
}

//sourceTag gives the provenance of a record starting at the given line.
func sourceTag(P *parser.Parser, line int) string {
	if P.Source() == "" {
		return ""
	}
	return fmt.Sprintf("%s#L%d", P.Source(), line)
}
