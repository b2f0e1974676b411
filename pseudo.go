/*
 * pseudo.go, part of gobasis.
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
	"strconv"
	"strings"

	"github.com/rmera/gobasis/container"
	"github.com/rmera/gobasis/parser"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// AllElectron is the name of the family holding all-electron "pseudopotentials".
const AllElectron = "ALL"

// NonLocalProjector is one of the separable non-local terms of a GTH pseudopotential.
type NonLocalProjector struct {
	Radius float64
	Rank   int
	//Coefficients is the upper triangle of the symmetric Rank×Rank matrix, nil if Rank is 0.
	Coefficients *mat.TriDense
}

// NewNonLocalProjector returns a projector with the given radius. rows[i] holds
// the elements i..rank-1 of the i-th row of the coefficient matrix.
func NewNonLocalProjector(radius float64, rows ...[]float64) (*NonLocalProjector, error) {
	N := &NonLocalProjector{Radius: radius, Rank: len(rows)}
	if N.Rank == 0 {
		return N, nil
	}
	N.Coefficients = mat.NewTriDense(N.Rank, mat.Upper, nil)
	for i, row := range rows {
		if len(row) != N.Rank-i {
			return nil, fmt.Errorf("row %d of a rank %d projector must have %d coefficients, not %d", i, N.Rank, N.Rank-i, len(row))
		}
		for j, v := range row {
			N.Coefficients.SetTri(i, i+j, v)
		}
	}
	return N, nil
}

//upper returns the upper triangle of the coefficients, row by row.
func (N *NonLocalProjector) upper() []float64 {
	ret := make([]float64, 0, N.Rank*(N.Rank+1)/2)
	for i := 0; i < N.Rank; i++ {
		for j := i; j < N.Rank; j++ {
			ret = append(ret, N.Coefficients.At(i, j))
		}
	}
	return ret
}

func (N *NonLocalProjector) equal(o *NonLocalProjector) bool {
	if N.Radius != o.Radius || N.Rank != o.Rank {
		return false
	}
	if N.Rank == 0 {
		return true
	}
	return mat.Equal(N.Coefficients, o.Coefficients)
}

// AtomicPseudopotential is a GTH pseudopotential for one element.
type AtomicPseudopotential struct {
	Variant
	NElec             []int //number of valence electrons per shell
	LocalRadius       float64
	LocalCoefficients []float64
	Projectors        []*NonLocalProjector
}

// Valence is the total number of electrons treated explicitly.
func (A *AtomicPseudopotential) Valence() int {
	n := 0
	for _, e := range A.NElec {
		n += e
	}
	return n
}

// PreferredName is Variant.PreferredName, except for the all-electron family, which is always AllElectron.
func (A *AtomicPseudopotential) PreferredName(family, variant string) string {
	if family == AllElectron {
		return AllElectron
	}
	return A.Variant.PreferredName(family, variant)
}

// ImplicitVariant is "q" followed by the number of valence electrons.
func (A *AtomicPseudopotential) ImplicitVariant() string {
	return "q" + strconv.Itoa(A.Valence())
}

// CheckVariant logs a warning if tag does not give the number of valence electrons
// of the pseudopotential.
func (A *AtomicPseudopotential) CheckVariant(family, tag string) {
	if tag != A.ImplicitVariant() {
		lg().Warn("Variant does not match the number of valence electrons",
			"family", family, "symbol", A.Symbol, "variant", tag, "valence", A.Valence())
	}
}

// String renders the pseudopotential in the CP2K format, preceded by a comment line.
func (A *AtomicPseudopotential) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n", A.Symbol, A.ImplicitVariant())
	b.WriteString(A.header())
	for _, e := range A.NElec {
		fmt.Fprintf(&b, "%5d", e)
	}
	b.WriteString("\n")
	b.WriteString(pad(formatFloat(A.LocalRadius), 15))
	fmt.Fprintf(&b, "%5d", len(A.LocalCoefficients))
	for _, c := range A.LocalCoefficients {
		b.WriteString(pad(formatFloat(c), 16))
	}
	fmt.Fprintf(&b, "\n%5d\n", len(A.Projectors))
	for _, p := range A.Projectors {
		b.WriteString(pad(formatFloat(p.Radius), 15))
		fmt.Fprintf(&b, "%5d", p.Rank)
		for i := 0; i < p.Rank; i++ {
			if i > 0 {
				b.WriteString(strings.Repeat(" ", 20+16*i))
			}
			for j := i; j < p.Rank; j++ {
				b.WriteString(pad(formatFloat(p.Coefficients.At(i, j)), 16))
			}
			b.WriteString("\n")
		}
		if p.Rank == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Equal returns true if both pseudopotentials have the same symbol, names and
// parameters. Source is not compared.
func (A *AtomicPseudopotential) Equal(o *AtomicPseudopotential) bool {
	if A == nil || o == nil {
		return A == o
	}
	if A.Symbol != o.Symbol || len(A.Names) != len(o.Names) || len(A.NElec) != len(o.NElec) {
		return false
	}
	for i := range A.Names {
		if A.Names[i] != o.Names[i] {
			return false
		}
	}
	for i := range A.NElec {
		if A.NElec[i] != o.NElec[i] {
			return false
		}
	}
	if A.LocalRadius != o.LocalRadius || len(A.LocalCoefficients) != len(o.LocalCoefficients) {
		return false
	}
	if !floats.Equal(A.LocalCoefficients, o.LocalCoefficients) || len(A.Projectors) != len(o.Projectors) {
		return false
	}
	for i, p := range A.Projectors {
		if !p.equal(o.Projectors[i]) {
			return false
		}
	}
	return true
}

// Dump stores the pseudopotential in g. The info dataset holds the number of local
// coefficients, the number of projectors, the rank of each projector and the
// electrons per shell. local_radius_coefs holds the local radius followed by the local
// coefficients and nlprojector_<i>_radius_coefs the radius of projector i followed by the
// upper triangle of its coefficients, row by row.
func (A *AtomicPseudopotential) Dump(g *container.Group) error {
	if err := A.dumpInfo(g); err != nil {
		return err
	}
	info := []int64{int64(len(A.LocalCoefficients)), int64(len(A.Projectors))}
	for _, p := range A.Projectors {
		info = append(info, int64(p.Rank))
	}
	for _, e := range A.NElec {
		info = append(info, int64(e))
	}
	if _, err := g.CreateInt64s("info", []int{len(info)}, info); err != nil {
		return err
	}
	local := append([]float64{A.LocalRadius}, A.LocalCoefficients...)
	if _, err := g.CreateFloat64s("local_radius_coefs", []int{len(local)}, local); err != nil {
		return err
	}
	for i, p := range A.Projectors {
		data := append([]float64{p.Radius}, p.upper()...)
		if _, err := g.CreateFloat64s(fmt.Sprintf("nlprojector_%d_radius_coefs", i), []int{len(data)}, data); err != nil {
			return err
		}
	}
	return nil
}

// ReadAtomicPseudopotential builds a pseudopotential for symbol from what Dump stored in g.
func ReadAtomicPseudopotential(symbol string, g *container.Group) (*AtomicPseudopotential, error) {
	vinfo, err := readInfo(symbol, g)
	if err != nil {
		return nil, err
	}
	A := &AtomicPseudopotential{Variant: vinfo}
	info, err := int64Dataset(g, "info")
	if err != nil {
		return nil, err
	}
	if len(info) < 2 || info[0] < 0 || info[1] < 0 || info[1] > int64(len(info)-2) {
		return nil, formatError(g, "dataset info is not consistent")
	}
	nlocal, nproj := int(info[0]), int(info[1])
	ranks := info[2 : 2+nproj]
	for _, e := range info[2+nproj:] {
		A.NElec = append(A.NElec, int(e))
	}
	local, err := float64Dataset(g, "local_radius_coefs", 1+nlocal)
	if err != nil {
		return nil, err
	}
	A.LocalRadius = local[0]
	A.LocalCoefficients = append([]float64{}, local[1:]...)
	for i, r := range ranks {
		name := fmt.Sprintf("nlprojector_%d_radius_coefs", i)
		d, err := g.Dataset(name)
		if err != nil {
			return nil, formatError(g, "%v", err)
		}
		//a rank r projector stores at least r numbers
		if r < 0 || r > int64(d.Len()) {
			return nil, formatError(g, "wrong rank %d for projector %d", r, i)
		}
		rank := int(r)
		data, err := float64Dataset(g, name, 1+rank*(rank+1)/2)
		if err != nil {
			return nil, err
		}
		rows := make([][]float64, rank)
		k := 1
		for j := range rows {
			rows[j] = data[k : k+rank-j]
			k += rank - j
		}
		p, err := NewNonLocalProjector(data[0], rows...)
		if err != nil {
			return nil, formatError(g, "%v", err)
		}
		A.Projectors = append(A.Projectors, p)
	}
	return A, nil
}

// PseudopotentialParser reads the GTH pseudopotentials in a text in the CP2K format.
type PseudopotentialParser struct {
	p    *parser.Parser
	done bool
}

// NewPseudopotentialParser returns a parser for text. If source is not empty, each
// pseudopotential records it, followed by the line where it starts.
func NewPseudopotentialParser(text, source string) *PseudopotentialParser {
	return &PseudopotentialParser{p: parser.New(text, source)}
}

// Variant parses one pseudopotential, starting at the current position. Comments and
// blank lines before it are skipped. If the record is marked as not available ("NA"
// instead of the electrons per shell), it returns StatusUnavailable and a record
// with only its symbol and names set. The parser is then left at the start of the next record.
// On success, the returned pseudopotential always comes with StatusParsed.
func (G *PseudopotentialParser) Variant() (*AtomicPseudopotential, Status, error) {
	P := G.p
	P.Skip()
	symbol, names, line, err := readHeader(P)
	if err != nil {
		return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
	}
	A := &AtomicPseudopotential{Variant: Variant{Symbol: symbol, Names: names, Source: sourceTag(P, line)}}
	P.SkipSpace()
	if t := P.Current(); t.Kind == parser.Word && t.Value == "NA" {
		P.SkipLine()
		return A, StatusUnavailable, nil
	}
	if A.NElec, err = electrons(P); err != nil {
		return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
	}
	if err = G.local(A); err != nil {
		return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
	}
	f, err := P.Fields("i")
	if err != nil {
		return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
	}
	P.SkipLine()
	nproj := f[0].(int)
	if err := P.Count(nproj, "projectors"); err != nil {
		return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
	}
	for i := 0; i < nproj; i++ {
		p, err := G.projector()
		if err != nil {
			return nil, StatusFailed, errDecorate(err, "PseudopotentialParser.Variant")
		}
		A.Projectors = append(A.Projectors, p)
	}
	return A, StatusParsed, nil
}

//electrons reads the line with the number of electrons per shell. Words that are not
//integers are ignored.
func electrons(P *parser.Parser) ([]int, error) {
	var ret []int
	for {
		t := P.Current()
		if t.Kind == parser.Newline || t.Kind == parser.End {
			break
		}
		if t.Kind == parser.Word {
			n, err := strconv.Atoi(t.Value)
			if err != nil {
				lg().Debug("Ignoring word in the electrons per shell", "word", t.Value, "source", P.Source(), "line", t.Line)
			} else {
				ret = append(ret, n)
			}
		}
		P.Next()
	}
	if len(ret) == 0 {
		return nil, P.Errorf("no number of electrons given")
	}
	P.Next()
	return ret, nil
}

//local reads the radius and coefficients of the local part.
func (G *PseudopotentialParser) local(A *AtomicPseudopotential) error {
	P := G.p
	f, err := P.Fields("ni")
	if err != nil {
		return err
	}
	A.LocalRadius = f[0].(float64)
	n := f[1].(int)
	if err := P.Count(n, "local coefficients"); err != nil {
		return err
	}
	A.LocalCoefficients = []float64{}
	if n > 0 {
		if A.LocalCoefficients, err = P.Floats(n); err != nil {
			return err
		}
	}
	P.SkipLine()
	return nil
}

//projector reads a non-local projector. The first row of coefficients can be either
//on the same line as the radius and rank or on the next one.
func (G *PseudopotentialParser) projector() (*NonLocalProjector, error) {
	P := G.p
	f, err := P.Fields("ni")
	if err != nil {
		return nil, err
	}
	radius, rank := f[0].(float64), f[1].(int)
	if err := P.Count(rank, "projector rows"); err != nil {
		return nil, err
	}
	if rank == 0 {
		P.SkipLine()
		return NewNonLocalProjector(radius)
	}
	P.SkipSpace()
	if P.Current().Kind != parser.Word {
		if err := P.EndOfLine(); err != nil {
			return nil, err
		}
	}
	rows := make([][]float64, rank)
	for i := range rows {
		if rows[i], err = P.Floats(rank - i); err != nil {
			return nil, err
		}
		P.SkipLine()
	}
	return NewNonLocalProjector(radius, rows...)
}

// Next returns the next pseudopotential in the text. Records marked as not available
// give a StatusUnavailable result. After a StatusFailed result, or once the text is
// exhausted, it returns false.
func (G *PseudopotentialParser) Next() (Result[*AtomicPseudopotential], bool) {
	if G.done {
		return Result[*AtomicPseudopotential]{}, false
	}
	G.p.Skip()
	if G.p.Current().Kind == parser.End {
		G.done = true
		return Result[*AtomicPseudopotential]{}, false
	}
	line := G.p.Current().Line
	symbol := NormalizeSymbol(G.p.Current().Value)
	A, status, err := G.Variant()
	switch status {
	case StatusFailed:
		G.done = true
		return Result[*AtomicPseudopotential]{Status: StatusFailed, Err: err, Symbol: symbol, Line: line}, true
	case StatusUnavailable:
		lg().Info("Pseudopotential not available", "symbol", symbol, "source", G.p.Source(), "line", line)
		return Result[*AtomicPseudopotential]{Status: StatusUnavailable, Symbol: A.Symbol, Names: A.Names, Line: line}, true
	}
	return Result[*AtomicPseudopotential]{Data: A, Status: StatusParsed, Symbol: A.Symbol, Names: A.Names, Line: line}, true
}
