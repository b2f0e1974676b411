/*
 * basisset.go, part of gobasis.
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

const shellLetters = "spdfghikl"

// ShellLetter returns the spectroscopic letter for the angular momentum l.
func ShellLetter(l int) string {
	if l >= 0 && l < len(shellLetters) {
		return shellLetters[l : l+1]
	}
	return "l" + strconv.Itoa(l)
}

// Contraction is a group of primitive gaussians sharing a principal quantum number
// and a range of angular momenta.
type Contraction struct {
	PrincipalN int
	LMin       int
	LMax       int
	NFunc      int   //number of primitives
	NShell     []int //number of shells for each l from LMin to LMax

	Exponents []float64 //one per primitive

	//Coefficients has one row per primitive and one column per (l, shell) pair.
	//It is nil if either dimension is zero.
	Coefficients *mat.Dense
}

// NCoefs is the number of contraction coefficients per primitive.
func (C *Contraction) NCoefs() int {
	n := 0
	for _, v := range C.NShell {
		n += v
	}
	return n
}

func (C *Contraction) equal(o *Contraction) bool {
	if C.PrincipalN != o.PrincipalN || C.LMin != o.LMin || C.LMax != o.LMax || C.NFunc != o.NFunc {
		return false
	}
	if len(C.NShell) != len(o.NShell) {
		return false
	}
	for i := range C.NShell {
		if C.NShell[i] != o.NShell[i] {
			return false
		}
	}
	if len(C.Exponents) != len(o.Exponents) || !floats.Equal(C.Exponents, o.Exponents) {
		return false
	}
	if C.Coefficients == nil || o.Coefficients == nil {
		return C.Coefficients == nil && o.Coefficients == nil
	}
	return mat.Equal(C.Coefficients, o.Coefficients)
}

// AtomicBasisSet is a basis set for one element.
type AtomicBasisSet struct {
	Variant
	Contractions []*Contraction
}

// ImplicitVariant treats the basis set as all-electron: "q" followed by Z.
func (A *AtomicBasisSet) ImplicitVariant() string {
	return "q" + strconv.Itoa(Z(A.Symbol))
}

// CheckVariant does nothing, as a basis set says nothing about its number of electrons.
func (A *AtomicBasisSet) CheckVariant(family, tag string) {}

//shells returns the number of functions per angular momentum, either counting
//primitives (full) or contracted shells.
func (A *AtomicBasisSet) shells(full bool) []int {
	var ret []int
	for _, c := range A.Contractions {
		for i, n := range c.NShell {
			l := c.LMin + i
			for len(ret) <= l {
				ret = append(ret, 0)
			}
			if full {
				ret[l] += n * c.NFunc
			} else {
				ret[l] += n
			}
		}
	}
	return ret
}

func representation(counts []int, open, close string) string {
	parts := make([]string, 0, len(counts))
	for l, n := range counts {
		if n > 0 {
			parts = append(parts, strconv.Itoa(n)+ShellLetter(l))
		}
	}
	return open + strings.Join(parts, ",") + close
}

// FullRepresentation gives the number of primitives per angular momentum, as in "(4s,3p)".
func (A *AtomicBasisSet) FullRepresentation() string {
	return representation(A.shells(true), "(", ")")
}

// ContractedRepresentation gives the number of contracted functions per angular momentum, as in "[2s,1p]".
func (A *AtomicBasisSet) ContractedRepresentation() string {
	return representation(A.shells(false), "[", "]")
}

// String renders the basis set in the CP2K format, preceded by a comment line.
func (A *AtomicBasisSet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s -> %s\n", A.Symbol, A.FullRepresentation(), A.ContractedRepresentation())
	b.WriteString(A.header())
	fmt.Fprintf(&b, "  %d\n", len(A.Contractions))
	for _, c := range A.Contractions {
		fmt.Fprintf(&b, "  %d %d %d %d", c.PrincipalN, c.LMin, c.LMax, c.NFunc)
		for _, n := range c.NShell {
			fmt.Fprintf(&b, " %d", n)
		}
		b.WriteString("\n")
		ncoefs := c.NCoefs()
		for i := 0; i < c.NFunc; i++ {
			b.WriteString(pad(formatFloat(c.Exponents[i]), 16))
			for j := 0; j < ncoefs; j++ {
				b.WriteString(pad(formatFloat(c.Coefficients.At(i, j)), 16))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Equal returns true if both basis sets have the same symbol, names and contractions.
// Source is not compared.
func (A *AtomicBasisSet) Equal(o *AtomicBasisSet) bool {
	if A == nil || o == nil {
		return A == o
	}
	if A.Symbol != o.Symbol || len(A.Names) != len(o.Names) || len(A.Contractions) != len(o.Contractions) {
		return false
	}
	for i := range A.Names {
		if A.Names[i] != o.Names[i] {
			return false
		}
	}
	for i, c := range A.Contractions {
		if !c.equal(o.Contractions[i]) {
			return false
		}
	}
	return true
}

// Dump stores the basis set in g. Contraction i goes to the contraction_<i>_info
// integer dataset (n, lmin, lmax, nfunc, nshell...) and the contraction_<i>_exp_coefs
// float dataset, with one row per primitive: the exponent followed by the coefficients.
func (A *AtomicBasisSet) Dump(g *container.Group) error {
	if err := A.dumpInfo(g); err != nil {
		return err
	}
	if err := g.SetAttr("ncontractions", len(A.Contractions)); err != nil {
		return err
	}
	for i, c := range A.Contractions {
		info := []int64{int64(c.PrincipalN), int64(c.LMin), int64(c.LMax), int64(c.NFunc)}
		for _, n := range c.NShell {
			info = append(info, int64(n))
		}
		if _, err := g.CreateInt64s(fmt.Sprintf("contraction_%d_info", i), []int{len(info)}, info); err != nil {
			return err
		}
		ncoefs := c.NCoefs()
		data := make([]float64, 0, c.NFunc*(1+ncoefs))
		for j := 0; j < c.NFunc; j++ {
			data = append(data, c.Exponents[j])
			for k := 0; k < ncoefs; k++ {
				data = append(data, c.Coefficients.At(j, k))
			}
		}
		if _, err := g.CreateFloat64s(fmt.Sprintf("contraction_%d_exp_coefs", i), []int{c.NFunc, 1 + ncoefs}, data); err != nil {
			return err
		}
	}
	return nil
}

//intAttr reads an integer attribute of g.
func intAttr(g *container.Group, name string) (int, error) {
	v, ok := g.Attr(name)
	if !ok {
		return 0, formatError(g, "missing attribute %s", name)
	}
	i, ok := v.(int64)
	if !ok {
		return 0, formatError(g, "attribute %s must be an integer, not %T", name, v)
	}
	return int(i), nil
}

func int64Dataset(g *container.Group, name string) ([]int64, error) {
	d, err := g.Dataset(name)
	if err != nil {
		return nil, formatError(g, "%v", err)
	}
	ret, err := d.Int64s()
	if err != nil {
		return nil, formatError(g, "%v", err)
	}
	return ret, nil
}

//float64Dataset reads a float dataset and checks its shape.
func float64Dataset(g *container.Group, name string, shape ...int) ([]float64, error) {
	d, err := g.Dataset(name)
	if err != nil {
		return nil, formatError(g, "%v", err)
	}
	s := d.Shape()
	ok := len(s) == len(shape)
	for i := 0; ok && i < len(s); i++ {
		ok = s[i] == shape[i]
	}
	if !ok {
		return nil, formatError(g, "dataset %s must have shape %v, not %v", name, shape, s)
	}
	ret, err := d.Float64s()
	if err != nil {
		return nil, formatError(g, "%v", err)
	}
	return ret, nil
}

// ReadAtomicBasisSet builds a basis set for symbol from what Dump stored in g.
func ReadAtomicBasisSet(symbol string, g *container.Group) (*AtomicBasisSet, error) {
	info, err := readInfo(symbol, g)
	if err != nil {
		return nil, err
	}
	A := &AtomicBasisSet{Variant: info}
	n, err := intAttr(g, "ncontractions")
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, formatError(g, "negative number of contractions")
	}
	for i := 0; i < n; i++ {
		cinfo, err := int64Dataset(g, fmt.Sprintf("contraction_%d_info", i))
		if err != nil {
			return nil, err
		}
		if len(cinfo) < 4 {
			return nil, formatError(g, "contraction_%d_info is too short", i)
		}
		c := &Contraction{PrincipalN: int(cinfo[0]), LMin: int(cinfo[1]), LMax: int(cinfo[2]), NFunc: int(cinfo[3])}
		if c.LMax < c.LMin || c.NFunc < 0 || len(cinfo) != 4+c.LMax-c.LMin+1 {
			return nil, formatError(g, "contraction_%d_info is not consistent", i)
		}
		for _, s := range cinfo[4:] {
			c.NShell = append(c.NShell, int(s))
		}
		ncoefs := c.NCoefs()
		data, err := float64Dataset(g, fmt.Sprintf("contraction_%d_exp_coefs", i), c.NFunc, 1+ncoefs)
		if err != nil {
			return nil, err
		}
		c.Exponents = make([]float64, c.NFunc)
		coefs := make([]float64, 0, c.NFunc*ncoefs)
		for j := 0; j < c.NFunc; j++ {
			row := data[j*(1+ncoefs) : (j+1)*(1+ncoefs)]
			c.Exponents[j] = row[0]
			coefs = append(coefs, row[1:]...)
		}
		if c.NFunc > 0 && ncoefs > 0 {
			c.Coefficients = mat.NewDense(c.NFunc, ncoefs, coefs)
		}
		A.Contractions = append(A.Contractions, c)
	}
	return A, nil
}

// BasisSetParser reads the basis sets in a text in the CP2K format.
type BasisSetParser struct {
	p    *parser.Parser
	done bool
}

// NewBasisSetParser returns a parser for text. If source is not empty, each basis set
// records it, followed by the line where it starts.
func NewBasisSetParser(text, source string) *BasisSetParser {
	return &BasisSetParser{p: parser.New(text, source)}
}

// Variant parses one basis set, starting at the current position. Comments and blank
// lines before it are skipped.
func (B *BasisSetParser) Variant() (*AtomicBasisSet, error) {
	P := B.p
	P.Skip()
	symbol, names, line, err := readHeader(P)
	if err != nil {
		return nil, errDecorate(err, "BasisSetParser.Variant")
	}
	A := &AtomicBasisSet{Variant: Variant{Symbol: symbol, Names: names, Source: sourceTag(P, line)}}
	f, err := P.Fields("i")
	if err != nil {
		return nil, errDecorate(err, "BasisSetParser.Variant")
	}
	P.SkipLine()
	n := f[0].(int)
	if err := P.Count(n, "contractions"); err != nil {
		return nil, errDecorate(err, "BasisSetParser.Variant")
	}
	for i := 0; i < n; i++ {
		c, err := B.contraction()
		if err != nil {
			return nil, errDecorate(err, "BasisSetParser.Variant")
		}
		A.Contractions = append(A.Contractions, c)
	}
	return A, nil
}

func (B *BasisSetParser) contraction() (*Contraction, error) {
	P := B.p
	P.Skip()
	f, err := P.Fields("iiii")
	if err != nil {
		return nil, err
	}
	c := &Contraction{PrincipalN: f[0].(int), LMin: f[1].(int), LMax: f[2].(int), NFunc: f[3].(int)}
	if c.LMin < 0 || c.LMax < c.LMin {
		return nil, P.Errorf("wrong angular momentum range %d-%d", c.LMin, c.LMax)
	}
	if err := P.Count(c.NFunc, "primitives"); err != nil {
		return nil, err
	}
	if err := P.Count(c.LMax-c.LMin+1, "angular momenta"); err != nil {
		return nil, err
	}
	if k := P.Current().Kind; k == parser.Newline || k == parser.End {
		return nil, P.Errorf("missing number of shells")
	}
	c.NShell, err = P.Integers(c.LMax - c.LMin + 1)
	if err != nil {
		return nil, err
	}
	for _, n := range c.NShell {
		if err := P.Count(n, "shells"); err != nil {
			return nil, err
		}
	}
	P.SkipLine()
	ncoefs := c.NCoefs()
	if err := P.Count(ncoefs, "coefficients"); err != nil {
		return nil, err
	}
	var coefs []float64
	for i := 0; i < c.NFunc; i++ {
		row, err := P.Floats(1 + ncoefs)
		if err != nil {
			return nil, err
		}
		P.SkipLine()
		c.Exponents = append(c.Exponents, row[0])
		coefs = append(coefs, row[1:]...)
	}
	if c.NFunc > 0 && ncoefs > 0 {
		c.Coefficients = mat.NewDense(c.NFunc, ncoefs, coefs)
	}
	return c, nil
}

// Next returns the next basis set in the text. After a StatusFailed result, or
// once the text is exhausted, it returns false.
func (B *BasisSetParser) Next() (Result[*AtomicBasisSet], bool) {
	if B.done {
		return Result[*AtomicBasisSet]{}, false
	}
	B.p.Skip()
	if B.p.Current().Kind == parser.End {
		B.done = true
		return Result[*AtomicBasisSet]{}, false
	}
	line := B.p.Current().Line
	A, err := B.Variant()
	if err != nil {
		B.done = true
		return Result[*AtomicBasisSet]{Status: StatusFailed, Err: err, Line: line}, true
	}
	return Result[*AtomicBasisSet]{Data: A, Status: StatusParsed, Symbol: A.Symbol, Names: A.Names, Line: line}, true
}
