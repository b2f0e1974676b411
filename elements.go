/*
 * elements.go, part of gobasis.
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
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxZ is the largest atomic number known to the library.
const MaxZ = 103

//symbols[Z-1] is the symbol for the element with atomic number Z.
var symbols = [MaxZ]string{
	"H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr",
}

var symbolZ = func() map[string]int {
	m := make(map[string]int, MaxZ)
	for i, s := range symbols {
		m[s] = i + 1
	}
	return m
}()

// NormalizeSymbol capitalizes the first letter of an element symbol and
// lowercases the rest ("FE" and "fe" both give "Fe").
func NormalizeSymbol(symbol string) string {
	if symbol == "" {
		return ""
	}
	//a Caser keeps state, so it can't be shared by concurrent readers.
	_, n := utf8.DecodeRuneInString(symbol)
	return cases.Upper(language.Und).String(symbol[:n]) + cases.Lower(language.Und).String(symbol[n:])
}

// Z returns the atomic number for symbol, or 0 if the symbol is unknown.
// The symbol is normalized first.
func Z(symbol string) int {
	return symbolZ[NormalizeSymbol(symbol)]
}

// Symbol returns the symbol of the element with atomic number z,
// or the empty string if z is out of range.
func Symbol(z int) string {
	if z < 1 || z > MaxZ {
		return ""
	}
	return symbols[z-1]
}

// ElementSet is a set of elements, stored as atomic numbers.
// The zero value is an empty set.
type ElementSet struct {
	z map[int]struct{}
}

// NewElementSet returns a set with the given symbols. Unknown symbols are an error.
func NewElementSet(elements ...string) (ElementSet, error) {
	E := ElementSet{z: make(map[int]struct{}, len(elements))}
	for _, e := range elements {
		z, err := parseZ(e)
		if err != nil {
			return ElementSet{}, err
		}
		E.z[z] = struct{}{}
	}
	return E, nil
}

func setFromZ(zs map[int]struct{}) ElementSet {
	return ElementSet{z: zs}
}

//parseZ accepts either a symbol or an atomic number.
func parseZ(w string) (int, error) {
	w = strings.TrimSpace(w)
	z, err := strconv.Atoi(w)
	if err != nil {
		z = Z(w)
		if z == 0 {
			return 0, fmt.Errorf("%q is not a valid element", w)
		}
	}
	if z < 1 || z > MaxZ {
		return 0, fmt.Errorf("%q is not a valid Z value", w)
	}
	return z, nil
}

// ParseElementSet builds a set from a comma-separated list of symbols, atomic numbers
// and ranges, as in "H-Ne,Cl,26". The bounds of a range can be given in any order.
func ParseElementSet(input string) (ElementSet, error) {
	ret := make(map[int]struct{})
	for _, elmt := range strings.Split(input, ",") {
		if strings.Contains(elmt, "-") {
			rng := strings.Split(elmt, "-")
			if len(rng) != 2 {
				return ElementSet{}, fmt.Errorf("range %q should be two elements", elmt)
			}
			start, err := parseZ(rng[0])
			if err != nil {
				return ElementSet{}, err
			}
			end, err := parseZ(rng[1])
			if err != nil {
				return ElementSet{}, err
			}
			if start > end {
				start, end = end, start
			}
			for z := start; z <= end; z++ {
				ret[z] = struct{}{}
			}
			continue
		}
		z, err := parseZ(elmt)
		if err != nil {
			return ElementSet{}, err
		}
		ret[z] = struct{}{}
	}
	return setFromZ(ret), nil
}

// Len is the number of elements in the set.
func (E ElementSet) Len() int {
	return len(E.z)
}

// Contains returns true if the element with the given symbol is in the set.
func (E ElementSet) Contains(symbol string) bool {
	_, ok := E.z[Z(symbol)]
	return ok
}

// SubsetOf returns true if every element of E is in other.
func (E ElementSet) SubsetOf(other ElementSet) bool {
	for z := range E.z {
		if _, ok := other.z[z]; !ok {
			return false
		}
	}
	return true
}

// Equal returns true if both sets have the same elements.
func (E ElementSet) Equal(other ElementSet) bool {
	return E.Len() == other.Len() && E.SubsetOf(other)
}

// Union returns a new set with the elements of both sets.
func (E ElementSet) Union(other ElementSet) ElementSet {
	ret := make(map[int]struct{}, len(E.z)+len(other.z))
	for z := range E.z {
		ret[z] = struct{}{}
	}
	for z := range other.z {
		ret[z] = struct{}{}
	}
	return setFromZ(ret)
}

// Intersection returns a new set with the elements present in both sets.
func (E ElementSet) Intersection(other ElementSet) ElementSet {
	ret := make(map[int]struct{})
	for z := range E.z {
		if _, ok := other.z[z]; ok {
			ret[z] = struct{}{}
		}
	}
	return setFromZ(ret)
}

// Difference returns a new set with the elements of E which are not in other.
func (E ElementSet) Difference(other ElementSet) ElementSet {
	ret := make(map[int]struct{})
	for z := range E.z {
		if _, ok := other.z[z]; !ok {
			ret[z] = struct{}{}
		}
	}
	return setFromZ(ret)
}

// Symbols returns the symbols in the set, sorted by atomic number.
func (E ElementSet) Symbols() []string {
	zs := make([]int, 0, len(E.z))
	for z := range E.z {
		zs = append(zs, z)
	}
	sort.Ints(zs)
	ret := make([]string, len(zs))
	for i, z := range zs {
		ret[i] = Symbol(z)
	}
	return ret
}

func (E ElementSet) String() string {
	return strings.Join(E.Symbols(), ",")
}

// SortSymbols sorts symbols in place by atomic number. Unknown symbols go last,
// in alphabetical order.
func SortSymbols(syms []string) {
	sort.SliceStable(syms, func(i, j int) bool {
		zi, zj := Z(syms[i]), Z(syms[j])
		switch {
		case zi == 0 && zj == 0:
			return syms[i] < syms[j]
		case zi == 0:
			return false
		case zj == 0:
			return true
		}
		return zi < zj
	})
}

//position returns the row and column of element z in the printed periodic table.
//Rows are 0-based. Lanthanides and actinides go to rows 8 and 9 (after a blank row), from column 3.
func position(z int) (int, int) {
	switch {
	case z == 1:
		return 0, 0
	case z == 2:
		return 0, 17
	case z <= 10:
		return 1, groupColumn(z - 2)
	case z <= 18:
		return 2, groupColumn(z - 10)
	case z <= 36:
		return 3, z - 19
	case z <= 54:
		return 4, z - 37
	case z <= 56:
		return 5, z - 55
	case z <= 71:
		return 8, z - 57 + 3
	case z <= 86:
		return 5, z - 72 + 3
	case z <= 88:
		return 6, z - 87
	default:
		return 9, z - 89 + 3
	}
}

//groupColumn maps the i-th (1-based) element of a short period to its column.
func groupColumn(i int) int {
	if i <= 2 {
		return i - 1
	}
	return i + 9
}

// Availability returns a periodic table where the elements in available are shown
// by their symbol and the others by "..". Only the first 103 elements are drawn.
func Availability(name string, available []string) string {
	avail := make(map[int]bool, len(available))
	for _, s := range available {
		if z := Z(s); z > 0 {
			avail[z] = true
		}
	}
	var grid [10][18]string
	for z := 1; z <= MaxZ; z++ {
		r, c := position(z)
		if avail[z] {
			grid[r][c] = Symbol(z)
		} else {
			grid[r][c] = ".."
		}
	}
	grid[5][2] = "* "
	grid[6][2] = "**"
	grid[8][2] = "* "
	grid[9][2] = "**"
	var b strings.Builder
	fmt.Fprintf(&b, "Available for %s:\n\n", name)
	for _, row := range grid {
		last := -1
		for i, cell := range row {
			if cell != "" {
				last = i
			}
		}
		cells := make([]string, last+1)
		for i := 0; i <= last; i++ {
			cells[i] = fmt.Sprintf("%-2s", row[i])
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteString("\n")
	}
	return b.String()
}
