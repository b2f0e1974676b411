/*
 * storage.go, part of gobasis.
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
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rmera/gobasis/container"
)

const (
	BasisSetsKind        = "basis_sets"
	PseudopotentialsKind = "pseudopotentials"
)

// AtomicVariants holds the variants of one element in a family, by tag.
type AtomicVariants[T AtomicData] struct {
	Symbol   string
	variants map[string]T
	order    []string
}

func newAtomicVariants[T AtomicData](symbol string) *AtomicVariants[T] {
	return &AtomicVariants[T]{Symbol: symbol, variants: make(map[string]T)}
}

// Variant returns the variant with the given tag.
func (A *AtomicVariants[T]) Variant(tag string) (T, error) {
	d, ok := A.variants[tag]
	if !ok {
		return d, &NotFoundError{What: "variant", Name: tag, In: A.Symbol}
	}
	return d, nil
}

// Tags returns the variant tags, in insertion order.
func (A *AtomicVariants[T]) Tags() []string {
	return append([]string(nil), A.order...)
}

// Len is the number of variants.
func (A *AtomicVariants[T]) Len() int {
	return len(A.order)
}

// String renders every variant, in insertion order.
func (A *AtomicVariants[T]) String() string {
	var b strings.Builder
	for _, t := range A.order {
		b.WriteString(A.variants[t].String())
	}
	return b.String()
}

func (A *AtomicVariants[T]) add(tag string, d T) bool {
	if _, ok := A.variants[tag]; ok {
		return false
	}
	A.variants[tag] = d
	A.order = append(A.order, tag)
	return true
}

// FamilyStorage holds the data of one family, by element.
type FamilyStorage[T AtomicData] struct {
	Name     string
	Metadata Metadata
	elements map[string]*AtomicVariants[T]
	order    []string
}

func newFamilyStorage[T AtomicData](name string) *FamilyStorage[T] {
	return &FamilyStorage[T]{Name: name, Metadata: Metadata{}, elements: make(map[string]*AtomicVariants[T])}
}

// Element returns the variants for the element with the given symbol.
func (F *FamilyStorage[T]) Element(symbol string) (*AtomicVariants[T], error) {
	a, ok := F.elements[NormalizeSymbol(symbol)]
	if !ok {
		return nil, &NotFoundError{What: "element", Name: symbol, In: F.Name}
	}
	return a, nil
}

// Elements returns the symbols of the elements in the family, sorted by atomic number.
func (F *FamilyStorage[T]) Elements() []string {
	ret := append([]string(nil), F.order...)
	SortSymbols(ret)
	return ret
}

// String renders every element of the family, sorted by atomic number.
func (F *FamilyStorage[T]) String() string {
	var b strings.Builder
	for _, s := range F.Elements() {
		b.WriteString(F.elements[s].String())
	}
	return b.String()
}

//insert fails with a DuplicateError if the element already has a variant with that tag.
func (F *FamilyStorage[T]) insert(tag string, d T) error {
	symbol := d.Info().Symbol
	a, ok := F.elements[symbol]
	if !ok {
		a = newAtomicVariants[T](symbol)
		F.elements[symbol] = a
		F.order = append(F.order, symbol)
	}
	if !a.add(tag, d) {
		return &DuplicateError{Family: F.Name, Symbol: symbol, Variant: tag}
	}
	return nil
}

// Stats counts what happened to the records given to Storage.Update.
type Stats struct {
	Parsed      int //records successfully parsed
	Unavailable int //records marked as not available
	Dropped     int //records no rule gave a family or variant for
	Inserted    int //(family, element, variant) entries created
}

func (S Stats) String() string {
	return fmt.Sprintf("%d parsed, %d unavailable, %d dropped, %d inserted", S.Parsed, S.Unavailable, S.Dropped, S.Inserted)
}

// Storage holds all the families of one kind (basis sets or pseudopotentials).
// It is meant to be built by one goroutine and only read afterwards.
type Storage[T AtomicData] struct {
	kind     string
	parse    func(text, source string) Iterator[T]
	read     func(symbol string, g *container.Group) (T, error)
	families map[string]*FamilyStorage[T]

	elementsPerFamily map[string][]string
	tagsPerFamily     map[string][]string

	DateBuild time.Time
	metrics   *Metrics
}

// NewStorage returns an empty storage for the given kind. parse gives the records in a text,
// and is used by ParseAndUpdate. read builds one record from a container group, and is used by Read.
func NewStorage[T AtomicData](kind string, parse func(text, source string) Iterator[T], read func(symbol string, g *container.Group) (T, error)) *Storage[T] {
	return &Storage[T]{
		kind:              kind,
		parse:             parse,
		read:              read,
		families:          make(map[string]*FamilyStorage[T]),
		elementsPerFamily: make(map[string][]string),
		tagsPerFamily:     make(map[string][]string),
	}
}

// NewBasisSetsStorage returns an empty storage for basis sets.
func NewBasisSetsStorage() *Storage[*AtomicBasisSet] {
	parse := func(text, source string) Iterator[*AtomicBasisSet] {
		return NewBasisSetParser(text, source)
	}
	return NewStorage(BasisSetsKind, parse, ReadAtomicBasisSet)
}

// NewPseudopotentialsStorage returns an empty storage for pseudopotentials.
func NewPseudopotentialsStorage() *Storage[*AtomicPseudopotential] {
	parse := func(text, source string) Iterator[*AtomicPseudopotential] {
		return NewPseudopotentialParser(text, source)
	}
	return NewStorage(PseudopotentialsKind, parse, ReadAtomicPseudopotential)
}

// Kind returns the kind of the storage, which is also the name of its group in a container.
func (S *Storage[T]) Kind() string {
	return S.kind
}

// SetMetrics makes Update report to m. nil disables the reports.
func (S *Storage[T]) SetMetrics(m *Metrics) {
	S.metrics = m
}

// Families returns the sorted family names.
func (S *Storage[T]) Families() []string {
	ret := make([]string, 0, len(S.families))
	for k := range S.families {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// Family returns the family with the given name.
func (S *Storage[T]) Family(name string) (*FamilyStorage[T], error) {
	f, ok := S.families[name]
	if !ok {
		return nil, &NotFoundError{What: "family", Name: name, In: S.kind}
	}
	return f, nil
}

// Len is the number of families.
func (S *Storage[T]) Len() int {
	return len(S.families)
}

func (S *Storage[T]) requireFamily(name string) *FamilyStorage[T] {
	f, ok := S.families[name]
	if !ok {
		f = newFamilyStorage[T](name)
		S.families[name] = f
	}
	return f
}

func (S *Storage[T]) insert(family, tag string, d T) error {
	f := S.requireFamily(family)
	if err := f.insert(tag, d); err != nil {
		return err
	}
	symbol := d.Info().Symbol
	for _, e := range S.elementsPerFamily[family] {
		if e == symbol {
			return nil
		}
	}
	S.elementsPerFamily[family] = append(S.elementsPerFamily[family], symbol)
	return nil
}

func (S *Storage[T]) setMetadata(family string, m Metadata) {
	S.requireFamily(family).Metadata = m
	if tags := m.Tags(); tags != nil {
		S.tagsPerFamily[family] = append([]string(nil), tags...)
	} else {
		delete(S.tagsPerFamily, family)
	}
}

//staged is a record waiting to be inserted by Update.
type staged[T AtomicData] struct {
	family string
	tag    string
	data   T
}

//has returns true if family already holds a variant tag for symbol.
func (S *Storage[T]) has(family, symbol, tag string) bool {
	f, ok := S.families[family]
	if !ok {
		return false
	}
	a, ok := f.elements[symbol]
	if !ok {
		return false
	}
	_, ok = a.variants[tag]
	return ok
}

// Update stores the records given by it. For each record, rules.Rename gives the
// families it goes to (none means the record is dropped) and rules.Variant its tag
// in these families. Once all the records are stored, rules.Metadata replaces the
// metadata of every family that received a record.
// Update fails at the first record that can't be parsed or that is already
// stored (DuplicateError). A failed Update leaves S as it was, so the same
// source can be given again once fixed.
func (S *Storage[T]) Update(it Iterator[T], rules Rules) (Stats, error) {
	var st Stats
	defer func() { S.metrics.observe(S.kind, st) }()
	rename := rules.Rename
	if rename == nil {
		rename = Identity()
	}
	var batch []staged[T]
	inBatch := make(map[[3]string]bool)
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		switch r.Status {
		case StatusFailed:
			return st, errDecorate(r.Err, "Storage.Update")
		case StatusUnavailable:
			st.Unavailable++
			continue
		}
		st.Parsed++
		info := r.Data.Info()
		families := rename.Apply(info.Names)
		if len(families) == 0 {
			st.Dropped++
			lg().Debug("No family for record", "kind", S.kind, "symbol", info.Symbol, "names", info.Names, "source", info.Source)
			continue
		}
		tag, ok := rules.Variant.Tag(r.Data)
		if !ok {
			st.Dropped++
			lg().Debug("No variant for record", "kind", S.kind, "symbol", info.Symbol, "names", info.Names, "source", info.Source)
			continue
		}
		for _, f := range families {
			key := [3]string{f, info.Symbol, tag}
			if inBatch[key] || S.has(f, info.Symbol, tag) {
				return st, errDecorate(&DuplicateError{Family: f, Symbol: info.Symbol, Variant: tag}, "Storage.Update")
			}
			inBatch[key] = true
			r.Data.CheckVariant(f, tag)
			batch = append(batch, staged[T]{family: f, tag: tag, data: r.Data})
		}
	}
	var touched []string
	seen := make(map[string]bool)
	for _, b := range batch {
		if err := S.insert(b.family, b.tag, b.data); err != nil {
			//can't happen, duplicates were checked above
			panic(err)
		}
		st.Inserted++
		if !seen[b.family] {
			seen[b.family] = true
			touched = append(touched, b.family)
		}
	}
	for _, f := range touched {
		if m, ok := rules.Metadata.Apply(f); ok {
			S.setMetadata(f, m)
		}
	}
	return st, nil
}

// ParseAndUpdate parses text and stores its records with Update. source tags the records
// with their origin, and can be empty.
func (S *Storage[T]) ParseAndUpdate(text, source string, rules Rules) (Stats, error) {
	st, err := S.Update(S.parse(text, source), rules)
	if err != nil {
		return st, errDecorate(err, "Storage.ParseAndUpdate")
	}
	lg().Info("Source stored", "kind", S.kind, "source", source, "stats", st.String())
	return st, nil
}

// ElementsPerFamily returns the elements of a family, in the order they were added.
func (S *Storage[T]) ElementsPerFamily(family string) ([]string, error) {
	e, ok := S.elementsPerFamily[family]
	if !ok {
		return nil, &NotFoundError{What: "family", Name: family, In: S.kind}
	}
	return append([]string(nil), e...), nil
}

// TagsPerFamily returns the tags declared in the metadata of a family. It
// returns nil if the family declares none.
func (S *Storage[T]) TagsPerFamily(family string) []string {
	return append([]string(nil), S.tagsPerFamily[family]...)
}

// FamiliesPerElement maps each element symbol to the sorted names of the families
// with data for it.
func (S *Storage[T]) FamiliesPerElement() map[string][]string {
	ret := make(map[string][]string)
	for _, f := range S.Families() {
		for _, e := range S.elementsPerFamily[f] {
			ret[e] = append(ret[e], f)
		}
	}
	return ret
}

//hasTag returns true if family declares tag, or if one of its elements has a variant with that tag.
func (S *Storage[T]) hasTag(family, tag string) bool {
	for _, t := range S.tagsPerFamily[family] {
		if t == tag {
			return true
		}
	}
	for _, a := range S.families[family].elements {
		if _, ok := a.variants[tag]; ok {
			return true
		}
	}
	return false
}

// GetNames returns the sorted names of the families which have data for every
// element in elements, whose name contains name and which have the variant tag.
// Empty filters are not applied.
func (S *Storage[T]) GetNames(elements ElementSet, name, tag string) []string {
	var ret []string
	for _, f := range S.Families() {
		if name != "" && !strings.Contains(f, name) {
			continue
		}
		if tag != "" && !S.hasTag(f, tag) {
			continue
		}
		if elements.Len() > 0 {
			avail, err := NewElementSet(S.elementsPerFamily[f]...)
			if err != nil || !elements.SubsetOf(avail) {
				continue
			}
		}
		ret = append(ret, f)
	}
	return ret
}

// Tree writes, for each family, its tags and a periodic table of the elements it covers.
func (S *Storage[T]) Tree(w io.Writer) error {
	for _, f := range S.Families() {
		if tags := S.tagsPerFamily[f]; len(tags) > 0 {
			if _, err := fmt.Fprintf(w, "[%s]\n", strings.Join(tags, ",")); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, Availability(f, S.elementsPerFamily[f])+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (S *Storage[T]) String() string {
	return fmt.Sprintf("Storage(%s, %d families)", S.kind, len(S.families))
}
