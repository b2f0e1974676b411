/*
 * codec.go, part of gobasis.
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
	"time"

	"github.com/rmera/gobasis/container"
)

// DateBuildAttr is the root attribute holding the build time of a library.
const DateBuildAttr = "date_build"

// Write stores S under root, in a group named after its kind, replacing whatever was
// there. The layout is <kind>/<family>/<element>/<variant>, with the metadata of
// each family as attributes of its group. The build date of S (now, if it is not set)
// goes to the date_build attribute of root.
func (S *Storage[T]) Write(root *container.Group) error {
	root.Remove(S.kind)
	kg, err := root.CreateGroup(S.kind)
	if err != nil {
		return errDecorate(err, "Storage.Write")
	}
	for _, name := range S.Families() {
		f := S.families[name]
		fg, err := kg.CreateGroup(name)
		if err != nil {
			return errDecorate(err, "Storage.Write")
		}
		for k, v := range f.Metadata {
			if err := fg.SetAttr(k, v); err != nil {
				return fmt.Errorf("metadata %q of family %s: %w", k, name, err)
			}
		}
		for _, symbol := range f.Elements() {
			a := f.elements[symbol]
			eg, err := fg.CreateGroup(symbol)
			if err != nil {
				return errDecorate(err, "Storage.Write")
			}
			for _, tag := range a.order {
				vg, err := eg.CreateGroup(tag)
				if err != nil {
					return errDecorate(err, "Storage.Write")
				}
				if err := a.variants[tag].Dump(vg); err != nil {
					return fmt.Errorf("%s %s %s: %w", name, symbol, tag, err)
				}
			}
		}
	}
	if S.DateBuild.IsZero() {
		S.DateBuild = time.Now().UTC().Truncate(time.Second)
	}
	return root.SetAttr(DateBuildAttr, S.DateBuild.UTC().Format(time.RFC3339))
}

// Read fills S, which should be empty, with what Write stored under root.
func (S *Storage[T]) Read(root *container.Group) error {
	kg, err := root.Group(S.kind)
	if err != nil {
		return err
	}
	for _, name := range kg.Groups() {
		fg, _ := kg.Group(name)
		for _, symbol := range fg.Groups() {
			eg, _ := fg.Group(symbol)
			for _, tag := range eg.Groups() {
				vg, _ := eg.Group(tag)
				d, err := S.read(symbol, vg)
				if err != nil {
					return errDecorate(err, "Storage.Read")
				}
				if err := S.insert(name, tag, d); err != nil {
					return errDecorate(err, "Storage.Read")
				}
			}
		}
		m := Metadata{}
		for _, k := range fg.Attrs() {
			m[k], _ = fg.Attr(k)
		}
		S.setMetadata(name, m)
		SortSymbols(S.elementsPerFamily[name])
	}
	if v, ok := root.Attr(DateBuildAttr); ok {
		if s, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return formatError(root, "wrong %s: %v", DateBuildAttr, err)
			}
			S.DateBuild = t
		}
	}
	return nil
}

// ReadBasisSets reads the basis sets stored under root.
func ReadBasisSets(root *container.Group) (*Storage[*AtomicBasisSet], error) {
	S := NewBasisSetsStorage()
	if err := S.Read(root); err != nil {
		return nil, err
	}
	return S, nil
}

// ReadPseudopotentials reads the pseudopotentials stored under root.
func ReadPseudopotentials(root *container.Group) (*Storage[*AtomicPseudopotential], error) {
	S := NewPseudopotentialsStorage()
	if err := S.Read(root); err != nil {
		return nil, err
	}
	return S, nil
}
