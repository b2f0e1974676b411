/*
 * container.go, part of gobasis.
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

//Package container implements a small self-describing binary container: a tree of
//named groups, each holding typed n-dimensional datasets (float64, int64 or
//variable-length strings) and scalar or array attributes. It is what the
//libraries of basis sets and pseudopotentials are stored in.
//
//The whole tree lives in memory; Encode/Decode (and Create/Open for files)
//move it to and from its compressed binary form.
package container

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ErrNotExist is returned (wrapped) when a group, dataset or attribute is missing.
var ErrNotExist = errors.New("container: does not exist")

var logger *slog.Logger

// SetLogger sets the logger used by the package. nil restores slog.Default().
func SetLogger(l *slog.Logger) {
	logger = l
}

func lg() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// Group is a node of the container tree.
type Group struct {
	name     string
	parent   *Group
	attrs    map[string]interface{}
	datasets map[string]*Dataset
	groups   map[string]*Group
}

// NewRoot returns an empty root group.
func NewRoot() *Group {
	return newGroup("", nil)
}

func newGroup(name string, parent *Group) *Group {
	return &Group{
		name:     name,
		parent:   parent,
		attrs:    make(map[string]interface{}),
		datasets: make(map[string]*Dataset),
		groups:   make(map[string]*Group),
	}
}

// Name returns the name of the group ("" for the root).
func (G *Group) Name() string {
	return G.name
}

// Path returns the absolute path of the group, "/" for the root.
func (G *Group) Path() string {
	if G.parent == nil {
		return "/"
	}
	p := G.parent.Path()
	if p == "/" {
		return "/" + G.name
	}
	return p + "/" + G.name
}

func checkName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("container: invalid name %q", name)
	}
	return nil
}

// CreateGroup creates a subgroup. It fails if the name is already used.
func (G *Group) CreateGroup(name string) (*Group, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if _, ok := G.groups[name]; ok {
		return nil, fmt.Errorf("container: group %q already exists in %s", name, G.Path())
	}
	g := newGroup(name, G)
	G.groups[name] = g
	return g, nil
}

// RequireGroup returns the subgroup called name, creating it if needed.
func (G *Group) RequireGroup(name string) (*Group, error) {
	if g, ok := G.groups[name]; ok {
		return g, nil
	}
	return G.CreateGroup(name)
}

// Group returns the group at path, relative to G. Path elements are
// separated by "/".
func (G *Group) Group(path string) (*Group, error) {
	cur := G
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		next, ok := cur.groups[part]
		if !ok {
			return nil, fmt.Errorf("group %q in %s: %w", part, cur.Path(), ErrNotExist)
		}
		cur = next
	}
	return cur, nil
}

// Has returns true if G has a subgroup called name.
func (G *Group) Has(name string) bool {
	_, ok := G.groups[name]
	return ok
}

// Groups returns the sorted names of the subgroups.
func (G *Group) Groups() []string {
	return sortedKeys(G.groups)
}

// Remove deletes the subgroup or dataset called name, and returns
// whether something was removed.
func (G *Group) Remove(name string) bool {
	if _, ok := G.groups[name]; ok {
		delete(G.groups, name)
		return true
	}
	if _, ok := G.datasets[name]; ok {
		delete(G.datasets, name)
		return true
	}
	return false
}

// SetAttr sets an attribute. Accepted values are strings, bools, integers,
// floats, and slices of strings, integers or floats. A []interface{}
// is accepted if it can be turned into one of these slices. Integers are stored
// as int64 and floats as float64.
func (G *Group) SetAttr(name string, value interface{}) error {
	if name == "" {
		return fmt.Errorf("container: empty attribute name in %s", G.Path())
	}
	v, err := NormalizeValue(value)
	if err != nil {
		return fmt.Errorf("attribute %q in %s: %w", name, G.Path(), err)
	}
	G.attrs[name] = v
	return nil
}

// Attr returns the attribute called name.
func (G *Group) Attr(name string) (interface{}, bool) {
	v, ok := G.attrs[name]
	return v, ok
}

// Attrs returns the sorted attribute names.
func (G *Group) Attrs() []string {
	return sortedKeys(G.attrs)
}

// NormalizeValue converts v to one of the types that can be stored
// as an attribute: string, bool, int64, float64, []string, []int64 or []float64.
func NormalizeValue(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string, bool, int64, float64, []string, []int64, []float64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case []int:
		ret := make([]int64, len(t))
		for i, x := range t {
			ret[i] = int64(x)
		}
		return ret, nil
	case []interface{}:
		return normalizeList(t)
	}
	return nil, fmt.Errorf("container: unsupported value type %T", v)
}

func normalizeList(l []interface{}) (interface{}, error) {
	if len(l) == 0 {
		return []string{}, nil
	}
	var nstr, nint, nfloat int
	for _, x := range l {
		switch x.(type) {
		case string:
			nstr++
		case int, int32, int64, uint, uint32:
			nint++
		case float32, float64:
			nfloat++
		default:
			return nil, fmt.Errorf("container: unsupported list element type %T", x)
		}
	}
	switch {
	case nstr == len(l):
		ret := make([]string, len(l))
		for i, x := range l {
			ret[i] = x.(string)
		}
		return ret, nil
	case nint == len(l):
		ret := make([]int64, len(l))
		for i, x := range l {
			v, _ := NormalizeValue(x)
			ret[i] = v.(int64)
		}
		return ret, nil
	case nstr == 0:
		ret := make([]float64, len(l))
		for i, x := range l {
			v, _ := NormalizeValue(x)
			switch n := v.(type) {
			case int64:
				ret[i] = float64(n)
			case float64:
				ret[i] = n
			}
		}
		return ret, nil
	}
	return nil, fmt.Errorf("container: mixed strings and numbers in list")
}

// CreateFloat64s stores a float64 dataset of the given shape. data is
// stored in row-major order and is not copied.
func (G *Group) CreateFloat64s(name string, shape []int, data []float64) (*Dataset, error) {
	d := &Dataset{name: name, dtype: Float64, shape: shape, floats: data}
	return d, G.addDataset(d, len(data))
}

// CreateInt64s stores an int64 dataset of the given shape.
func (G *Group) CreateInt64s(name string, shape []int, data []int64) (*Dataset, error) {
	d := &Dataset{name: name, dtype: Int64, shape: shape, ints: data}
	return d, G.addDataset(d, len(data))
}

// CreateStrings stores a one-dimensional dataset of variable-length strings.
func (G *Group) CreateStrings(name string, data []string) (*Dataset, error) {
	d := &Dataset{name: name, dtype: String, shape: []int{len(data)}, strs: data}
	return d, G.addDataset(d, len(data))
}

func (G *Group) addDataset(d *Dataset, n int) error {
	if err := checkName(d.name); err != nil {
		return err
	}
	if _, ok := G.datasets[d.name]; ok {
		return fmt.Errorf("container: dataset %q already exists in %s", d.name, G.Path())
	}
	for _, dim := range d.shape {
		if dim < 0 {
			return fmt.Errorf("container: dataset %q has negative dimension in %v", d.name, d.shape)
		}
	}
	if size(d.shape) != n {
		return fmt.Errorf("container: dataset %q has shape %v but %d elements", d.name, d.shape, n)
	}
	G.datasets[d.name] = d
	return nil
}

// Dataset returns the dataset called name.
func (G *Group) Dataset(name string) (*Dataset, error) {
	d, ok := G.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q in %s: %w", name, G.Path(), ErrNotExist)
	}
	return d, nil
}

// Datasets returns the sorted dataset names.
func (G *Group) Datasets() []string {
	return sortedKeys(G.datasets)
}

// DType is the element type of a dataset.
type DType uint8

const (
	Float64 DType = iota + 1
	Int64
	String
)

func (D DType) String() string {
	switch D {
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	case String:
		return "string"
	}
	return fmt.Sprintf("DType(%d)", uint8(D))
}

// Dataset is a typed n-dimensional array.
type Dataset struct {
	name   string
	dtype  DType
	shape  []int
	floats []float64
	ints   []int64
	strs   []string
}

func (D *Dataset) Name() string { return D.name }

func (D *Dataset) DType() DType { return D.dtype }

// Shape returns a copy of the dimensions of the dataset.
func (D *Dataset) Shape() []int {
	return append([]int(nil), D.shape...)
}

// Len is the total number of elements.
func (D *Dataset) Len() int {
	return size(D.shape)
}

// Float64s returns the data of a float64 dataset.
func (D *Dataset) Float64s() ([]float64, error) {
	if D.dtype != Float64 {
		return nil, fmt.Errorf("container: dataset %q is %s, not float64", D.name, D.dtype)
	}
	return D.floats, nil
}

// Int64s returns the data of an int64 dataset.
func (D *Dataset) Int64s() ([]int64, error) {
	if D.dtype != Int64 {
		return nil, fmt.Errorf("container: dataset %q is %s, not int64", D.name, D.dtype)
	}
	return D.ints, nil
}

// Strings returns the data of a string dataset.
func (D *Dataset) Strings() ([]string, error) {
	if D.dtype != String {
		return nil, fmt.Errorf("container: dataset %q is %s, not string", D.name, D.dtype)
	}
	return D.strs, nil
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
