/*
 * container_test.go, part of gobasis.
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

package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(Te *testing.T) *Group {
	root := NewRoot()
	require.NoError(Te, root.SetAttr("date_build", "2026-10-18T10:00:00Z"))
	fam, err := root.RequireGroup("basis_sets")
	require.NoError(Te, err)
	g, err := fam.CreateGroup("DZVP-MOLOPT-GTH")
	require.NoError(Te, err)
	require.NoError(Te, g.SetAttr("description", "double zeta"))
	require.NoError(Te, g.SetAttr("references", []interface{}{"10.1063/1.2770708"}))
	require.NoError(Te, g.SetAttr("nfunc", 7))
	require.NoError(Te, g.SetAttr("weights", []interface{}{1, 2.5}))
	require.NoError(Te, g.SetAttr("orb", true))
	v, err := g.CreateGroup("q4")
	require.NoError(Te, err)
	_, err = v.CreateStrings("names", []string{"DZVP-MOLOPT-GTH", "DZVP-MOLOPT-GTH-q4"})
	require.NoError(Te, err)
	_, err = v.CreateInt64s("info", []int{3}, []int64{2, 0, 1})
	require.NoError(Te, err)
	_, err = v.CreateFloat64s("coefs", []int{2, 3}, []float64{1, 2, 3, 4, 5, -6.5e-12})
	require.NoError(Te, err)
	return root
}

func checkSampleTree(Te *testing.T, root *Group) {
	date, ok := root.Attr("date_build")
	require.True(Te, ok)
	assert.Equal(Te, "2026-10-18T10:00:00Z", date)
	g, err := root.Group("basis_sets/DZVP-MOLOPT-GTH")
	require.NoError(Te, err)
	assert.Equal(Te, "/basis_sets/DZVP-MOLOPT-GTH", g.Path())
	attrs := map[string]interface{}{}
	for _, n := range g.Attrs() {
		attrs[n], _ = g.Attr(n)
	}
	assert.Equal(Te, map[string]interface{}{
		"description": "double zeta",
		"references":  []string{"10.1063/1.2770708"},
		"nfunc":       int64(7),
		"weights":     []float64{1, 2.5},
		"orb":         true,
	}, attrs)
	v, err := g.Group("q4")
	require.NoError(Te, err)
	assert.Equal(Te, []string{"coefs", "info", "names"}, v.Datasets())
	d, err := v.Dataset("coefs")
	require.NoError(Te, err)
	assert.Equal(Te, []int{2, 3}, d.Shape())
	f, err := d.Float64s()
	require.NoError(Te, err)
	assert.Equal(Te, []float64{1, 2, 3, 4, 5, -6.5e-12}, f)
	_, err = d.Int64s()
	assert.Error(Te, err)
	d, err = v.Dataset("names")
	require.NoError(Te, err)
	s, err := d.Strings()
	require.NoError(Te, err)
	assert.Equal(Te, []string{"DZVP-MOLOPT-GTH", "DZVP-MOLOPT-GTH-q4"}, s)
	d, err = v.Dataset("info")
	require.NoError(Te, err)
	i, err := d.Int64s()
	require.NoError(Te, err)
	assert.Equal(Te, []int64{2, 0, 1}, i)
}

func TestTree(Te *testing.T) {
	root := sampleTree(Te)
	checkSampleTree(Te, root)

	_, err := root.Group("basis_sets/nope")
	assert.True(Te, errors.Is(err, ErrNotExist))
	_, err = root.CreateGroup("basis_sets")
	assert.Error(Te, err)
	_, err = root.CreateGroup("a/b")
	assert.Error(Te, err)

	g, _ := root.Group("basis_sets/DZVP-MOLOPT-GTH/q4")
	_, err = g.CreateFloat64s("bad", []int{2, 2}, []float64{1, 2, 3})
	assert.Error(Te, err)
	_, err = g.CreateStrings("names", nil)
	assert.Error(Te, err)
	assert.True(Te, g.Remove("names"))
	assert.False(Te, g.Remove("names"))

	assert.Error(Te, root.SetAttr("x", []interface{}{"a", 1}))
	assert.Error(Te, root.SetAttr("x", struct{}{}))
}

func TestEncodeDecode(Te *testing.T) {
	for _, c := range []Compression{None, Zstd, LZ4, Gzip} {
		Te.Run(c.String(), func(Te *testing.T) {
			var buf bytes.Buffer
			require.NoError(Te, Encode(&buf, sampleTree(Te), c))
			root, err := Decode(&buf)
			require.NoError(Te, err)
			checkSampleTree(Te, root)
		})
	}
}

func TestDecodeGarbage(Te *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("nope, not a container")))
	assert.True(Te, errors.Is(err, ErrFormat))

	var buf bytes.Buffer
	require.NoError(Te, Encode(&buf, sampleTree(Te), None))
	truncated := buf.Bytes()[:buf.Len()-10]
	_, err = Decode(bytes.NewReader(truncated))
	assert.True(Te, errors.Is(err, ErrFormat))
}

func TestDecodeHugeLengths(Te *testing.T) {
	header := func() []byte {
		return append([]byte(magic), byte(None))
	}
	u32 := func(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

	//a root name claiming 512 MiB, with nothing behind it.
	b := u32(header(), 1<<29)
	_, err := Decode(bytes.NewReader(b))
	assert.True(Te, errors.Is(err, ErrFormat), err)

	//a float dataset claiming 2^27 elements, with only two of them present.
	b = u32(header(), 0) //root name
	b = u32(b, 0)        //attributes
	b = u32(b, 1)        //datasets
	b = u32(b, 1)
	b = append(b, 'x', byte(Float64))
	b = u32(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 1<<27)
	b = binary.LittleEndian.AppendUint64(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 2)
	_, err = Decode(bytes.NewReader(b))
	assert.True(Te, errors.Is(err, ErrFormat), err)

	//same for a string dataset whose only element claims 1 GiB.
	b = u32(header(), 0)
	b = u32(b, 0)
	b = u32(b, 1)
	b = u32(b, 1)
	b = append(b, 's', byte(String))
	b = u32(b, 1)
	b = binary.LittleEndian.AppendUint64(b, 1<<20)
	b = u32(b, 1<<30)
	b = append(b, "abc"...)
	_, err = Decode(bytes.NewReader(b))
	assert.True(Te, errors.Is(err, ErrFormat), err)
}

func TestFiles(Te *testing.T) {
	assert.Equal(Te, Zstd, CompressionFromName("library.gbc"))
	assert.Equal(Te, LZ4, CompressionFromName("library.LZ4"))
	assert.Equal(Te, Gzip, CompressionFromName("library.gz"))
	assert.Equal(Te, None, CompressionFromName("library.raw"))

	dir := Te.TempDir()
	for _, name := range []string{"lib.gbc", "lib.lz4", "lib.raw"} {
		path := filepath.Join(dir, name)
		require.NoError(Te, Create(path, sampleTree(Te)))
		root, err := Open(path)
		require.NoError(Te, err)
		checkSampleTree(Te, root)
	}
	_, err := Open(filepath.Join(dir, "missing"))
	assert.Error(Te, err)
}
