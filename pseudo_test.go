/*
 * pseudo_test.go, part of gobasis.
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
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/rmera/gobasis/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const potassium = `K GTH-BLYP-q9 GTH-BLYP
3 6
0.40000000 2 -2.88013377    -1.21143500
2
0.30634684 2 17.51002284 -5.61037883
 7.24296793
0.32105825 2 6.90321066 -2.19925814
 2.60219733
`

func allPseudopotentials(Te *testing.T, text, source string) []Result[*AtomicPseudopotential] {
	var ret []Result[*AtomicPseudopotential]
	G := NewPseudopotentialParser(text, source)
	for {
		r, ok := G.Next()
		if !ok {
			return ret
		}
		require.NotEqual(Te, StatusFailed, r.Status, "%v", r.Err)
		ret = append(ret, r)
	}
}

func parsedPseudopotentials(Te *testing.T, text, source string) []*AtomicPseudopotential {
	var ret []*AtomicPseudopotential
	for _, r := range allPseudopotentials(Te, text, source) {
		if r.Status == StatusParsed {
			ret = append(ret, r.Data)
		}
	}
	return ret
}

func TestPseudopotentialPotassium(Te *testing.T) {
	A, status, err := NewPseudopotentialParser(potassium, "").Variant()
	require.NoError(Te, err)
	assert.Equal(Te, StatusParsed, status)
	assert.Equal(Te, "K", A.Symbol)
	assert.Equal(Te, []string{"GTH-BLYP-q9", "GTH-BLYP"}, A.Names)
	assert.Equal(Te, []int{3, 6}, A.NElec)
	assert.Equal(Te, 9, A.Valence())
	assert.Equal(Te, "q9", A.ImplicitVariant())
	assert.Equal(Te, 0.4, A.LocalRadius)
	assert.Equal(Te, []float64{-2.88013377, -1.21143500}, A.LocalCoefficients)
	require.Len(Te, A.Projectors, 2)
	p := A.Projectors[0]
	assert.Equal(Te, 0.30634684, p.Radius)
	assert.Equal(Te, 2, p.Rank)
	assert.Equal(Te, 17.51002284, p.Coefficients.At(0, 0))
	assert.Equal(Te, -5.61037883, p.Coefficients.At(0, 1))
	assert.Equal(Te, 7.24296793, p.Coefficients.At(1, 1))
	assert.Equal(Te, 2.60219733, A.Projectors[1].Coefficients.At(1, 1))
}

func TestPseudopotentialFile(Te *testing.T) {
	results := allPseudopotentials(Te, readFixture(Te, "POTENTIALS_EXAMPLE"), "POTENTIALS_EXAMPLE")
	require.Len(Te, results, 7)
	assert.Equal(Te, StatusUnavailable, results[4].Status)
	assert.Equal(Te, "Ar", results[4].Symbol)
	assert.Equal(Te, []string{"GTH-BLYP-q8", "GTH-BLYP"}, results[4].Names)

	C := results[1].Data
	assert.Equal(Te, "C", C.Symbol)
	assert.Equal(Te, "POTENTIALS_EXAMPLE#L14", C.Source)
	assert.Equal(Te, "q4", C.ImplicitVariant())
	require.Len(Te, C.Projectors, 2)
	assert.Equal(Te, 1, C.Projectors[0].Rank)
	assert.Equal(Te, 0, C.Projectors[1].Rank)
	assert.Nil(Te, C.Projectors[1].Coefficients)
	assert.Equal(Te, "GTH-PBE-q1", results[5].Data.PreferredName("GTH-PBE", "q1"))
	assert.Equal(Te, "ALL", results[5].Data.PreferredName("ALL", "q1"))
}

func TestPseudopotentialTextRoundTrip(Te *testing.T) {
	pps := parsedPseudopotentials(Te, readFixture(Te, "POTENTIALS_EXAMPLE"), "")
	require.Len(Te, pps, 6)
	for _, A := range pps {
		text := A.String()
		G := NewPseudopotentialParser(text, "")
		B, status, err := G.Variant()
		require.NoError(Te, err, text)
		assert.Equal(Te, StatusParsed, status)
		assert.True(Te, A.Equal(B), text)
		assert.Equal(Te, text, B.String())
	}
}

func TestPseudopotentialNoProjectors(Te *testing.T) {
	text := "H GTH-BLYP-q1 GTH-BLYP\n 1\n 0.2 2 -4.19596147 0.73049821\n 0\n"
	A, _, err := NewPseudopotentialParser(text, "").Variant()
	require.NoError(Te, err)
	assert.Empty(Te, A.Projectors)
	B, _, err := NewPseudopotentialParser(A.String(), "").Variant()
	require.NoError(Te, err)
	assert.True(Te, A.Equal(B))
	assert.Equal(Te, A.String(), B.String())

	text = "He GTH-BLYP-q2\n 2\n 0.2 0\n 0\n"
	A, _, err = NewPseudopotentialParser(text, "").Variant()
	require.NoError(Te, err)
	assert.Empty(Te, A.LocalCoefficients)
	B, _, err = NewPseudopotentialParser(A.String(), "").Variant()
	require.NoError(Te, err)
	assert.True(Te, A.Equal(B))
}

func TestPseudopotentialLayouts(Te *testing.T) {
	A, _, err := NewPseudopotentialParser(potassium, "").Variant()
	require.NoError(Te, err)
	//first row of each projector in its own line, and a stray unit marker.
	text := `K GTH-BLYP-q9 GTH-BLYP
3 6 e
0.40000000 2 -2.88013377 -1.21143500
2
0.30634684 2
17.51002284 -5.61037883
7.24296793
0.32105825 2
6.90321066 -2.19925814
2.60219733
`
	B, _, err := NewPseudopotentialParser(text, "").Variant()
	require.NoError(Te, err)
	assert.True(Te, A.Equal(B))
}

func TestPseudopotentialErrors(Te *testing.T) {
	for _, text := range []string{
		"H GTH\n x\n",                     //no electrons
		"H GTH\n 1\n 0.2 2 1.0\n 0\n",     //missing local coefficient
		"H GTH\n 1\n 0.2 x\n 0\n",         //wrong count
		"H GTH\n 1\n 0.2 0\n -1\n",        //negative count
		"H GTH\n 1\n 0.2 0\n 1\n",         //missing projector
		"H GTH\n 1\n 0.2 0\n 1\n 0.2 2\n", //missing projector rows
		"H GTH\n 1\n 0.2 9223372036854775807\n 0\n",          //huge local count
		"H GTH\n 1\n 0.2 0\n 1\n 0.2 9223372036854775807\n", //huge rank
		"H GTH\n 1\n 0.2 0\n 30000000000\n",                  //huge projector count
	} {
		G := NewPseudopotentialParser(text, "test")
		r, ok := G.Next()
		require.True(Te, ok, text)
		assert.Equal(Te, StatusFailed, r.Status, text)
		var serr *SyntaxError
		assert.True(Te, errors.As(r.Err, &serr), text)
		_, ok = G.Next()
		assert.False(Te, ok)
	}
}

func TestPseudopotentialCheckVariant(Te *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)
	A, _, err := NewPseudopotentialParser(potassium, "").Variant()
	require.NoError(Te, err)
	A.CheckVariant("GTH-BLYP", "q9")
	assert.Empty(Te, buf.String())
	A.CheckVariant("GTH-BLYP", "q1")
	assert.Contains(Te, buf.String(), "Variant does not match")
	assert.Contains(Te, buf.String(), "valence=9")
}

func TestPseudopotentialDump(Te *testing.T) {
	for _, A := range parsedPseudopotentials(Te, readFixture(Te, "POTENTIALS_EXAMPLE"), "POTENTIALS_EXAMPLE") {
		g := container.NewRoot()
		require.NoError(Te, A.Dump(g))
		B, err := ReadAtomicPseudopotential(A.Symbol, g)
		require.NoError(Te, err)
		assert.True(Te, A.Equal(B))
		assert.Equal(Te, A.Source, B.Source)
	}

	A, _, err := NewPseudopotentialParser(potassium, "").Variant()
	require.NoError(Te, err)
	g := container.NewRoot()
	require.NoError(Te, A.Dump(g))
	g.Remove("nlprojector_1_radius_coefs")
	_, err = g.CreateFloat64s("nlprojector_1_radius_coefs", []int{2}, []float64{1, 2})
	require.NoError(Te, err)
	_, err = ReadAtomicPseudopotential("K", g)
	var serr *SyntaxError
	assert.True(Te, errors.As(err, &serr))

	for _, info := range [][]int64{
		{2, math.MaxInt64, 2, 2, 3, 6},
		{2, 2, math.MaxInt64, 2, 3, 6},
		{2, 2, 2, -3, 3, 6},
	} {
		g = container.NewRoot()
		require.NoError(Te, A.Dump(g))
		g.Remove("info")
		_, err = g.CreateInt64s("info", []int{len(info)}, info)
		require.NoError(Te, err)
		_, err = ReadAtomicPseudopotential("K", g)
		assert.True(Te, errors.As(err, &serr), "%v", info)
	}
}
