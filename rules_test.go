/*
 * rules_test.go, part of gobasis.
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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFilter(Te *testing.T, strategy Strategy, rules ...Rule) *Filter {
	F, err := NewFilter(strategy, rules...)
	require.NoError(Te, err)
	return F
}

func TestFilterAll(Te *testing.T) {
	src := []string{"a", "a", "b", "c"}
	assert.Empty(Te, mustFilter(Te, StrategyAll).Apply(src))
	assert.Empty(Te, mustFilter(Te, StrategyAll, Discard(".*")).Apply(src))
	assert.Equal(Te, src, mustFilter(Te, StrategyAll, Rename("(.*)", `\1`)).Apply(src))
	assert.Equal(Te, src[:2], mustFilter(Te, StrategyAll, Rename("(a)", `\1`)).Apply(src))
	assert.Equal(Te, src[2:], mustFilter(Te, StrategyAll, Discard("(a)"), Rename("(.*)", `\1`)).Apply(src))
	//the first matching rule wins, even if a later one would keep the name.
	assert.Equal(Te, []string{"x", "x", "b", "c"}, mustFilter(Te, StrategyAll, Rename("a", "x"), Discard("a"), Rename(".*", `\0`)).Apply(src))
}

func TestFilterFirst(Te *testing.T) {
	src := []string{"a", "b", "c"}
	assert.Equal(Te, []string{"a"}, mustFilter(Te, StrategyFirst, Rename("(.*)", `\1`)).Apply(src))
	assert.Equal(Te, []string{"b"}, mustFilter(Te, StrategyFirst, Rename("(b)", `\1`)).Apply(src))
	assert.Empty(Te, mustFilter(Te, StrategyFirst, Rename("(x)", `\1`)).Apply(src))
	assert.Equal(Te, []string{"b"}, mustFilter(Te, StrategyFirst, Discard("a"), Rename(".*", `\0`)).Apply(src))
}

func TestFilterUnique(Te *testing.T) {
	src := []string{"a", "a", "b", "c"}
	assert.Equal(Te, src[1:], mustFilter(Te, StrategyUnique, Rename("(.*)", `\1`)).Apply(src))
	assert.Equal(Te, src[:1], mustFilter(Te, StrategyUnique, Rename("(a)", `\1`)).Apply(src))

	F := mustFilter(Te, StrategyUnique, Rename(`(.*)-q.*`, `\1`))
	assert.Equal(Te, []string{"FOO"}, F.Apply([]string{"FOO-q4", "FOO"}))

	F = mustFilter(Te, StrategyUnique, Rename(`(.*)-q\d+`, `\1`), Rename(`.*`, `\0`))
	names := []string{"DZVP-GTH-q4", "DZVP-GTH", "DZVP-GTH-q6", "OTHER"}
	once := F.Apply(names)
	assert.Equal(Te, []string{"DZVP-GTH", "OTHER"}, once)
	assert.Equal(Te, once, F.Apply(once))
	assert.Equal(Te, once, F.Apply(names))
}

func TestFilterReplacements(Te *testing.T) {
	src := []string{"GTH-BLYP-q4"}
	for repl, expected := range map[string]string{
		`\1`:         "BLYP",
		`$1`:         "BLYP",
		`${1}-${2}`:  "BLYP-q4",
		`\1-\2`:      "BLYP-q4",
		`X-\0`:       "X-GTH-BLYP-q4",
		`$0`:         "GTH-BLYP-q4",
		`${xc}`:      "BLYP",
		`constant`:   "constant",
		`\2\1`:       "q4BLYP",
		`${1}\2${0}`: "BLYPq4GTH-BLYP-q4",
	} {
		F := mustFilter(Te, StrategyAll, Rename(`GTH-(?P<xc>.*)-(q\d+)`, repl))
		assert.Equal(Te, []string{expected}, F.Apply(src), repl)
	}
	//patterns only match at the start of a name.
	assert.Empty(Te, mustFilter(Te, StrategyAll, Rename("BLYP", "x")).Apply(src))
	assert.Equal(Te, []string{"x"}, mustFilter(Te, StrategyAll, Rename("GTH", "x")).Apply(src))

	_, err := NewFilter(StrategyAll, Rename("(", "x"))
	assert.Error(Te, err)
}

func TestVariantRule(Te *testing.T) {
	K := &AtomicPseudopotential{Variant: Variant{Symbol: "K", Names: []string{"GTH-BLYP-q9", "GTH-BLYP"}}, NElec: []int{3, 6}}
	C := &AtomicPseudopotential{Variant: Variant{Symbol: "C", Names: []string{"GTH-BLYP"}}, NElec: []int{2, 2}}

	V, err := NewVariantRule(FallbackImplicit, Rename(`.*-(q\d+)`, `\1`))
	require.NoError(Te, err)
	tag, ok := V.Tag(K)
	assert.True(Te, ok)
	assert.Equal(Te, "q9", tag)
	tag, ok = V.Tag(C)
	assert.True(Te, ok)
	assert.Equal(Te, "q4", tag)

	V, err = NewVariantRule(FallbackDrop, Rename(`.*-(q\d+)`, `\1`))
	require.NoError(Te, err)
	_, ok = V.Tag(C)
	assert.False(Te, ok)

	var nilRule *VariantRule
	tag, ok = nilRule.Tag(K)
	assert.True(Te, ok)
	assert.Equal(Te, "q9", tag)

	B := &AtomicBasisSet{Variant: Variant{Symbol: "O", Names: []string{"DZVP"}}}
	tag, _ = nilRule.Tag(B)
	assert.Equal(Te, "q8", tag)
}

func TestAddMetadata(Te *testing.T) {
	A, err := NewAddMetadata(
		MetadataRule{Pattern: "a", Metadata: Metadata{"name": "named", "only_a": "x", "n": 3}},
		MetadataRule{Pattern: "(.*)", Metadata: Metadata{"name": "named", "refs": []interface{}{"r1", "r2"}}},
	)
	require.NoError(Te, err)
	for _, name := range []string{"a", "b", "c"} {
		m, ok := A.Apply(name)
		require.True(Te, ok)
		assert.Equal(Te, "named", m["name"])
		if name == "a" {
			assert.Equal(Te, "x", m["only_a"])
			assert.Equal(Te, int64(3), m["n"])
			assert.NotContains(Te, m, "refs")
		} else {
			assert.NotContains(Te, m, "only_a")
			assert.Equal(Te, []string{"r1", "r2"}, m["refs"])
		}
	}
	m, _ := A.Apply("b")
	m["refs"].([]string)[0] = "changed"
	m["name"] = "changed"
	m, _ = A.Apply("b")
	assert.Equal(Te, "named", m["name"])
	assert.Equal(Te, []string{"r1", "r2"}, m["refs"])

	A, err = NewAddMetadata(MetadataRule{Pattern: "b", Metadata: Metadata{"x": 1}})
	require.NoError(Te, err)
	_, ok := A.Apply("a")
	assert.False(Te, ok)

	var nilMetadata *AddMetadata
	_, ok = nilMetadata.Apply("a")
	assert.False(Te, ok)

	_, err = NewAddMetadata(MetadataRule{Pattern: ".*", Metadata: Metadata{"x": map[string]int{"a": 1}}})
	assert.Error(Te, err)
	_, err = NewAddMetadata(MetadataRule{Pattern: "[", Metadata: Metadata{}})
	assert.Error(Te, err)
}

func TestMetadataTags(Te *testing.T) {
	assert.Nil(Te, Metadata{}.Tags())
	assert.Equal(Te, []string{"q1"}, Metadata{"tags": "q1"}.Tags())
	assert.Equal(Te, []string{"q1", "q3"}, Metadata{"tags": []string{"q1", "q3"}}.Tags())
}

func TestFilterFromYAML(Te *testing.T) {
	src := []string{"a", "a", "b", "c"}
	F, err := FilterFromYAML([]byte("\"^a$\": null\n\"^(.*)$\": \\1\n"), StrategyAll)
	require.NoError(Te, err)
	assert.Equal(Te, src[2:], F.Apply(src))

	//order matters
	F, err = FilterFromYAML([]byte("'^(.*)$': \\1\n'^a$': null\n"), StrategyUnique)
	require.NoError(Te, err)
	assert.Equal(Te, StrategyUnique, F.Strategy())
	assert.Equal(Te, src[1:], F.Apply(src))

	F, err = FilterFromYAML(nil, StrategyAll)
	require.NoError(Te, err)
	assert.Empty(Te, F.Apply(src))

	for _, bad := range []string{"- a\n- b\n", "'a': [1, 2]\n", "'(': x\n", "a: b: c"} {
		_, err = FilterFromYAML([]byte(bad), StrategyAll)
		assert.Error(Te, err, bad)
	}
}

const metadataYAML = `
'GTH-.*':
  description: GTH pseudopotentials
  references:
    - 10.1103/PhysRevB.54.1703
    - 10.1103/PhysRevB.58.3641
  tags: [q1, q4]
  version: 2
'.*':
  description: other
`

func TestAddMetadataFromYAML(Te *testing.T) {
	A, err := AddMetadataFromYAML([]byte(metadataYAML))
	require.NoError(Te, err)
	m, ok := A.Apply("GTH-BLYP")
	require.True(Te, ok)
	assert.Equal(Te, Metadata{
		"description": "GTH pseudopotentials",
		"references":  []string{"10.1103/PhysRevB.54.1703", "10.1103/PhysRevB.58.3641"},
		"tags":        []string{"q1", "q4"},
		"version":     int64(2),
	}, m)
	m, ok = A.Apply("DZVP")
	require.True(Te, ok)
	assert.Equal(Te, Metadata{"description": "other"}, m)

	_, err = AddMetadataFromYAML([]byte("'.*': [1, 2]\n"))
	assert.Error(Te, err)
	_, err = AddMetadataFromYAML([]byte("'.*':\n  a:\n    b: c\n"))
	assert.Error(Te, err)
}

func TestRulesFromYAML(Te *testing.T) {
	data := `
family_name:
  '(.*)-q\d+': \1
variant:
  '.*-(q\d+)': \1
metadata:
  '.*':
    tags: [q1]
unknown: 1
`
	R, err := RulesFromYAML([]byte(data), true)
	require.NoError(Te, err)
	require.NotNil(Te, R.Rename)
	assert.Equal(Te, StrategyUnique, R.Rename.Strategy())
	assert.Equal(Te, []string{"GTH-BLYP"}, R.Rename.Apply([]string{"GTH-BLYP-q1", "GTH-BLYP-q1"}))
	C := &AtomicPseudopotential{Variant: Variant{Symbol: "C", Names: []string{"GTH-BLYP"}}, NElec: []int{2, 2}}
	_, ok := R.Variant.Tag(C)
	assert.False(Te, ok)
	m, ok := R.Metadata.Apply("GTH-BLYP")
	require.True(Te, ok)
	assert.Equal(Te, []string{"q1"}, m.Tags())

	R, err = RulesFromYAML([]byte("variant:\n  '.*-(q\\d+)': \\1\n"), false)
	require.NoError(Te, err)
	assert.Nil(Te, R.Rename)
	assert.Nil(Te, R.Metadata)
	tag, ok := R.Variant.Tag(C)
	assert.True(Te, ok)
	assert.Equal(Te, "q4", tag)

	_, err = RulesFromYAML([]byte("family_name: [a]\n"), false)
	assert.Error(Te, err)
}
