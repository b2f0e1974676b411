/*
 * rules.go, part of gobasis.
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
	"regexp"
	"strings"

	"github.com/rmera/gobasis/container"
	"gopkg.in/yaml.v3"
)

// Strategy tells a Filter what to do with the values it obtains from a list of names.
type Strategy int

const (
	StrategyAll    Strategy = iota //keep every value, in order
	StrategyFirst                  //keep only the first value
	StrategyUnique                 //keep the first occurrence of each value, in order
)

func (S Strategy) String() string {
	switch S {
	case StrategyAll:
		return "all"
	case StrategyFirst:
		return "first"
	case StrategyUnique:
		return "unique"
	}
	return fmt.Sprintf("Strategy(%d)", int(S))
}

// Rule is a pattern and what to do with the names matching it. The pattern must
// match at the start of the name. The value obtained is Replacement, where
// $1, ${name} and \1 are replaced by the corresponding submatch, and \0 or $0 by the whole match.
// If Discard is true, the matching names give no value at all.
type Rule struct {
	Pattern     string
	Replacement string
	Discard     bool
}

// Rename returns a rule turning the names matching pattern into replacement.
func Rename(pattern, replacement string) Rule {
	return Rule{Pattern: pattern, Replacement: replacement}
}

// Discard returns a rule dropping the names matching pattern.
func Discard(pattern string) Rule {
	return Rule{Pattern: pattern, Discard: true}
}

type compiledRule struct {
	re       *regexp.Regexp
	template string
	discard  bool
}

var backref = regexp.MustCompile(`\\(\d+)`)

//goTemplate turns a replacement with \1-style back-references into a template
//for regexp.Expand.
func goTemplate(replacement string) string {
	return backref.ReplaceAllString(replacement, "$${$1}")
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return nil, fmt.Errorf("wrong pattern %q: %w", pattern, err)
	}
	return re, nil
}

// Filter turns a list of names into a list of values (family names or variant
// tags), according to an ordered list of rules. For each name, the first rule
// matching it is used, and names matching no rule give no value.
type Filter struct {
	rules    []compiledRule
	strategy Strategy
}

// NewFilter returns a filter with the given rules. It fails if a pattern is not
// a valid regular expression.
func NewFilter(strategy Strategy, rules ...Rule) (*Filter, error) {
	F := &Filter{strategy: strategy, rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		re, err := compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		F.rules = append(F.rules, compiledRule{re: re, template: goTemplate(r.Replacement), discard: r.Discard})
	}
	return F, nil
}

// Identity returns a filter which keeps each name once.
func Identity() *Filter {
	F, _ := NewFilter(StrategyUnique, Rename(".*", `\0`))
	return F
}

// Strategy returns the strategy of the filter.
func (F *Filter) Strategy() Strategy {
	return F.strategy
}

//value applies the first matching rule to name. ok is false if no rule
//matches or if the rule discards the name.
func (F *Filter) value(name string) (string, bool) {
	for _, r := range F.rules {
		loc := r.re.FindStringSubmatchIndex(name)
		if loc == nil {
			continue
		}
		if r.discard {
			return "", false
		}
		return string(r.re.ExpandString(nil, r.template, name, loc)), true
	}
	return "", false
}

// Apply returns the values obtained from names. It never returns more than one
// value with StrategyFirst.
func (F *Filter) Apply(names []string) []string {
	var ret []string
	seen := make(map[string]bool)
	for _, n := range names {
		v, ok := F.value(n)
		if !ok {
			continue
		}
		switch F.strategy {
		case StrategyFirst:
			return []string{v}
		case StrategyUnique:
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		ret = append(ret, v)
	}
	return ret
}

// Fallback tells a VariantRule what to do when no rule matches.
type Fallback int

const (
	FallbackImplicit Fallback = iota //use the implicit variant of the data
	FallbackDrop                     //drop the data
)

// VariantRule obtains the variant tag of an entry from its names.
type VariantRule struct {
	filter   *Filter
	fallback Fallback
}

// NewVariantRule returns a variant rule. The first value the rules give, over all the
// names of an entry, is the tag.
func NewVariantRule(fallback Fallback, rules ...Rule) (*VariantRule, error) {
	F, err := NewFilter(StrategyFirst, rules...)
	if err != nil {
		return nil, err
	}
	return &VariantRule{filter: F, fallback: fallback}, nil
}

// Tag returns the variant tag for d, and false if d should be dropped.
// A nil VariantRule always gives the implicit variant of d.
func (V *VariantRule) Tag(d AtomicData) (string, bool) {
	if V == nil {
		return d.ImplicitVariant(), true
	}
	if tags := V.filter.Apply(d.Info().Names); len(tags) > 0 {
		return tags[0], true
	}
	if V.fallback == FallbackDrop {
		return "", false
	}
	return d.ImplicitVariant(), true
}

// Metadata is what is known about a family as a whole: references, a description,
// the tags of its variants... Values are strings, bools, int64, float64 or slices of these.
type Metadata map[string]interface{}

// TagsKey is the metadata key listing the tags of a family.
const TagsKey = "tags"

// Tags returns the tags declared in M, if any.
func (M Metadata) Tags() []string {
	switch t := M[TagsKey].(type) {
	case []string:
		return t
	case string:
		return []string{t}
	}
	return nil
}

func (M Metadata) clone() Metadata {
	ret := make(Metadata, len(M))
	for k, v := range M {
		switch s := v.(type) {
		case []string:
			ret[k] = append([]string(nil), s...)
		case []int64:
			ret[k] = append([]int64(nil), s...)
		case []float64:
			ret[k] = append([]float64(nil), s...)
		default:
			ret[k] = v
		}
	}
	return ret
}

// MetadataRule gives the metadata of the families whose name matches Pattern.
type MetadataRule struct {
	Pattern  string
	Metadata Metadata
}

type compiledMetadataRule struct {
	re       *regexp.Regexp
	metadata Metadata
}

// AddMetadata gives the metadata of a family from its name, according to an
// ordered list of rules. The first rule matching the family name wins.
type AddMetadata struct {
	rules []compiledMetadataRule
}

// NewAddMetadata returns the engine for the given rules. It fails if a pattern
// is not valid, or if a value can't be stored in a container.
func NewAddMetadata(rules ...MetadataRule) (*AddMetadata, error) {
	A := &AddMetadata{rules: make([]compiledMetadataRule, 0, len(rules))}
	for _, r := range rules {
		re, err := compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		m := make(Metadata, len(r.Metadata))
		for k, v := range r.Metadata {
			n, err := container.NormalizeValue(v)
			if err != nil {
				return nil, fmt.Errorf("metadata %q for pattern %q: %w", k, r.Pattern, err)
			}
			m[k] = n
		}
		A.rules = append(A.rules, compiledMetadataRule{re: re, metadata: m})
	}
	return A, nil
}

// Apply returns a copy of the metadata of the first rule matching family,
// and false if none does.
func (A *AddMetadata) Apply(family string) (Metadata, bool) {
	if A == nil {
		return nil, false
	}
	for _, r := range A.rules {
		if r.re.MatchString(family) {
			return r.metadata.clone(), true
		}
	}
	return nil, false
}

//mappingNode returns the mapping at the root of a YAML document.
func mappingNode(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	node := &doc
	if node.Kind == yaml.DocumentNode {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: a mapping was expected", node.Line)
	}
	return node, nil
}

//rulesFromNode reads an ordered mapping of patterns to replacements. A null
//replacement discards the names.
func rulesFromNode(node *yaml.Node) ([]Rule, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: a mapping was expected", node.Line)
	}
	rules := make([]Rule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: the replacement for %q must be a string or null", v.Line, k.Value)
		}
		if v.Tag == "!!null" {
			rules = append(rules, Discard(k.Value))
		} else {
			rules = append(rules, Rename(k.Value, v.Value))
		}
	}
	return rules, nil
}

func metadataRulesFromNode(node *yaml.Node) ([]MetadataRule, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: a mapping was expected", node.Line)
	}
	rules := make([]MetadataRule, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		m := Metadata{}
		if err := v.Decode(&m); err != nil {
			return nil, fmt.Errorf("line %d: %w", v.Line, err)
		}
		rules = append(rules, MetadataRule{Pattern: k.Value, Metadata: m})
	}
	return rules, nil
}

// FilterFromYAML builds a filter from an ordered YAML mapping of patterns to
// replacements, as in
//
//	'^.*-q\d+$': null
//	'(.*)-GTH': \1
func FilterFromYAML(data []byte, strategy Strategy) (*Filter, error) {
	node, err := mappingNode(data)
	if err != nil {
		return nil, err
	}
	rules, err := rulesFromNode(node)
	if err != nil {
		return nil, err
	}
	return NewFilter(strategy, rules...)
}

// AddMetadataFromYAML builds a metadata engine from an ordered YAML mapping of
// patterns to metadata mappings.
func AddMetadataFromYAML(data []byte) (*AddMetadata, error) {
	node, err := mappingNode(data)
	if err != nil {
		return nil, err
	}
	rules, err := metadataRulesFromNode(node)
	if err != nil {
		return nil, err
	}
	return NewAddMetadata(rules...)
}

// Rules are the rules used to store the content of one source.
// A nil Rename keeps every name once, a nil Variant always gives the implicit
// variant and a nil Metadata leaves the metadata of the families untouched.
type Rules struct {
	Rename   *Filter
	Variant  *VariantRule
	Metadata *AddMetadata
}

// RulesFromYAML reads the rules for a source from a YAML mapping with the
// (optional) keys family_name, variant and metadata. family_name uses StrategyUnique.
// If drop is true, entries where no variant rule matches are dropped.
func RulesFromYAML(data []byte, drop bool) (Rules, error) {
	var R Rules
	node, err := mappingNode(data)
	if err != nil {
		return R, err
	}
	fallback := FallbackImplicit
	if drop {
		fallback = FallbackDrop
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		switch strings.ToLower(k.Value) {
		case "family_name":
			rules, err := rulesFromNode(v)
			if err == nil {
				R.Rename, err = NewFilter(StrategyUnique, rules...)
			}
			if err != nil {
				return R, fmt.Errorf("family_name: %w", err)
			}
		case "variant":
			rules, err := rulesFromNode(v)
			if err == nil {
				R.Variant, err = NewVariantRule(fallback, rules...)
			}
			if err != nil {
				return R, fmt.Errorf("variant: %w", err)
			}
		case "metadata":
			rules, err := metadataRulesFromNode(v)
			if err == nil {
				R.Metadata, err = NewAddMetadata(rules...)
			}
			if err != nil {
				return R, fmt.Errorf("metadata: %w", err)
			}
		default:
			lg().Debug("Ignoring unknown key in rules", "key", k.Value, "line", k.Line)
		}
	}
	return R, nil
}
