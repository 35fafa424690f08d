package options

import (
	"slices"
	"strings"
)

// CatalogVersion is bumped whenever a key is added, renamed or removed.
const CatalogVersion = 3

// Rule keys. Each rule is gated on its parent key; sub-options refine it.
const (
	SimplifyCompositeLiteral         Key = "simplify-composite-literal"
	SimplifyCompositeLiteralPointers Key = "simplify-composite-literal.pointers"
	SimplifySliceExpr                Key = "simplify-slice-expr"
	SimplifyRange                    Key = "simplify-range"
	SimplifyRangeBlankKey            Key = "simplify-range.blank-key"
	SimplifyRangeBlankValue          Key = "simplify-range.blank-value"
	RangeOverInt                     Key = "range-over-int"
	UselessBreak                     Key = "useless-break"
	SimplifyBoolCompare              Key = "simplify-bool-compare"
	RemoveUnusedImport               Key = "remove-unused-import"
	RemoveUnusedLocal                Key = "remove-unused-local"
	RemoveUnnecessarySuppression     Key = "remove-unnecessary-suppression"

	// FormatSource runs gofmt over every changed unit after the last pass.
	FormatSource Key = "format-source"
)

// KeyInfo describes one catalog entry.
type KeyInfo struct {
	Key         Key
	Description string
	Values      []string
	Default     string
}

var catalog = []KeyInfo{
	{Key: SimplifyCompositeLiteral, Description: "drop element types repeated inside composite literals", Values: bools, Default: True},
	{Key: SimplifyCompositeLiteralPointers, Description: "also drop &T in []*T literals", Values: bools, Default: True},
	{Key: SimplifySliceExpr, Description: "rewrite s[a:len(s)] to s[a:]", Values: bools, Default: True},
	{Key: SimplifyRange, Description: "drop blank identifiers from range clauses", Values: bools, Default: True},
	{Key: SimplifyRangeBlankKey, Description: "rewrite for _ = range x to for range x", Values: bools, Default: True},
	{Key: SimplifyRangeBlankValue, Description: "rewrite for k, _ := range x to for k := range x", Values: bools, Default: True},
	{Key: RangeOverInt, Description: "rewrite counting loops to range over an int (go1.22+)", Values: bools, Default: False},
	{Key: UselessBreak, Description: "remove trailing break in switch and select clauses", Values: bools, Default: True},
	{Key: SimplifyBoolCompare, Description: "rewrite x == true to x in conditions", Values: bools, Default: True},
	{Key: RemoveUnusedImport, Description: "delete imports that are never referenced", Values: bools, Default: True},
	{Key: RemoveUnusedLocal, Description: "delete unused local variables with side-effect free initializers", Values: bools, Default: False},
	{Key: RemoveUnnecessarySuppression, Description: "delete //nolint directives that suppress nothing", Values: bools, Default: False},
	{Key: FormatSource, Description: "gofmt changed files", Values: bools, Default: False},
}

var bools = []string{True, False}

// Catalog returns every known key in declaration order.
func Catalog() []KeyInfo {
	return slices.Clone(catalog)
}

// Lookup returns the catalog entry for key.
func Lookup(key Key) (KeyInfo, bool) {
	for _, info := range catalog {
		if info.Key == key {
			return info, true
		}
	}
	return KeyInfo{}, false
}

// Defaults returns a snapshot holding the default value of every key.
func Defaults() Options {
	m := make(map[string]string, len(catalog))
	for _, info := range catalog {
		m[string(info.Key)] = info.Default
	}
	return New(m)
}

// Unknown returns the keys of values that are not in the catalog, sorted.
func Unknown(values map[string]string) []string {
	var out []string
	for k := range values {
		if _, ok := Lookup(Key(strings.TrimSpace(k))); !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
