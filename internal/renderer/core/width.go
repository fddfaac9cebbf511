package core

import (
	"github.com/rivo/uniseg"
	"golang.org/x/text/width"
)

// RuneWidth returns the display width of a single rune: 0 for control
// characters, 2 for wide glyphs and 1 otherwise.
func RuneWidth(r rune) int {
	if r < 32 || r == 0x7F {
		return 0
	}
	if isEastAsianWide(r) || uniseg.StringWidth(string(r)) >= 2 {
		return 2
	}
	return 1
}

// ClusterWidth returns the display width of one grapheme cluster.
// Wide clusters (emoji, East Asian wide and fullwidth forms) take two
// columns; every other cluster takes one.
func ClusterWidth(cluster string) int {
	if IsWideCluster(cluster) {
		return 2
	}
	return 1
}

// IsWideCluster reports whether a grapheme cluster belongs to the wide glyph set.
func IsWideCluster(cluster string) bool {
	if cluster == "" {
		return false
	}
	for _, r := range cluster {
		if isEastAsianWide(r) {
			return true
		}
		break
	}
	return uniseg.StringWidth(cluster) >= 2
}

// StringWidth returns the display width of a line of plain text as the
// sum of its cluster widths.
func StringWidth(s string) int {
	total := 0
	EachCluster(s, func(cluster string) {
		total += ClusterWidth(cluster)
	})
	return total
}

// EachCluster calls fn for every grapheme cluster in s, in order.
func EachCluster(s string, fn func(cluster string)) {
	state := -1
	rest := s
	var cluster string
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		fn(cluster)
	}
}

func isEastAsianWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
