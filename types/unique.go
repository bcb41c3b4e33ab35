package types

import (
	"slices"
	"sort"

	"github.com/xtgo/set"
)

type byString []Type

func (s byString) Len() int      { return len(s) }
func (s byString) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byString) Less(i, j int) bool {
	si, sj := s[i].String(), s[j].String()
	if si != sj {
		return si < sj
	}
	return s[i].Hash() < s[j].Hash()
}

// Unique returns the distinct types of ts, sorted by their string representation.
// ts is not modified
func Unique(ts []Type) []Type {
	sorted := byString(slices.Clone(ts))
	sort.Sort(sorted)
	return sorted[:set.Uniq(sorted)]
}
