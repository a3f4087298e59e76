// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package substitution defines the nucleotide substitution model used
// throughout rebar: a 1-based coordinate paired with a reference and
// alternate base, plus the ordered sets built from an aligned sequence.
package substitution

import (
	"fmt"
	"sort"
)

// Base is a single IUPAC-reduced nucleotide token. Sequences are expected
// to be pre-aligned DNA; ambiguous bases other than N are folded to Ambiguous.
type Base byte

const (
	A         Base = 'A'
	C         Base = 'C'
	G         Base = 'G'
	T         Base = 'T'
	N         Base = 'N'
	Gap       Base = '-'
	Ambiguous Base = '?'
)

// BaseFrom maps a raw alignment byte to a Base, folding anything outside
// A/C/G/T/N/- to Ambiguous.
func BaseFrom(b byte) Base {
	switch b {
	case 'A', 'a':
		return A
	case 'C', 'c':
		return C
	case 'G', 'g':
		return G
	case 'T', 't':
		return T
	case 'N', 'n':
		return N
	case '-':
		return Gap
	default:
		return Ambiguous
	}
}

// Substitution is a single-site difference from a reference sequence.
// A Substitution whose Alt is Gap represents a deletion.
type Substitution struct {
	Coord     uint32 // 1-based
	Reference Base
	Alt       Base
}

// String renders a substitution in the conventional <ref><coord><alt> form.
func (s Substitution) String() string {
	return fmt.Sprintf("%c%d%c", s.Reference, s.Coord, s.Alt)
}

// IsDeletion reports whether s represents a deletion relative to reference.
func (s Substitution) IsDeletion() bool { return s.Alt == Gap }

// Less orders substitutions by coordinate, then by alt base, matching the
// total order required by the data model: coord first, alt as tie-break.
func (s Substitution) Less(o Substitution) bool {
	if s.Coord != o.Coord {
		return s.Coord < o.Coord
	}
	return s.Alt < o.Alt
}

// Set is an ordered, duplicate-free collection of substitutions.
type Set []Substitution

// Sort orders the set in place per Substitution.Less.
func (s Set) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Less(s[j]) })
}

// Contains reports whether sub is present in s. s must be sorted.
func (s Set) Contains(sub Substitution) bool {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Less(sub) })
	return i < len(s) && s[i] == sub
}

// ContainsCoord reports whether any substitution in s touches coord.
func (s Set) ContainsCoord(coord uint32) bool {
	for _, sub := range s {
		if sub.Coord == coord {
			return true
		}
	}
	return false
}

// At returns the substitution at coord, if any.
func (s Set) At(coord uint32) (Substitution, bool) {
	for _, sub := range s {
		if sub.Coord == coord {
			return sub, true
		}
	}
	return Substitution{}, false
}

// Coords returns the coordinates carried by s, in set order.
func (s Set) Coords() []uint32 {
	coords := make([]uint32, len(s))
	for i, sub := range s {
		coords[i] = sub.Coord
	}
	return coords
}

// Filter returns the subset of s for which keep returns true.
func (s Set) Filter(keep func(Substitution) bool) Set {
	out := make(Set, 0, len(s))
	for _, sub := range s {
		if keep(sub) {
			out = append(out, sub)
		}
	}
	return out
}

// Intersect returns the subset of coordinates present in coords.
func (s Set) Intersect(coords []uint32) Set {
	if coords == nil {
		return s
	}
	index := make(map[uint32]bool, len(coords))
	for _, c := range coords {
		index[c] = true
	}
	return s.Filter(func(sub Substitution) bool { return index[sub.Coord] })
}

// Union returns the set union of sets, sorted and duplicate-free.
func Union(sets ...Set) Set {
	seen := make(map[Substitution]bool)
	var out Set
	for _, s := range sets {
		for _, sub := range s {
			if !seen[sub] {
				seen[sub] = true
				out = append(out, sub)
			}
		}
	}
	out.Sort()
	return out
}

// CoordSet is an ordered, duplicate-free collection of coordinates, used
// for the missing-site set.
type CoordSet []uint32

// Contains reports whether coord is present in c.
func (c CoordSet) Contains(coord uint32) bool {
	for _, v := range c {
		if v == coord {
			return true
		}
	}
	return false
}
