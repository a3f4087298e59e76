// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"sort"

	"github.com/kortschak/rebar/substitution"
)

// Region is a contiguous stretch of the genome assigned a single parental
// origin.
type Region struct {
	Start, End    uint32
	Origin        string
	Substitutions substitution.Set
}

// Breakpoint is the uncertainty interval between two adjacent regions of
// different origin.
type Breakpoint struct {
	Start, End uint32
}

// Thresholds bounds region/breakpoint derivation and the parent search.
type Thresholds struct {
	MinConsecutive int
	MinLength      int
	MinSubs        int
}

// Parent names a candidate sequence together with the label ("origin")
// it contributes to a Region.
type Parent struct {
	Name     string
	Sequence *substitution.Sequence
}

// row is one coordinate's parental-origin call during derivation.
type row struct {
	coord  uint32
	origin string // "" until resolved
	tie    []string
}

// DeriveRegions walks the discriminating coordinates among parents and
// query, assigns each a parental origin, groups them into Regions, applies
// the spec's filters, and computes the Breakpoints between surviving
// regions of different origin. detected reports whether at least two
// surviving regions of distinct origin remain.
func DeriveRegions(referenceBases []substitution.Base, parents []Parent, query *substitution.Sequence, t Thresholds) (regions []Region, breakpoints []Breakpoint, detected bool, err error) {
	coords := discriminatingCoords(referenceBases, parents)

	rows := make([]row, 0, len(coords))
	for _, c := range coords {
		if query.Missing.Contains(c) {
			continue
		}
		if _, ok := query.Deletions.At(c); ok {
			continue
		}
		queryBase := substitution.BaseAt(query, c, referenceBaseAt(referenceBases, c))

		var matching []string
		for _, p := range parents {
			base := substitution.BaseAt(p.Sequence, c, referenceBaseAt(referenceBases, c))
			if base == queryBase {
				matching = append(matching, p.Name)
			}
		}
		r := row{coord: c}
		if len(matching) == 1 {
			r.origin = matching[0]
		} else {
			r.tie = matching
		}
		rows = append(rows, r)
	}

	resolveTies(rows)

	refBaseFn := func(c uint32) substitution.Base { return referenceBaseAt(referenceBases, c) }
	regions = groupRows(rows, query, refBaseFn)

	regions = dropShortRuns(regions, t.MinConsecutive)
	regions = mergeAdjacentSameOrigin(regions)
	regions = dropBelowLength(regions, t.MinLength)
	regions = dropBelowSubs(regions, t.MinSubs)

	breakpoints = deriveBreakpoints(regions)
	detected = countDistinctOrigins(regions) >= 2
	return regions, breakpoints, detected, nil
}

func referenceBaseAt(bases []substitution.Base, coord uint32) substitution.Base {
	i := int(coord) - 1
	if i < 0 || i >= len(bases) {
		return substitution.Ambiguous
	}
	return bases[i]
}

// DiscriminatingCoords returns, in ascending order, every coordinate at
// which the parents do not all share the same base — the coordinate set a
// barcode table is built over.
func DiscriminatingCoords(referenceBases []substitution.Base, parents []Parent) []uint32 {
	return discriminatingCoords(referenceBases, parents)
}

// discriminatingCoords returns, in ascending order, every coordinate at
// which the parents do not all share the same base.
func discriminatingCoords(referenceBases []substitution.Base, parents []Parent) []uint32 {
	seen := make(map[uint32]bool)
	for _, p := range parents {
		for _, s := range p.Sequence.Substitutions {
			seen[s.Coord] = true
		}
		for _, s := range p.Sequence.Deletions {
			seen[s.Coord] = true
		}
	}
	coords := make([]uint32, 0, len(seen))
	for c := range seen {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i] < coords[j] })

	var out []uint32
	for _, c := range coords {
		ref := referenceBaseAt(referenceBases, c)
		first := substitution.BaseAt(parents[0].Sequence, c, ref)
		discriminating := false
		for _, p := range parents[1:] {
			if substitution.BaseAt(p.Sequence, c, ref) != first {
				discriminating = true
				break
			}
		}
		if discriminating {
			out = append(out, c)
		}
	}
	return out
}

// resolveTies assigns a definite origin to every tied row in place, per
// spec §4.5 step 1: a tie run takes the origin of whichever flanking
// singleton it borders; if both flanks differ, the run splits at its
// midpoint, the earlier half extending the preceding region.
func resolveTies(rows []row) {
	i := 0
	for i < len(rows) {
		if rows[i].origin != "" {
			i++
			continue
		}
		start := i
		for i < len(rows) && rows[i].origin == "" {
			i++
		}
		end := i // exclusive

		var before, after string
		if start > 0 {
			before = rows[start-1].origin
		}
		if end < len(rows) {
			after = rows[end].origin
		}

		switch {
		case before == "" && after == "":
			// No flanking singleton anywhere: leave unresolved, these
			// rows are dropped from grouping (no evidence of origin).
		case before == "":
			for k := start; k < end; k++ {
				rows[k].origin = after
			}
		case after == "":
			for k := start; k < end; k++ {
				rows[k].origin = before
			}
		case before == after:
			for k := start; k < end; k++ {
				rows[k].origin = before
			}
		default:
			mid := start + (end-start+1)/2 // extra row goes to the earlier (before) half
			for k := start; k < mid; k++ {
				rows[k].origin = before
			}
			for k := mid; k < end; k++ {
				rows[k].origin = after
			}
		}
	}
}

// groupRows collapses consecutive resolved rows of the same origin into
// Regions, dropping unresolved rows.
func groupRows(rows []row, query *substitution.Sequence, refBase func(uint32) substitution.Base) []Region {
	var regions []Region
	var cur *Region
	for _, r := range rows {
		if r.origin == "" {
			cur = nil
			continue
		}
		sub := substitution.Substitution{
			Coord:     r.coord,
			Reference: refBase(r.coord),
			Alt:       substitution.BaseAt(query, r.coord, refBase(r.coord)),
		}
		if cur != nil && cur.Origin == r.origin {
			cur.End = r.coord
			cur.Substitutions = append(cur.Substitutions, sub)
			continue
		}
		regions = append(regions, Region{Start: r.coord, End: r.coord, Origin: r.origin, Substitutions: substitution.Set{sub}})
		cur = &regions[len(regions)-1]
	}
	return regions
}

func dropShortRuns(regions []Region, minConsecutive int) []Region {
	out := regions[:0:0]
	for _, r := range regions {
		if len(r.Substitutions) < minConsecutive {
			continue
		}
		out = append(out, r)
	}
	return out
}

func mergeAdjacentSameOrigin(regions []Region) []Region {
	if len(regions) == 0 {
		return regions
	}
	out := []Region{regions[0]}
	for _, r := range regions[1:] {
		last := &out[len(out)-1]
		if last.Origin == r.Origin {
			last.End = r.End
			last.Substitutions = append(last.Substitutions, r.Substitutions...)
			continue
		}
		out = append(out, r)
	}
	return out
}

func dropBelowLength(regions []Region, minLength int) []Region {
	out := regions[:0:0]
	for _, r := range regions {
		if int(r.End-r.Start+1) < minLength {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dropBelowSubs(regions []Region, minSubs int) []Region {
	out := regions[:0:0]
	for _, r := range regions {
		if len(r.Substitutions) < minSubs {
			continue
		}
		out = append(out, r)
	}
	return out
}

func deriveBreakpoints(regions []Region) []Breakpoint {
	var out []Breakpoint
	for i := 1; i < len(regions); i++ {
		prev, next := regions[i-1], regions[i]
		if prev.Origin == next.Origin {
			continue
		}
		prevLast := prev.Substitutions[len(prev.Substitutions)-1].Coord
		nextFirst := next.Substitutions[0].Coord
		start := prevLast + 1
		end := nextFirst - 1
		if start > end {
			end = start
		}
		out = append(out, Breakpoint{Start: start, End: end})
	}
	return out
}

func countDistinctOrigins(regions []Region) int {
	seen := make(map[string]bool)
	for _, r := range regions {
		seen[r.Origin] = true
	}
	return len(seen)
}
