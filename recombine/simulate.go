// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"github.com/pkg/errors"

	"github.com/kortschak/rebar/substitution"
)

// Simulate synthesizes a recombinant Sequence by stitching parents end to
// end at breakpoints: parents[0] covers [1, breakpoints[0]], parents[1]
// covers (breakpoints[0], breakpoints[1]], and so on, with the final
// parent covering the rest of the genome. len(breakpoints) must equal
// len(parents)-1, strictly ascending, each within [1, genomeLength).
//
// It is used to build known-truth recombinant fixtures for testing the
// search pipeline, mirroring the role of the original tool's simulate
// subcommand.
func Simulate(referenceBases []substitution.Base, parents []Parent, breakpoints []uint32, id string) (*substitution.Sequence, error) {
	if len(parents) < 2 {
		return nil, errors.New("recombine: simulate requires at least two parents")
	}
	if len(breakpoints) != len(parents)-1 {
		return nil, errors.Errorf("recombine: simulate needs %d breakpoints for %d parents, got %d", len(parents)-1, len(parents), len(breakpoints))
	}
	genomeLength := uint32(len(referenceBases))
	for i, bp := range breakpoints {
		if bp < 1 || bp >= genomeLength {
			return nil, errors.Errorf("recombine: breakpoint %d out of range [1, %d)", bp, genomeLength)
		}
		if i > 0 && bp <= breakpoints[i-1] {
			return nil, errors.New("recombine: simulate breakpoints must be strictly ascending")
		}
	}

	out := &substitution.Sequence{ID: id, GenomeLength: genomeLength}
	start := uint32(1)
	for i, p := range parents {
		end := genomeLength
		if i < len(breakpoints) {
			end = breakpoints[i]
		}
		out.Substitutions = append(out.Substitutions, inRange(p.Sequence.Substitutions, start, end)...)
		out.Deletions = append(out.Deletions, inRange(p.Sequence.Deletions, start, end)...)
		for _, c := range p.Sequence.Missing {
			if c >= start && c <= end {
				out.Missing = append(out.Missing, c)
			}
		}
		start = end + 1
	}

	out.Substitutions.Sort()
	out.Deletions.Sort()
	return out, nil
}

func inRange(set substitution.Set, start, end uint32) substitution.Set {
	var out substitution.Set
	for _, s := range set {
		if s.Coord >= start && s.Coord <= end {
			out = append(out, s)
		}
	}
	return out
}
