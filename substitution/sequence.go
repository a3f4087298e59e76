// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package substitution

import (
	"fmt"

	"github.com/biogo/biogo/seq/linear"
)

// Mask zeroes out (marks as missing) the given number of sites at the
// 5' (Left) and 3' (Right) ends of a sequence.
type Mask struct {
	Left, Right int
}

// Sequence is an aligned record reduced to its differences from a
// reference of identical length: its substitutions, missing sites, and
// deletions, each pairwise-disjoint over coordinate.
type Sequence struct {
	ID            string
	GenomeLength  uint32
	Substitutions Set
	Missing       CoordSet
	Deletions     Set
}

// FromRecord builds a Sequence for rec against reference, applying mask
// to zero out the first mask.Left and last mask.Right 1-based coordinates
// (they become missing). rec and reference must have identical length.
func FromRecord(rec *linear.Seq, reference *linear.Seq, mask Mask) (*Sequence, error) {
	if rec.Len() != reference.Len() {
		return nil, fmt.Errorf("substitution: record %q length %d does not match reference length %d", rec.Name(), rec.Len(), reference.Len())
	}

	n := rec.Len()
	s := &Sequence{
		ID:           rec.Name(),
		GenomeLength: uint32(n),
	}

	for i := 0; i < n; i++ {
		coord := uint32(i + 1)
		query := BaseFrom(byte(rec.Seq[i]))
		ref := BaseFrom(byte(reference.Seq[i]))

		masked := i < mask.Left || i >= n-mask.Right
		if masked || query == N {
			s.Missing = append(s.Missing, coord)
			continue
		}
		if query == ref {
			continue
		}
		sub := Substitution{Coord: coord, Reference: ref, Alt: query}
		if query == Gap {
			s.Deletions = append(s.Deletions, sub)
			continue
		}
		s.Substitutions = append(s.Substitutions, sub)
	}

	s.Substitutions.Sort()
	s.Deletions.Sort()
	return s, nil
}

// BaseAt returns the base s carries at coord: the alt of a substitution or
// deletion if one is recorded there, Ambiguous if the coordinate is
// missing, or referenceBase otherwise.
func BaseAt(s *Sequence, coord uint32, referenceBase Base) Base {
	if s.Missing.Contains(coord) {
		return Ambiguous
	}
	if del, ok := s.Deletions.At(coord); ok {
		return del.Alt
	}
	if sub, ok := s.Substitutions.At(coord); ok {
		return sub.Alt
	}
	return referenceBase
}
