// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/rebar/substitution"
)

// refOf returns a homogeneous A reference of the given length, used as a
// neutral backdrop for synthetic parent/query fixtures.
func refOf(n int) []substitution.Base {
	bases := make([]substitution.Base, n)
	for i := range bases {
		bases[i] = substitution.A
	}
	return bases
}

func sub(coord uint32, alt substitution.Base) substitution.Substitution {
	return substitution.Substitution{Coord: coord, Reference: substitution.A, Alt: alt}
}

func seqOf(id string, length uint32, subs ...substitution.Substitution) *substitution.Sequence {
	s := &substitution.Sequence{ID: id, GenomeLength: length, Substitutions: append(substitution.Set(nil), subs...)}
	s.Substitutions.Sort()
	return s
}

func TestDeriveRegionsTwoParentRecombinant(t *testing.T) {
	ref := refOf(1000)

	// parentA marks the first half with C, parentB marks the second half
	// with G; the query follows A up to 500, then B from 501 on.
	var aSubs, bSubs, qSubs substitution.Set
	for c := uint32(1); c <= 500; c += 20 {
		aSubs = append(aSubs, sub(c, substitution.C))
		qSubs = append(qSubs, sub(c, substitution.C))
	}
	for c := uint32(501); c <= 1000; c += 20 {
		bSubs = append(bSubs, sub(c, substitution.G))
		qSubs = append(qSubs, sub(c, substitution.G))
	}

	parentA := Parent{Name: "A", Sequence: seqOf("A", 1000, aSubs...)}
	parentB := Parent{Name: "B", Sequence: seqOf("B", 1000, bSubs...)}
	query := seqOf("query", 1000, qSubs...)

	thresholds := Thresholds{MinConsecutive: 3, MinLength: 10, MinSubs: 3}
	regions, breakpoints, detected, err := DeriveRegions(ref, []Parent{parentA, parentB}, query, thresholds)
	require.NoError(t, err)
	assert.True(t, detected)
	require.Len(t, regions, 2)
	assert.Equal(t, "A", regions[0].Origin)
	assert.Equal(t, "B", regions[1].Origin)
	require.Len(t, breakpoints, 1)
	assert.True(t, breakpoints[0].Start <= breakpoints[0].End)
	assert.True(t, regions[0].End < breakpoints[0].Start)
	assert.True(t, breakpoints[0].End < regions[1].Start)
}

func TestDeriveRegionsSingleOriginNotDetected(t *testing.T) {
	ref := refOf(1000)
	var aSubs substitution.Set
	for c := uint32(1); c <= 1000; c += 20 {
		aSubs = append(aSubs, sub(c, substitution.C))
	}
	parentA := Parent{Name: "A", Sequence: seqOf("A", 1000, aSubs...)}
	parentB := Parent{Name: "B", Sequence: seqOf("B", 1000)}
	query := seqOf("query", 1000, aSubs...)

	thresholds := Thresholds{MinConsecutive: 3, MinLength: 10, MinSubs: 3}
	regions, breakpoints, detected, err := DeriveRegions(ref, []Parent{parentA, parentB}, query, thresholds)
	require.NoError(t, err)
	assert.False(t, detected)
	assert.Empty(t, breakpoints)
	for _, r := range regions {
		assert.Equal(t, "A", r.Origin)
	}
}

func TestResolveTiesSplitsAtMidpointWhenFlanksDiffer(t *testing.T) {
	rows := []row{
		{coord: 1, origin: "A"},
		{coord: 2, tie: []string{"A", "B"}},
		{coord: 3, tie: []string{"A", "B"}},
		{coord: 4, tie: []string{"A", "B"}},
		{coord: 5, origin: "B"},
	}
	resolveTies(rows)
	assert.Equal(t, "A", rows[1].origin)
	assert.Equal(t, "A", rows[2].origin)
	assert.Equal(t, "B", rows[3].origin)
}

func TestResolveTiesBorrowsSingleFlank(t *testing.T) {
	rows := []row{
		{coord: 1, origin: "A"},
		{coord: 2, tie: []string{"A", "B"}},
		{coord: 3, tie: []string{"A", "B"}},
	}
	resolveTies(rows)
	assert.Equal(t, "A", rows[1].origin)
	assert.Equal(t, "A", rows[2].origin)
}

func TestResolveTiesLeavesUnflankedRunUnresolved(t *testing.T) {
	rows := []row{
		{coord: 1, tie: []string{"A", "B"}},
		{coord: 2, tie: []string{"A", "B"}},
	}
	resolveTies(rows)
	assert.Equal(t, "", rows[0].origin)
	assert.Equal(t, "", rows[1].origin)
}

func TestDeriveBreakpointsClampsZeroGapAdjacency(t *testing.T) {
	regions := []Region{
		{Start: 1, End: 10, Origin: "A", Substitutions: substitution.Set{sub(10, substitution.C)}},
		{Start: 11, End: 20, Origin: "B", Substitutions: substitution.Set{sub(11, substitution.G)}},
	}
	bps := deriveBreakpoints(regions)
	require.Len(t, bps, 1)
	assert.LessOrEqual(t, bps[0].Start, bps[0].End)
}
