// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/rebar/phylogeny"
	"github.com/kortschak/rebar/substitution"
)

func TestSearchParentsReportsErrNoSecondaryParentWhenNoneFits(t *testing.T) {
	ds := buildDataset(t, 1000)
	require.NoError(t, ds.Phylogeny.AddNode("A", []string{phylogeny.Root}))
	aSubs := substitution.Set{sub(10, substitution.C), sub(20, substitution.C)}
	addPopulation(ds, seqOf("A", 1000, aSubs...))

	query := seqOf("query", 1000, sub(30, substitution.T))
	cfg := SearchConfig{
		MaxParents: 2,
		MaxIter:    3,
		Thresholds: Thresholds{MinConsecutive: 1, MinLength: 1, MinSubs: 1},
	}
	_, err := SearchParents(ds, query, []string{"A"}, cfg)
	assert.ErrorIs(t, err, ErrNoSecondaryParent)
}

func TestSearchParentsAcceptsSecondParentAndBuildsRecombination(t *testing.T) {
	ds := buildDataset(t, 1000)
	require.NoError(t, ds.Phylogeny.AddNode("A", []string{phylogeny.Root}))
	require.NoError(t, ds.Phylogeny.AddNode("B", []string{phylogeny.Root}))

	var aSubs, bSubs substitution.Set
	for c := uint32(1); c <= 491; c += 10 {
		aSubs = append(aSubs, sub(c, substitution.C))
	}
	for c := uint32(510); c <= 1000; c += 10 {
		bSubs = append(bSubs, sub(c, substitution.G))
	}
	addPopulation(ds, seqOf("A", 1000, aSubs...))
	addPopulation(ds, seqOf("B", 1000, bSubs...))

	// The query carries one extra, unexplained substitution no population
	// shares, so that B never covers every coordinate in conflict_ref and
	// is never excluded from the secondary-parent candidate pool outright.
	stray := sub(755, substitution.T)
	query := seqOf("query", 1000, append(append(append(substitution.Set{}, aSubs...), bSubs...), stray)...)

	cfg := SearchConfig{
		MaxParents: 2,
		MaxIter:    3,
		Thresholds: Thresholds{MinConsecutive: 3, MinLength: 10, MinSubs: 3},
	}
	rec, err := SearchParents(ds, query, []string{"A"}, cfg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, rec.Parents)
	assert.True(t, rec.Detected)
}
