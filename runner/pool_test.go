// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runner

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/phylogeny"
	"github.com/kortschak/rebar/substitution"
)

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
	return &substitution.Sequence{ID: id, GenomeLength: length, Substitutions: substitution.Set(subs)}
}

func addPopulation(ds *dataset.Dataset, seq *substitution.Sequence) {
	ds.Populations[seq.ID] = seq
	ds.PopulationOrder = append(ds.PopulationOrder, seq.ID)
	for _, s := range seq.Substitutions {
		ds.Mutations[s] = append(ds.Mutations[s], seq.ID)
	}
}

func buildDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds := dataset.New()
	ds.Reference = seqOf("reference", 1000)
	ds.ReferenceBases = refOf(1000)
	return ds
}

func silentLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestPoolRunPreservesInputOrderRegardlessOfCompletionOrder(t *testing.T) {
	ds := buildDataset(t)
	require.NoError(t, ds.Phylogeny.AddNode("A", []string{phylogeny.Root}))
	require.NoError(t, ds.Phylogeny.AddNode("B", []string{phylogeny.Root}))
	addPopulation(ds, seqOf("A", 1000, sub(10, substitution.C)))
	addPopulation(ds, seqOf("B", 1000, sub(20, substitution.G)))

	var queries []*substitution.Sequence
	for i := 0; i < 8; i++ {
		if i%2 == 0 {
			queries = append(queries, seqOf("q", 1000, sub(10, substitution.C)))
		} else {
			queries = append(queries, seqOf("q", 1000, sub(20, substitution.G)))
		}
	}

	pool := Pool{Max: 4}
	results := pool.Run(silentLogger(), ds, queries, dataset.DefaultArgs())

	require.Len(t, results, 8)
	for i, r := range results {
		require.NoError(t, r.Err)
		if i%2 == 0 {
			assert.Equal(t, "A", r.Outcome.ConsensusPopulation)
		} else {
			assert.Equal(t, "B", r.Outcome.ConsensusPopulation)
		}
	}
}

func TestPoolRunIsolatesPerQueryFailures(t *testing.T) {
	ds := buildDataset(t)
	require.NoError(t, ds.Phylogeny.AddNode("A", []string{phylogeny.Root}))
	addPopulation(ds, seqOf("A", 1000, sub(10, substitution.C)))

	queries := []*substitution.Sequence{
		seqOf("good", 1000, sub(10, substitution.C)),
		seqOf("bad", 1000, sub(10, substitution.C)),
		seqOf("good2", 1000, sub(10, substitution.C)),
	}

	args := dataset.DefaultArgs()
	args.Parents = []string{"missing-population*"}

	pool := Pool{Max: 2}
	results := pool.Run(silentLogger(), ds, queries, args)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Err, "every query should fail identically when the parents include-list expands against a missing wildcard root")
	}

	args.Parents = nil
	results = pool.Run(silentLogger(), ds, queries, args)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, "A", r.Outcome.ConsensusPopulation)
	}
}

func TestPoolRunAppliesEdgeCaseOverride(t *testing.T) {
	ds := buildDataset(t)
	require.NoError(t, ds.Phylogeny.AddNode("XCF", []string{phylogeny.Root}))
	addPopulation(ds, seqOf("XCF", 1000, sub(10, substitution.C)))
	ds.EdgeCases = dataset.SarsCov2EdgeCases()

	queries := []*substitution.Sequence{seqOf("q", 1000, sub(10, substitution.C))}

	pool := Pool{Max: 1}
	results := pool.Run(silentLogger(), ds, queries, dataset.DefaultArgs())

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].EdgeCase)
}

func TestPoolRunDefaultsMaxToOne(t *testing.T) {
	ds := buildDataset(t)
	require.NoError(t, ds.Phylogeny.AddNode("A", []string{phylogeny.Root}))
	addPopulation(ds, seqOf("A", 1000, sub(10, substitution.C)))

	pool := Pool{}
	results := pool.Run(silentLogger(), ds, []*substitution.Sequence{seqOf("q", 1000, sub(10, substitution.C))}, dataset.DefaultArgs())
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}
