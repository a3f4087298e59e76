// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recombine implements the recombination search pipeline: the
// best-match parsimony search, region/breakpoint derivation, the
// iterative parent search engine, the hypothesis selector, the validator,
// and a recombinant-sequence simulator used to build test fixtures.
package recombine

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/substitution"
)

// SearchResult is the outcome of a best-match parsimony search of a query
// against a set of candidate populations.
type SearchResult struct {
	ConsensusPopulation string
	RecombinantAncestor string // "" if none

	TopPopulations []string
	ScoreByPop     map[string]int
	SupportByPop   map[string]substitution.Set
	ConflictAltBy  map[string]substitution.Set
	ConflictRefBy  map[string]substitution.Set

	Private    substitution.Set
	Diagnostic substitution.Set
}

// Window restricts a search to substitutions inside [Start, End].
type Window struct {
	Start, End uint32
}

// Options narrows the candidate population set for a best-match search.
type Options struct {
	Include []string // if set, restrict candidates to exactly these
	Exclude map[string]bool
	Window  *Window
}

// BestMatch scores query against every candidate population allowed by
// opts, and summarizes the consensus population, its recombinant
// ancestor (if any), and the query's private/diagnostic substitutions.
func BestMatch(ds *dataset.Dataset, query *substitution.Sequence, opts Options) (*SearchResult, error) {
	candidates := candidatePopulations(ds, opts)
	if len(candidates) == 0 {
		return nil, errors.New("recombine: best-match search has no candidate populations")
	}

	var coords []uint32
	if opts.Window != nil {
		coords = coordsInWindow(ds.Reference.GenomeLength, *opts.Window)
	}

	scoreByPop := make(map[string]int, len(candidates))
	supportBy := make(map[string]substitution.Set, len(candidates))
	conflictAltBy := make(map[string]substitution.Set, len(candidates))
	conflictRefBy := make(map[string]substitution.Set, len(candidates))

	best := 0
	for i, name := range candidates {
		pop, err := ds.Population(name)
		if err != nil {
			return nil, err
		}
		summary := substitution.Score(pop, query, coords)
		scoreByPop[name] = summary.Score
		supportBy[name] = summary.Support
		conflictAltBy[name] = summary.ConflictAlt
		conflictRefBy[name] = summary.ConflictRef
		if i == 0 || summary.Score > best {
			best = summary.Score
		}
	}

	var top []string
	for _, name := range candidates {
		if scoreByPop[name] == best {
			top = append(top, name)
		}
	}

	consensus := pickConsensus(ds, top)

	recombinantAncestor := ""
	if ds.Phylogeny.Has(consensus) {
		if ancestor, err := ds.Phylogeny.RecombinantAncestor(consensus); err == nil {
			recombinantAncestor = ancestor
		}
	}

	consensusPop, err := ds.Population(consensus)
	if err != nil {
		return nil, err
	}
	private := query.Substitutions.Filter(func(s substitution.Substitution) bool {
		return !consensusPop.Substitutions.Contains(s)
	})

	diagnostic := ds.DiagnosticFor(consensus).Filter(func(s substitution.Substitution) bool {
		return consensusPop.Substitutions.Contains(s)
	})

	return &SearchResult{
		ConsensusPopulation: consensus,
		RecombinantAncestor: recombinantAncestor,
		TopPopulations:      top,
		ScoreByPop:          scoreByPop,
		SupportByPop:        supportBy,
		ConflictAltBy:       conflictAltBy,
		ConflictRefBy:       conflictRefBy,
		Private:             private,
		Diagnostic:          diagnostic,
	}, nil
}

// pickConsensus implements spec §4.4: prefer the unique LCA of the top
// set when that LCA is itself a member of the top set; otherwise the
// first top population in insertion (PopulationOrder) order.
func pickConsensus(ds *dataset.Dataset, top []string) string {
	if len(top) == 1 {
		return top[0]
	}
	allInPhylogeny := true
	for _, name := range top {
		if !ds.Phylogeny.Has(name) {
			allInPhylogeny = false
			break
		}
	}
	if allInPhylogeny {
		lca, err := ds.Phylogeny.LowestCommonAncestor(top)
		if err == nil && inSet(lca, top) {
			return lca
		}
	}
	return firstByOrder(ds.PopulationOrder, top)
}

func inSet(name string, set []string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

func firstByOrder(order, set []string) string {
	allowed := make(map[string]bool, len(set))
	for _, s := range set {
		allowed[s] = true
	}
	for _, name := range order {
		if allowed[name] {
			return name
		}
	}
	return set[0]
}

func candidatePopulations(ds *dataset.Dataset, opts Options) []string {
	var names []string
	if opts.Include != nil {
		names = opts.Include
	} else {
		names = ds.PopulationOrder
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if opts.Exclude != nil && opts.Exclude[name] {
			continue
		}
		if _, ok := ds.Populations[name]; !ok {
			continue
		}
		out = append(out, name)
	}
	return out
}

func coordsInWindow(genomeLength uint32, w Window) []uint32 {
	coords := make([]uint32, 0, w.End-w.Start+1)
	for c := w.Start; c <= w.End && c <= genomeLength; c++ {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i] < coords[j] })
	return coords
}
