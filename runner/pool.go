// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner orchestrates the recombination search pipeline over a
// batch of query sequences using a fixed-size worker pool.
package runner

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/substitution"
)

// Result is one query's complete outcome. Results are returned in the same
// order as the input queries regardless of which worker finished first.
type Result struct {
	Query      *substitution.Sequence
	Best       *recombine.SearchResult
	Outcome    *recombine.Outcome
	Validation recombine.Validation
	EdgeCase   bool
	Err        error
}

// Pool runs a fixed-size worker pool of query searches against a shared,
// read-only Dataset, per spec §5: the dataset is built once and never
// mutated; workers own their own query and produce an owned result; there
// is no cross-query communication.
type Pool struct {
	// Max bounds the number of queries searched concurrently. Values less
	// than 1 are treated as 1.
	Max int
}

// Run searches every query in queries against ds using args, and returns
// one Result per query, indexed identically to queries. A per-query
// failure (no candidate population, hypothesis selection error) is
// recorded in that Result's Err field rather than aborting the run, per
// spec §7's "per-query errors are recoverable" propagation policy.
func (p Pool) Run(log *logrus.Logger, ds *dataset.Dataset, queries []*substitution.Sequence, args dataset.Args) []Result {
	max := p.Max
	if max < 1 {
		max = 1
	}

	results := make([]Result, len(queries))
	sem := make(chan struct{}, max)
	var wg sync.WaitGroup
	var done int64

	wg.Add(len(queries))
	for i, q := range queries {
		i, q := i, q
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = searchOne(ds, q, args)

			n := atomic.AddInt64(&done, 1)
			fields := logrus.Fields{"strain": q.ID, "done": n, "total": len(queries)}
			if err := results[i].Err; err != nil {
				log.WithFields(fields).WithError(err).Warn("query search failed")
			} else {
				log.WithFields(fields).Info("query search complete")
			}
		}()
	}
	wg.Wait()
	return results
}

// searchOne runs the full best-match -> hypothesis-selection -> validation
// pipeline for a single query, applying knockouts, an explicit parent
// include-list, and any matching edge-case parameter override.
func searchOne(ds *dataset.Dataset, query *substitution.Sequence, args dataset.Args) Result {
	exclude, err := expandToSet(ds, args.Knockout)
	if err != nil {
		return Result{Query: query, Err: err}
	}

	var include []string
	if len(args.Parents) > 0 {
		include, err = ds.ExpandPopulations(args.Parents)
		if err != nil {
			return Result{Query: query, Err: err}
		}
	}

	best, err := recombine.BestMatch(ds, query, recombine.Options{Include: include, Exclude: exclude})
	if err != nil {
		return Result{Query: query, Err: err}
	}

	effectiveArgs, edgeCase := applyEdgeCase(ds, args, best)

	outcome, err := recombine.SelectHypothesis(ds, query, best, effectiveArgs)
	if err != nil {
		return Result{Query: query, Best: best, Err: err}
	}

	validation := recombine.Validate(ds, recombine.ExpectedPopulation(query.ID), outcome)

	return Result{
		Query:      query,
		Best:       best,
		Outcome:    outcome,
		Validation: validation,
		EdgeCase:   edgeCase,
	}
}

// applyEdgeCase looks up an edge case registered for the consensus
// population (falling back to its recombinant ancestor, if any) and, when
// found and the run is not naive, returns args overridden by it.
func applyEdgeCase(ds *dataset.Dataset, args dataset.Args, best *recombine.SearchResult) (dataset.Args, bool) {
	if args.Naive {
		return args, false
	}
	if ec, ok := ds.EdgeCaseFor(best.ConsensusPopulation); ok {
		return args.ApplyEdgeCase(ec.Args), true
	}
	if best.RecombinantAncestor != "" {
		if ec, ok := ds.EdgeCaseFor(best.RecombinantAncestor); ok {
			return args.ApplyEdgeCase(ec.Args), true
		}
	}
	return args, false
}

func expandToSet(ds *dataset.Dataset, names []string) (map[string]bool, error) {
	if len(names) == 0 {
		return nil, nil
	}
	expanded, err := ds.ExpandPopulations(names)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(expanded))
	for _, n := range expanded {
		out[n] = true
	}
	return out, nil
}
