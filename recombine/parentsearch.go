// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"github.com/pkg/errors"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/substitution"
)

// SearchConfig bounds one parent search run.
type SearchConfig struct {
	MaxParents int
	MaxIter    int
	Thresholds Thresholds

	// Exclude lists populations that must never be chosen (knockouts),
	// already expanded to concrete names.
	Exclude map[string]bool

	// Include, if non-nil, restricts every candidate pool to this set,
	// independent of DesignatedParents (used by the hypothesis selector
	// to scope DesignatedRecombinant searches).
	Include map[string]bool

	// DesignatedParents, if non-empty, restricts candidate selection to
	// these names until all have been used as parents.
	DesignatedParents []string
}

// Recombination is the accepted outcome of a parent search: the ordered
// parent list and the regions/breakpoints it implies.
type Recombination struct {
	Parents     []string
	Regions     []Region
	Breakpoints []Breakpoint
	Detected    bool

	ConflictAlt substitution.Set
	ConflictRef substitution.Set
	Score       int
}

// ErrNoSecondaryParent reports that max_iter was reached with only the
// primary parent found.
var ErrNoSecondaryParent = errors.New("recombine: max_iter reached without finding a secondary parent")

// SearchParents iteratively grows parents (which must start with at least
// the primary parent) by the algorithm of spec §4.6, stopping when
// max_parents is reached, max_iter is exhausted, or the conflict set
// resolves.
func SearchParents(ds *dataset.Dataset, query *substitution.Sequence, parents []string, cfg SearchConfig) (*Recombination, error) {
	if len(parents) == 0 {
		return nil, errors.New("recombine: parent search requires at least one starting parent")
	}

	current := append([]string(nil), parents...)
	var rec *Recombination

	for iter := 0; iter < cfg.MaxIter && len(current) < cfg.MaxParents; iter++ {
		conflictAlt, conflictRef, err := computeConflicts(ds, query, current)
		if err != nil {
			return nil, err
		}
		if len(conflictAlt) < cfg.Thresholds.MinSubs {
			break
		}

		candidate, result, ok, err := findAcceptableCandidate(ds, query, current, conflictAlt, conflictRef, cfg)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		current = append(current, candidate)
		rec = result
	}

	if rec == nil {
		// Either no secondary parent was ever accepted, or the initial
		// conflict set was already below threshold: derive once more
		// with the parents we have so callers see a consistent result.
		regions, breakpoints, detected, err := deriveForParents(ds, query, current, cfg.Thresholds)
		if err != nil {
			return nil, err
		}
		conflictAlt, conflictRef, err := computeConflicts(ds, query, current)
		if err != nil {
			return nil, err
		}
		rec = &Recombination{
			Parents:     current,
			Regions:     regions,
			Breakpoints: breakpoints,
			Detected:    detected,
			ConflictAlt: conflictAlt,
			ConflictRef: conflictRef,
			Score:       regionScore(regions),
		}
	}

	if len(current) == 1 && len(rec.ConflictAlt) >= cfg.Thresholds.MinSubs {
		return rec, ErrNoSecondaryParent
	}
	return rec, nil
}

// computeConflicts implements spec §4.6 step 1.
func computeConflicts(ds *dataset.Dataset, query *substitution.Sequence, parents []string) (conflictAlt, conflictRef substitution.Set, err error) {
	parentSeqs := make([]*substitution.Sequence, len(parents))
	for i, name := range parents {
		seq, err := ds.Population(name)
		if err != nil {
			return nil, nil, err
		}
		parentSeqs[i] = seq
	}

	parentSubs := substitution.Union(sequencesSubs(parentSeqs)...)
	conflictAlt = query.Substitutions.Filter(func(s substitution.Substitution) bool {
		return !parentSubs.Contains(s)
	})

	var refUnion substitution.Set
	for _, seq := range parentSeqs {
		summary := substitution.Score(seq, query, nil)
		refUnion = substitution.Union(refUnion, summary.ConflictRef)
	}
	conflictRef = refUnion.Filter(func(s substitution.Substitution) bool {
		for _, seq := range parentSeqs {
			if seq.Substitutions.Contains(s) {
				return false
			}
		}
		return true
	})

	conflictAlt.Sort()
	conflictRef.Sort()
	return conflictAlt, conflictRef, nil
}

func sequencesSubs(seqs []*substitution.Sequence) []substitution.Set {
	out := make([]substitution.Set, len(seqs))
	for i, s := range seqs {
		out[i] = s.Substitutions
	}
	return out
}

// findAcceptableCandidate implements spec §4.6 steps 2-4.
func findAcceptableCandidate(ds *dataset.Dataset, query *substitution.Sequence, current []string, conflictAlt, conflictRef substitution.Set, cfg SearchConfig) (string, *Recombination, bool, error) {
	chosen := make(map[string]bool, len(current))
	for _, c := range current {
		chosen[c] = true
	}

	conflictRefCoords := conflictRef.Coords()

	eligible := func(name string) bool {
		if chosen[name] {
			return false
		}
		if cfg.Exclude != nil && cfg.Exclude[name] {
			return false
		}
		if cfg.Include != nil && !cfg.Include[name] {
			return false
		}
		pop, err := ds.Population(name)
		if err != nil {
			return false
		}
		if len(conflictRefCoords) > 0 {
			coversAll := true
			for _, c := range conflictRefCoords {
				if !pop.Substitutions.ContainsCoord(c) {
					coversAll = false
					break
				}
			}
			if coversAll {
				return false
			}
		}
		return true
	}

	remainingDesignated := remainingDesignated(cfg.DesignatedParents, chosen)

	var pool []string
	if len(remainingDesignated) > 0 {
		pool = remainingDesignated
	} else {
		for _, name := range ds.PopulationOrder {
			pop, err := ds.Population(name)
			if err != nil {
				continue
			}
			matching := pop.Substitutions.Filter(func(s substitution.Substitution) bool { return conflictAlt.Contains(s) })
			if len(matching) >= cfg.Thresholds.MinSubs {
				pool = append(pool, name)
			}
		}
	}

	var candidates []string
	for _, name := range pool {
		if eligible(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", nil, false, nil
	}

	conflictCoords := append(append([]uint32(nil), conflictAlt.Coords()...), conflictRefCoords...)
	window := coordWindow(conflictCoords)

	if name, rec, ok := tryCandidates(ds, query, current, candidates, &window, cfg.Thresholds); ok {
		return name, rec, true, nil
	}
	if name, rec, ok := tryCandidates(ds, query, current, candidates, nil, cfg.Thresholds); ok {
		return name, rec, true, nil
	}
	return "", nil, false, nil
}

func remainingDesignated(designated []string, chosen map[string]bool) []string {
	if len(designated) == 0 {
		return nil
	}
	var out []string
	for _, d := range designated {
		if !chosen[d] {
			out = append(out, d)
		}
	}
	return out
}

func coordWindow(coords []uint32) Window {
	if len(coords) == 0 {
		return Window{}
	}
	min, max := coords[0], coords[0]
	for _, c := range coords[1:] {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	return Window{Start: min, End: max}
}

// tryCandidates runs region derivation with each candidate appended to
// current (in candidate-pool order) and returns the first acceptance. When
// window is non-nil, a candidate is only accepted if the region it
// contributes overlaps [window.Start, window.End] — the first pass of
// spec §4.6 step 3, which looks for a candidate whose distinguishing
// signal falls within the conflict coordinates' span before falling back
// to accepting any candidate regardless of where its region lands (the
// second pass, window nil).
func tryCandidates(ds *dataset.Dataset, query *substitution.Sequence, current []string, candidates []string, window *Window, thresholds Thresholds) (string, *Recombination, bool) {
	for _, candidate := range candidates {
		trial := append(append([]string(nil), current...), candidate)
		regions, breakpoints, detected, err := deriveForParents(ds, query, trial, thresholds)
		if err != nil {
			continue
		}
		if !detected {
			continue
		}
		if !originRepresented(regions, candidate) {
			continue
		}
		if window != nil && !originWithinWindow(regions, candidate, *window) {
			continue
		}
		conflictAlt, conflictRef, err := computeConflicts(ds, query, trial)
		if err != nil {
			continue
		}
		return candidate, &Recombination{
			Parents:     trial,
			Regions:     regions,
			Breakpoints: breakpoints,
			Detected:    detected,
			ConflictAlt: conflictAlt,
			ConflictRef: conflictRef,
			Score:       regionScore(regions),
		}, true
	}
	return "", nil, false
}

func originRepresented(regions []Region, origin string) bool {
	for _, r := range regions {
		if r.Origin == origin {
			return true
		}
	}
	return false
}

// originWithinWindow reports whether candidate's region overlaps the
// closed interval [w.Start, w.End].
func originWithinWindow(regions []Region, origin string, w Window) bool {
	for _, r := range regions {
		if r.Origin == origin && r.Start <= w.End && r.End >= w.Start {
			return true
		}
	}
	return false
}

func deriveForParents(ds *dataset.Dataset, query *substitution.Sequence, names []string, thresholds Thresholds) ([]Region, []Breakpoint, bool, error) {
	parents := make([]Parent, len(names))
	for i, name := range names {
		seq, err := ds.Population(name)
		if err != nil {
			return nil, nil, false, err
		}
		parents[i] = Parent{Name: name, Sequence: seq}
	}
	if len(parents) < 2 {
		return nil, nil, false, nil
	}
	return DeriveRegions(ds.ReferenceBases, parents, query, thresholds)
}

func regionScore(regions []Region) int {
	total := 0
	for _, r := range regions {
		total += len(r.Substitutions)
	}
	return total
}
