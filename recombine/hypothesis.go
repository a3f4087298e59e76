// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/substitution"
)

// Hypothesis is a constrained mode of the parent search. Its enum order is
// significant: it is the final tie-breaker when two hypotheses score
// identically.
type Hypothesis int

const (
	NonRecombinant Hypothesis = iota
	DesignatedRecombinant
	RecursiveRecombinant
	NonRecursiveRecombinant
	KnockoutRecombinant
)

func (h Hypothesis) String() string {
	switch h {
	case NonRecombinant:
		return "non-recombinant"
	case DesignatedRecombinant:
		return "designated-recombinant"
	case RecursiveRecombinant:
		return "recursive-recombinant"
	case NonRecursiveRecombinant:
		return "non-recursive-recombinant"
	case KnockoutRecombinant:
		return "knockout-recombinant"
	default:
		return "unknown-hypothesis"
	}
}

// NovelAncestor is reported as RecombinantAncestor when the accepted parent
// set does not match any designated recombinant's parents.
const NovelAncestor = "novel"

// Outcome is the final, chosen result of running every applicable
// hypothesis.
type Outcome struct {
	Hypothesis Hypothesis

	ConsensusPopulation string
	RecombinantAncestor string // "" if not a recombinant, NovelAncestor if unmatched

	Parents     []string
	Regions     []Region
	Breakpoints []Breakpoint
	Detected    bool

	Score    int
	Conflict int
}

type candidateHypothesis struct {
	hypothesis Hypothesis
	rec        *Recombination
}

// SelectHypothesis runs every hypothesis applicable to best (per args), and
// picks the one with maximum score, breaking ties by minimum conflict and
// finally by enum order, per spec §4.7.
func SelectHypothesis(ds *dataset.Dataset, query *substitution.Sequence, best *SearchResult, args dataset.Args) (*Outcome, error) {
	nonRecScore := best.ScoreByPop[best.ConsensusPopulation]
	nonRecConflict := len(best.ConflictAltBy[best.ConsensusPopulation]) + len(best.ConflictRefBy[best.ConsensusPopulation])

	candidates := []candidateHypothesis{
		{NonRecombinant, nil},
	}

	recombinantsAll := make(map[string]bool)
	if names, err := ds.Phylogeny.RecombinantsAll(); err == nil {
		for _, n := range names {
			recombinantsAll[n] = true
		}
	}

	knockout := make(map[string]bool)
	if len(args.Knockout) > 0 {
		if names, err := ds.ExpandPopulations(args.Knockout); err == nil {
			for _, n := range names {
				knockout[n] = true
			}
		}
	}

	baseCfg := SearchConfig{
		MaxParents: args.MaxParents,
		MaxIter:    args.MaxIter,
		Thresholds: Thresholds{
			MinConsecutive: args.MinConsecutive,
			MinLength:      args.MinLength,
			MinSubs:        args.MinSubs,
		},
	}

	if !args.Naive && best.RecombinantAncestor != "" {
		if designated, err := ds.Phylogeny.Parents(best.RecombinantAncestor); err == nil && len(designated) > 0 {
			include := make(map[string]bool)
			for _, p := range designated {
				descendants, err := ds.Phylogeny.Descendants(p)
				if err != nil {
					continue
				}
				for _, d := range descendants {
					if !recombinantsAll[d] && !knockout[d] {
						include[d] = true
					}
				}
				if !knockout[p] {
					include[p] = true
				}
			}
			cfg := baseCfg
			cfg.Include = include
			cfg.DesignatedParents = designated
			if rec, ok := runHypothesis(ds, query, best.ConsensusPopulation, cfg); ok {
				candidates = append(candidates, candidateHypothesis{DesignatedRecombinant, rec})
			}
		}
	}

	{
		cfg := baseCfg
		if len(knockout) > 0 {
			cfg.Exclude = knockout
		}
		if rec, ok := runHypothesis(ds, query, best.ConsensusPopulation, cfg); ok {
			candidates = append(candidates, candidateHypothesis{RecursiveRecombinant, rec})
		}
	}

	{
		cfg := baseCfg
		cfg.Exclude = unionExclude(recombinantsAll, knockout)
		if rec, ok := runHypothesis(ds, query, best.ConsensusPopulation, cfg); ok {
			candidates = append(candidates, candidateHypothesis{NonRecursiveRecombinant, rec})
		}
	}

	{
		knockoutPlusConsensus := unionExclude(knockout, map[string]bool{best.ConsensusPopulation: true})
		altBest, err := BestMatch(ds, query, Options{Exclude: knockoutPlusConsensus})
		if err == nil {
			cfg := baseCfg
			cfg.Exclude = knockoutPlusConsensus
			if rec, ok := runHypothesis(ds, query, altBest.ConsensusPopulation, cfg); ok {
				candidates = append(candidates, candidateHypothesis{KnockoutRecombinant, rec})
			}
		}
	}

	chosen := candidates[0]
	chosenScore, chosenConflict := nonRecScore, nonRecConflict
	for _, c := range candidates[1:] {
		score := c.rec.Score
		conflict := len(c.rec.ConflictAlt) + len(c.rec.ConflictRef)
		switch {
		case score > chosenScore:
			chosen, chosenScore, chosenConflict = c, score, conflict
		case score == chosenScore && conflict < chosenConflict:
			chosen, chosenScore, chosenConflict = c, score, conflict
		case score == chosenScore && conflict == chosenConflict && c.hypothesis < chosen.hypothesis:
			chosen, chosenScore, chosenConflict = c, score, conflict
		}
	}

	if chosen.hypothesis == NonRecombinant {
		return &Outcome{
			Hypothesis:          NonRecombinant,
			ConsensusPopulation: best.ConsensusPopulation,
			Score:               nonRecScore,
			Conflict:            nonRecConflict,
		}, nil
	}

	out := &Outcome{
		Hypothesis:          chosen.hypothesis,
		ConsensusPopulation: best.ConsensusPopulation,
		Parents:             chosen.rec.Parents,
		Regions:             chosen.rec.Regions,
		Breakpoints:         chosen.rec.Breakpoints,
		Detected:            chosen.rec.Detected,
		Score:               chosen.rec.Score,
		Conflict:            len(chosen.rec.ConflictAlt) + len(chosen.rec.ConflictRef),
	}

	if best.RecombinantAncestor != "" && designatedParentsMatch(ds, chosen.rec.Parents, best.RecombinantAncestor) {
		out.RecombinantAncestor = best.RecombinantAncestor
	} else {
		out.RecombinantAncestor = NovelAncestor
		out.ConsensusPopulation = primaryParent(chosen.rec.Parents)
	}
	return out, nil
}

// unionExclude merges two knockout/exclude sets without mutating either.
func unionExclude(a, b map[string]bool) map[string]bool {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func runHypothesis(ds *dataset.Dataset, query *substitution.Sequence, primary string, cfg SearchConfig) (*Recombination, bool) {
	rec, err := SearchParents(ds, query, []string{primary}, cfg)
	if err != nil || rec == nil || !rec.Detected {
		return nil, false
	}
	return rec, true
}

func primaryParent(parents []string) string {
	if len(parents) == 0 {
		return ""
	}
	return parents[0]
}

// designatedParentsMatch reports whether observed (the accepted parent set)
// equals ancestor's designated parent set, after expanding both to their
// phylogenetic descendant closure, per spec §4.7/§4.8 "set equality under
// phylogenetic expansion": scenario S2 allows the search to accept a
// sequenced descendant of a designated parent in place of the parent
// itself, so a match requires each observed name to fall within the
// descendant closure of some not-yet-claimed designated parent, not that
// the names are identical.
func designatedParentsMatch(ds *dataset.Dataset, observed []string, ancestor string) bool {
	designated, err := ds.Phylogeny.Parents(ancestor)
	if err != nil {
		return false
	}
	if len(designated) != len(observed) {
		return false
	}

	closure := make(map[string]map[string]bool, len(designated))
	for _, d := range designated {
		members := map[string]bool{d: true}
		if descendants, err := ds.Phylogeny.Descendants(d); err == nil {
			for _, desc := range descendants {
				members[desc] = true
			}
		}
		closure[d] = members
	}

	claimed := make(map[string]bool, len(designated))
	for _, o := range observed {
		matched := false
		for _, d := range designated {
			if claimed[d] {
				continue
			}
			if closure[d][o] {
				claimed[d] = true
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
