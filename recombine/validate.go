// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recombine

import (
	"strings"

	"github.com/kortschak/rebar/dataset"
)

// Validation is the outcome of comparing an Outcome to the population a
// query's id claims to descend from.
type Validation struct {
	Expected string
	Pass     bool
	Details  string
}

// ExpectedPopulation extracts the expected population from a query id of
// the conventional form "population_<name>[_<suffix>]", or "" if the id
// does not carry that marker.
func ExpectedPopulation(queryID string) string {
	const prefix = "population_"
	i := strings.Index(queryID, prefix)
	if i < 0 {
		return ""
	}
	rest := queryID[i+len(prefix):]
	if j := strings.IndexByte(rest, '_'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

// Validate implements spec §4.8: given the population inferred from a
// query id and the observed outcome, report pass iff consensus, recombinant
// ancestor, and parent set all match what is expected of expected. The
// parent set is compared by plain name equality against the designated
// parents of expected's recombinant ancestor; descendants of a designated
// parent do not count as a match.
func Validate(ds *dataset.Dataset, expected string, out *Outcome) Validation {
	v := Validation{Expected: expected}
	if expected == "" {
		v.Details = "query id carries no expected population marker"
		return v
	}

	var failures []string

	if out.ConsensusPopulation != expected {
		failures = append(failures, "consensus "+out.ConsensusPopulation+" != expected "+expected)
	}

	expectedAncestor := ""
	if anc, err := ds.Phylogeny.RecombinantAncestor(expected); err == nil {
		expectedAncestor = anc
	}
	if out.RecombinantAncestor != expectedAncestor {
		failures = append(failures, "recombinant_ancestor "+out.RecombinantAncestor+" != expected "+expectedAncestor)
	}

	var expectedParents []string
	if expectedAncestor != "" {
		expectedParents, _ = ds.Phylogeny.Parents(expectedAncestor)
	}
	if !parentSetsEqual(out.Parents, expectedParents) {
		failures = append(failures, "parents "+strings.Join(out.Parents, ",")+" != expected "+strings.Join(expectedParents, ","))
	}

	if len(failures) == 0 {
		v.Pass = true
		v.Details = "ok"
		return v
	}
	v.Pass = false
	v.Details = strings.Join(failures, "; ")
	return v
}

func parentSetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
