// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// EdgeCase is a per-recombinant override of search parameters, applied
// when the query population matches EdgeCase.Population.
type EdgeCase struct {
	Population string `json:"population"`
	Args       Args   `json:"args"`
}

// unmarshalEdgeCases parses an edge_cases.json array.
func unmarshalEdgeCases(data []byte) ([]EdgeCase, error) {
	var cases []EdgeCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, errors.Wrap(err, "dataset: parse edge_cases.json")
	}
	return cases, nil
}

// EdgeCaseFor returns the edge case registered for population, and
// whether one was found.
func (d *Dataset) EdgeCaseFor(population string) (EdgeCase, bool) {
	for _, ec := range d.EdgeCases {
		if ec.Population == population {
			return ec, true
		}
	}
	return EdgeCase{}, false
}

// SarsCov2EdgeCases returns the built-in edge cases carried for the
// sars-cov-2 dataset when no edge_cases.json is present on disk. XCF is
// XBB and FE.1 (XBB.1.18.1) with no unique substitutions separating it
// from XBB, so it needs min_subs relaxed to 0 to be detected at all.
func SarsCov2EdgeCases() []EdgeCase {
	args := DefaultArgs()
	args.MinSubs = 0
	return []EdgeCase{
		{Population: "XCF", Args: args},
	}
}
