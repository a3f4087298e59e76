// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"github.com/kortschak/rebar/substitution"
)

// Args holds the effective parameters for one run, mirroring the
// serialized form written to run_args.json.
type Args struct {
	DatasetDir string `json:"dataset_dir"`
	OutputDir  string `json:"output_dir"`

	Input string `json:"input,omitempty"`
	// Population, when set, names dataset population ids (with optional
	// trailing "*" for "and all descendants") to run in place of an
	// input alignment.
	Population []string `json:"population,omitempty"`

	Parents  []string `json:"parents,omitempty"`
	Knockout []string `json:"knockout,omitempty"`

	Mask substitution.Mask `json:"mask"`

	MaxIter        int  `json:"max_iter"`
	MinParents     int  `json:"min_parents"`
	MaxParents     int  `json:"max_parents"`
	MinConsecutive int  `json:"min_consecutive"`
	MinLength      int  `json:"min_length"`
	MinSubs        int  `json:"min_subs"`
	Naive          bool `json:"naive"`

	Threads int `json:"threads"`
}

// DefaultArgs returns the effective default Args, matching the original
// tool's run defaults.
func DefaultArgs() Args {
	return Args{
		Mask:           substitution.Mask{Left: 100, Right: 200},
		MaxIter:        3,
		MinParents:     2,
		MaxParents:     2,
		MinConsecutive: 3,
		MinLength:      500,
		MinSubs:        1,
		Threads:        1,
	}
}

// ApplyEdgeCase returns a copy of a with the subset of fields an edge case
// is allowed to override replaced by new's values: max_iter, max_parents,
// min_consecutive, min_length, min_subs, parents, naive. Everything else
// (dataset/output paths, input, knockout, threads) is left untouched.
func (a Args) ApplyEdgeCase(new Args) Args {
	out := a
	out.MaxIter = new.MaxIter
	out.MaxParents = new.MaxParents
	out.MinConsecutive = new.MinConsecutive
	out.MinLength = new.MinLength
	out.MinSubs = new.MinSubs
	out.Parents = append([]string(nil), new.Parents...)
	out.Naive = new.Naive
	return out
}
