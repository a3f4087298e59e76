// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kortschak/rebar/substitution"
)

func TestDefaultArgsMatchesUpstreamDefaults(t *testing.T) {
	a := DefaultArgs()
	assert.Equal(t, substitution.Mask{Left: 100, Right: 200}, a.Mask)
	assert.Equal(t, 3, a.MaxIter)
	assert.Equal(t, 2, a.MinParents)
	assert.Equal(t, 2, a.MaxParents)
	assert.Equal(t, 3, a.MinConsecutive)
	assert.Equal(t, 500, a.MinLength)
	assert.Equal(t, 1, a.MinSubs)
	assert.False(t, a.Naive)
	assert.Equal(t, 1, a.Threads)
}

func TestApplyEdgeCaseOverridesOnlySearchFields(t *testing.T) {
	base := DefaultArgs()
	base.DatasetDir = "/data/sars-cov-2"
	base.OutputDir = "/out"
	base.Input = "query.fasta"
	base.Threads = 8

	override := Args{
		MaxIter:        1,
		MaxParents:     2,
		MinConsecutive: 0,
		MinLength:      0,
		MinSubs:        0,
		Parents:        []string{"XBB", "FE.1"},
		Naive:          true,
	}

	out := base.ApplyEdgeCase(override)

	assert.Equal(t, 1, out.MaxIter)
	assert.Equal(t, 2, out.MaxParents)
	assert.Equal(t, 0, out.MinConsecutive)
	assert.Equal(t, 0, out.MinLength)
	assert.Equal(t, 0, out.MinSubs)
	assert.Equal(t, []string{"XBB", "FE.1"}, out.Parents)
	assert.True(t, out.Naive)

	assert.Equal(t, "/data/sars-cov-2", out.DatasetDir)
	assert.Equal(t, "/out", out.OutputDir)
	assert.Equal(t, "query.fasta", out.Input)
	assert.Equal(t, 8, out.Threads)
	assert.Equal(t, base.Mask, out.Mask)
	assert.Equal(t, base.MinParents, out.MinParents)
}
