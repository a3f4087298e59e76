// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/result"
	"github.com/kortschak/rebar/substitution"
)

func refBases(n int) []substitution.Base {
	bases := make([]substitution.Base, n)
	for i := range bases {
		bases[i] = substitution.A
	}
	return bases
}

func seqWith(id string, length uint32, subs ...substitution.Substitution) *substitution.Sequence {
	return &substitution.Sequence{ID: id, GenomeLength: length, Substitutions: substitution.Set(subs)}
}

func sub(coord uint32, alt substitution.Base) substitution.Substitution {
	return substitution.Substitution{Coord: coord, Reference: substitution.A, Alt: alt}
}

func TestBarcodeWritesNonEmptyPNG(t *testing.T) {
	ref := refBases(30)
	parents := []recombine.Parent{
		{Name: "BJ.1", Sequence: seqWith("BJ.1", 30, sub(10, substitution.C))},
		{Name: "BA.2.75.3", Sequence: seqWith("BA.2.75.3", 30, sub(20, substitution.G))},
	}
	samples := []result.Sample{
		{Name: "query1", Sequence: seqWith("query1", 30, sub(10, substitution.C), sub(20, substitution.G))},
	}
	regions := []recombine.Region{
		{Start: 1, End: 15, Origin: "BJ.1"},
		{Start: 16, End: 30, Origin: "BA.2.75.3"},
	}
	coords := []uint32{10, 20}

	path := filepath.Join(t.TempDir(), "barcode.png")
	require.NoError(t, Barcode(path, ref, parents, samples, regions, coords))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestBarcodeHandlesNoSamples(t *testing.T) {
	ref := refBases(10)
	parents := []recombine.Parent{
		{Name: "A", Sequence: seqWith("A", 10, sub(5, substitution.T))},
		{Name: "B", Sequence: seqWith("B", 10)},
	}
	path := filepath.Join(t.TempDir(), "barcode.png")
	require.NoError(t, Barcode(path, ref, parents, nil, nil, []uint32{5}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
