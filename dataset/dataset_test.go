// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortschak/rebar/phylogeny"
	"github.com/kortschak/rebar/substitution"
)

func seq(id string, subs ...substitution.Substitution) *substitution.Sequence {
	return &substitution.Sequence{ID: id, GenomeLength: 1000, Substitutions: substitution.Set(subs)}
}

func TestNewInitializesAllMaps(t *testing.T) {
	d := New()
	assert.Equal(t, CustomName, d.Name)
	assert.Equal(t, CustomTag, d.Tag)
	assert.NotNil(t, d.Populations)
	assert.NotNil(t, d.Mutations)
	assert.NotNil(t, d.Phylogeny)
	assert.NotNil(t, d.Alias)
	assert.NotNil(t, d.Diagnostic)
}

func TestPopulationReturnsErrorForUnknownName(t *testing.T) {
	d := New()
	d.index(seq("A"))
	got, err := d.Population("A")
	require.NoError(t, err)
	assert.Equal(t, "A", got.ID)

	_, err = d.Population("missing")
	assert.Error(t, err)
}

func TestIndexRecordsMutationsAndOrder(t *testing.T) {
	d := New()
	s1 := sub(10, substitution.C)
	s2 := sub(20, substitution.G)
	d.index(seq("A", s1, s2))
	d.index(seq("B", s1))

	assert.Equal(t, []string{"A", "B"}, d.PopulationOrder)
	assert.ElementsMatch(t, []string{"A", "B"}, d.Mutations[s1])
	assert.ElementsMatch(t, []string{"A"}, d.Mutations[s2])
}

func sub(coord uint32, alt substitution.Base) substitution.Substitution {
	return substitution.Substitution{Coord: coord, Reference: substitution.A, Alt: alt}
}

func TestExpandPopulationsPlainNames(t *testing.T) {
	d := New()
	out, err := d.ExpandPopulations([]string{"A", "B", "A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, out)
}

func TestExpandPopulationsWildcardIncludesDescendants(t *testing.T) {
	d := New()
	require.NoError(t, d.Phylogeny.AddNode("X", []string{phylogeny.Root}))
	require.NoError(t, d.Phylogeny.AddNode("X.1", []string{"X"}))
	require.NoError(t, d.Phylogeny.AddNode("X.2", []string{"X"}))
	require.NoError(t, d.Phylogeny.AddNode("Y", []string{phylogeny.Root}))

	out, err := d.ExpandPopulations([]string{"X*", "Y"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"X", "X.1", "X.2", "Y"}, out)
}

func TestExpandPopulationsWildcardOnUnknownRootErrors(t *testing.T) {
	d := New()
	_, err := d.ExpandPopulations([]string{"missing*"})
	assert.Error(t, err)
}

func TestDiagnosticForReturnsNilWhenAbsent(t *testing.T) {
	d := New()
	assert.Nil(t, d.DiagnosticFor("A"))
	d.Diagnostic["A"] = substitution.Set{sub(5, substitution.T)}
	assert.Equal(t, substitution.Set{sub(5, substitution.T)}, d.DiagnosticFor("A"))
}
