// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dataset loads a rebar dataset directory (reference, populations,
// phylogeny, alias map, edge cases, annotations, diagnostic mutations) into
// the read-only, shared structures the recombination search runs against.
package dataset

import (
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/hts/fai"
	"github.com/pkg/errors"

	"github.com/kortschak/rebar/phylogeny"
	"github.com/kortschak/rebar/substitution"
)

// Name identifies a well-known dataset, or Custom for anything else.
type Name string

// Tag identifies a dataset release, or Custom for anything else.
type Tag string

// CustomName and CustomTag are used when no summary.json is present.
const (
	CustomName Name = "custom"
	CustomTag  Tag  = "custom"
)

// Summary mirrors summary.json: the dataset's declared identity plus
// free-form provenance fields.
type Summary struct {
	Name        Name              `json:"name"`
	Tag         Tag               `json:"tag"`
	Reference   string            `json:"reference"`
	Populations string            `json:"populations"`
	Misc        map[string]string `json:"misc"`
}

// Annotation is one row of annotations.tsv: a named genome feature.
type Annotation struct {
	Gene         string
	Abbreviation string
	Start        uint32
	End          uint32
}

// Dataset is the read-only, shared state built once from a dataset
// directory and then passed to every query worker.
type Dataset struct {
	Name Name
	Tag  Tag

	Reference *substitution.Sequence
	// ReferenceBases is the reference genome, one Base per 1-based
	// coordinate (ReferenceBases[0] is coord 1).
	ReferenceBases []substitution.Base

	// Populations maps a lineage name to its Sequence.
	Populations map[string]*substitution.Sequence
	// PopulationOrder is Populations in fasta load order, used wherever a
	// deterministic default candidate ordering matters.
	PopulationOrder []string

	// Mutations maps a substitution to the populations carrying it, in
	// PopulationOrder.
	Mutations map[substitution.Substitution][]string

	Phylogeny *phylogeny.Graph
	Alias     phylogeny.AliasMap

	EdgeCases []EdgeCase

	// Diagnostic maps a population to the diagnostic substitutions
	// attributed to it, after include_descendants expansion.
	Diagnostic map[string]substitution.Set

	Annotations []Annotation

	// referenceIndex is a random-access index over reference.fasta, used
	// by ReferenceWindow. Nil if the dataset was built
	// without one (e.g. in tests).
	referenceIndex *fai.File
	// annotationTree indexes Annotations by coordinate for AnnotationsAt.
	annotationTree *annotationIndex

	// referenceRecord is the raw aligned reference record, retained so
	// LoadQueries can align query input the same way populations.fasta
	// was aligned. Nil if the dataset was built without Load (e.g. in
	// tests), in which case LoadQueries is unavailable.
	referenceRecord *linear.Seq
}

// New returns an empty Dataset with all maps initialized, ready to be
// populated by Load.
func New() *Dataset {
	return &Dataset{
		Name:        CustomName,
		Tag:         CustomTag,
		Populations: make(map[string]*substitution.Sequence),
		Mutations:   make(map[substitution.Substitution][]string),
		Phylogeny:   phylogeny.New(),
		Alias:       make(phylogeny.AliasMap),
		Diagnostic:  make(map[string]substitution.Set),
	}
}

// Population returns the named population's sequence, or an error if it is
// not present in the dataset.
func (d *Dataset) Population(name string) (*substitution.Sequence, error) {
	seq, ok := d.Populations[name]
	if !ok {
		return nil, errors.Errorf("dataset: unknown population %q", name)
	}
	return seq, nil
}

// index records sequence's substitutions into the mutation index and
// appends its id to PopulationOrder.
func (d *Dataset) index(seq *substitution.Sequence) {
	d.Populations[seq.ID] = seq
	d.PopulationOrder = append(d.PopulationOrder, seq.ID)
	for _, sub := range seq.Substitutions {
		d.Mutations[sub] = append(d.Mutations[sub], seq.ID)
	}
}

// ExpandPopulations resolves a list of population names, where a trailing
// "*" means "this population and all of its phylogeny descendants", into a
// flat, deduplicated, order-preserving list of concrete population names.
func (d *Dataset) ExpandPopulations(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, raw := range names {
		if len(raw) == 0 {
			continue
		}
		if raw[len(raw)-1] != '*' {
			add(raw)
			continue
		}
		root := raw[:len(raw)-1]
		if !d.Phylogeny.Has(root) {
			return nil, errors.Errorf("dataset: wildcard population %q is not in the phylogeny", root)
		}
		descendants, err := d.Phylogeny.Descendants(root)
		if err != nil {
			return nil, err
		}
		for _, n := range descendants {
			add(n)
		}
	}
	return out, nil
}

// DiagnosticFor returns the diagnostic substitutions attributed to
// population, or nil if none are recorded.
func (d *Dataset) DiagnosticFor(population string) substitution.Set {
	return d.Diagnostic[population]
}

// setReferenceRecord is called by Load once the reference record has been
// read, so LoadQueries can later align query input against it.
func (d *Dataset) setReferenceRecord(rec *linear.Seq) {
	d.referenceRecord = rec
}
