// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package result materializes a batch of recombination search outcomes
// into the linelist and per-recombinant barcode tables written to an
// output directory.
package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/substitution"
)

// linelistHeader is the fixed column order of linelist.tsv.
var linelistHeader = []string{
	"strain", "validate", "validate_details", "population", "recombinant",
	"parents", "breakpoints", "breakpoint_genes", "breakpoint_reference",
	"edge_case", "unique_key", "regions",
	"private", "diagnostic", "genome_length", "dataset_name", "dataset_tag",
}

// Row is one linelist.tsv record.
type Row struct {
	Strain          string
	Validate        string // "pass", "fail", or "" if the query carried no expected-population marker
	ValidateDetails string

	Population  string // consensus population
	Recombinant string // RecombinantAncestor, "" if non-recombinant
	Parents     []string
	Breakpoints []recombine.Breakpoint
	// BreakpointGenes and BreakpointReference are parallel to
	// Breakpoints: the gene(s) (from annotations.tsv, via
	// dataset.AnnotationsAt) each breakpoint falls in, and the reference
	// bases it spans (via dataset.ReferenceWindow). Empty for a dataset
	// with no annotations.tsv or no random-access reference index.
	BreakpointGenes     []string
	BreakpointReference []string
	EdgeCase            bool
	UniqueKey           string
	Regions             []recombine.Region

	Private    substitution.Set
	Diagnostic substitution.Set

	GenomeLength uint32
	DatasetName  dataset.Name
	DatasetTag   dataset.Tag
}

// NewRow assembles a linelist Row from one query's search pipeline outputs.
// best or outcome may be nil when the search failed outright for this
// query (spec §7: per-query errors are recoverable and surface as empty
// recombinant/parents/breakpoints fields, never a missing row).
func NewRow(ds *dataset.Dataset, query *substitution.Sequence, best *recombine.SearchResult, outcome *recombine.Outcome, validation recombine.Validation, edgeCase bool) Row {
	row := Row{
		Strain:       query.ID,
		GenomeLength: query.GenomeLength,
		DatasetName:  ds.Name,
		DatasetTag:   ds.Tag,
	}

	if validation.Expected != "" {
		if validation.Pass {
			row.Validate = "pass"
		} else {
			row.Validate = "fail"
		}
		row.ValidateDetails = validation.Details
	}

	if best != nil {
		row.Population = best.ConsensusPopulation
		row.Private = best.Private
		row.Diagnostic = best.Diagnostic
	}

	if outcome != nil {
		row.Population = outcome.ConsensusPopulation
		row.Recombinant = outcome.RecombinantAncestor
		row.Parents = outcome.Parents
		row.Breakpoints = outcome.Breakpoints
		row.BreakpointGenes = breakpointGenes(ds, outcome.Breakpoints)
		row.BreakpointReference = breakpointReference(ds, outcome.Breakpoints)
		row.Regions = outcome.Regions
		row.EdgeCase = edgeCase
		if outcome.Hypothesis != recombine.NonRecombinant {
			row.UniqueKey = UniqueKey(outcome.RecombinantAncestor, outcome.Parents, outcome.Breakpoints)
		}
	}

	return row
}

// breakpointGenes returns, one entry per breakpoint, the "+"-joined
// distinct gene names annotations.tsv assigns to any coordinate the
// breakpoint spans, in the order the breakpoint's coordinates, scanned
// from Start to End, first reach them. An entry is "" if the
// dataset carries no annotation index or no gene overlaps the breakpoint.
func breakpointGenes(ds *dataset.Dataset, breakpoints []recombine.Breakpoint) []string {
	out := make([]string, len(breakpoints))
	for i, bp := range breakpoints {
		seen := make(map[string]bool)
		var genes []string
		for c := bp.Start; c <= bp.End; c++ {
			for _, a := range ds.AnnotationsAt(c) {
				if seen[a.Gene] {
					continue
				}
				seen[a.Gene] = true
				genes = append(genes, a.Gene)
			}
		}
		out[i] = strings.Join(genes, "+")
	}
	return out
}

// breakpointReference returns, one entry per breakpoint, the reference
// bases the breakpoint spans, read through the dataset's random-access
// fai index. An entry is "" if the dataset was built without one (e.g.
// test fixtures that skip indexReference).
func breakpointReference(ds *dataset.Dataset, breakpoints []recombine.Breakpoint) []string {
	out := make([]string, len(breakpoints))
	for i, bp := range breakpoints {
		bases, err := ds.ReferenceWindow(bp.Start, bp.End)
		if err != nil {
			continue
		}
		out[i] = string(bases)
	}
	return out
}

// UniqueKey builds the deterministic unique_key for a detected
// recombination: "<recombinant>_<parents joined by _>_<breakpoints joined
// by _>", matching the upstream tool's identifier scheme.
func UniqueKey(recombinant string, parents []string, breakpoints []recombine.Breakpoint) string {
	bps := make([]string, len(breakpoints))
	for i, b := range breakpoints {
		bps[i] = fmt.Sprintf("%d-%d", b.Start, b.End)
	}
	return strings.Join([]string{recombinant, strings.Join(parents, "_"), strings.Join(bps, "_")}, "_")
}

func (r Row) fields() []string {
	regions := make([]string, len(r.Regions))
	for i, reg := range r.Regions {
		regions[i] = fmt.Sprintf("%d-%d:%s", reg.Start, reg.End, reg.Origin)
	}
	breakpoints := make([]string, len(r.Breakpoints))
	for i, b := range r.Breakpoints {
		breakpoints[i] = fmt.Sprintf("%d-%d", b.Start, b.End)
	}
	return []string{
		r.Strain,
		r.Validate,
		r.ValidateDetails,
		r.Population,
		r.Recombinant,
		strings.Join(r.Parents, ","),
		strings.Join(breakpoints, ","),
		strings.Join(r.BreakpointGenes, ","),
		strings.Join(r.BreakpointReference, ","),
		strconv.FormatBool(r.EdgeCase),
		r.UniqueKey,
		strings.Join(regions, ","),
		joinSubs(r.Private),
		joinSubs(r.Diagnostic),
		strconv.FormatUint(uint64(r.GenomeLength), 10),
		string(r.DatasetName),
		string(r.DatasetTag),
	}
}

func joinSubs(set substitution.Set) string {
	tokens := make([]string, len(set))
	for i, s := range set {
		tokens[i] = s.String()
	}
	return strings.Join(tokens, ",")
}

// WriteLinelist writes rows to path as a tab-separated table with the
// spec-mandated column order, one row per input sequence in input order.
func WriteLinelist(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "result: create linelist.tsv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write(linelistHeader); err != nil {
		return errors.Wrap(err, "result: write linelist.tsv header")
	}
	for _, row := range rows {
		if err := w.Write(row.fields()); err != nil {
			return errors.Wrap(err, "result: write linelist.tsv row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "result: flush linelist.tsv")
}
