// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/hts/fai"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/kortschak/rebar/phylogeny"
	"github.com/kortschak/rebar/substitution"
)

// Load reads a dataset directory into a Dataset, applying mask to every
// population sequence (the reference itself is indexed unmasked).
// reference.fasta and populations.fasta are mandatory; everything else is
// optional and, if absent, is left at its zero value. A missing summary,
// edge case file or phylogeny is logged as a warning; a missing
// diagnostic_mutations.tsv or annotations.tsv is not.
func Load(log *logrus.Logger, dir string, mask substitution.Mask) (*Dataset, error) {
	log.WithField("dataset_dir", dir).Info("loading dataset")

	d := New()

	referencePath := filepath.Join(dir, "reference.fasta")
	referenceRecord, err := readSingleFasta(referencePath)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: load reference.fasta")
	}
	reference, err := substitution.FromRecord(referenceRecord, referenceRecord, substitution.Mask{})
	if err != nil {
		return nil, errors.Wrap(err, "dataset: index reference.fasta")
	}
	d.Reference = reference
	d.ReferenceBases = make([]substitution.Base, referenceRecord.Len())
	for i := 0; i < referenceRecord.Len(); i++ {
		d.ReferenceBases[i] = substitution.BaseFrom(byte(referenceRecord.Seq[i]))
	}
	d.setReferenceRecord(referenceRecord)

	if idx, err := indexReference(referencePath); err != nil {
		log.WithError(err).Warn("could not build a random-access index of reference.fasta")
	} else {
		d.setReferenceIndex(idx)
	}

	populationsPath := filepath.Join(dir, "populations.fasta")
	if err := loadPopulations(d, populationsPath, referenceRecord, mask); err != nil {
		return nil, errors.Wrap(err, "dataset: load populations.fasta")
	}

	summaryPath := filepath.Join(dir, "summary.json")
	if fileExists(summaryPath) {
		summary, err := readSummary(summaryPath)
		if err != nil {
			return nil, errors.Wrap(err, "dataset: load summary.json")
		}
		d.Name = summary.Name
		d.Tag = summary.Tag
	} else {
		log.WithField("path", summaryPath).Warn("no summary was found")
	}

	edgeCasesPath := filepath.Join(dir, "edge_cases.json")
	if fileExists(edgeCasesPath) {
		data, err := os.ReadFile(edgeCasesPath)
		if err != nil {
			return nil, errors.Wrap(err, "dataset: load edge_cases.json")
		}
		cases, err := unmarshalEdgeCases(data)
		if err != nil {
			return nil, err
		}
		d.EdgeCases = cases
	} else {
		log.WithField("path", edgeCasesPath).Warn("no edge cases were found")
		if d.Name == "sars-cov-2" {
			d.EdgeCases = SarsCov2EdgeCases()
		}
	}

	aliasKeyPath := filepath.Join(dir, "alias_key.json")
	lineageNotesPath := filepath.Join(dir, "lineage_notes.txt")
	phylogenyPath := filepath.Join(dir, "phylogeny.json")
	switch {
	case fileExists(phylogenyPath):
		data, err := os.ReadFile(phylogenyPath)
		if err != nil {
			return nil, errors.Wrap(err, "dataset: load phylogeny.json")
		}
		graph, alias, err := unmarshalPhylogeny(data)
		if err != nil {
			return nil, err
		}
		d.Phylogeny = graph
		d.Alias = alias
	case fileExists(aliasKeyPath) && fileExists(lineageNotesPath):
		graph, alias, err := buildPhylogeny(aliasKeyPath, lineageNotesPath)
		if err != nil {
			return nil, err
		}
		d.Phylogeny = graph
		d.Alias = alias
	default:
		log.WithField("path", phylogenyPath).Warn("no phylogeny was found")
	}

	diagnosticPath := filepath.Join(dir, "diagnostic_mutations.tsv")
	if fileExists(diagnosticPath) {
		diag, err := loadDiagnosticMutations(diagnosticPath, d.Phylogeny)
		if err != nil {
			return nil, errors.Wrap(err, "dataset: load diagnostic_mutations.tsv")
		}
		d.Diagnostic = diag
	}

	annotationsPath := filepath.Join(dir, "annotations.tsv")
	if fileExists(annotationsPath) {
		annotations, err := loadAnnotations(annotationsPath)
		if err != nil {
			return nil, errors.Wrap(err, "dataset: load annotations.tsv")
		}
		d.setAnnotations(annotations)
	}

	return d, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// readSingleFasta reads the first (and only expected) record from path.
func readSingleFasta(path string) (*linear.Seq, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNAredundant))
	sc := seqio.NewScanner(r)
	if !sc.Next() {
		if err := sc.Error(); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("dataset: %s has no records", path)
	}
	rec := sc.Seq().(*linear.Seq)
	return rec, sc.Error()
}

// indexReference builds a random-access fai.Index over reference.fasta, so
// downstream annotation/window code can seek coordinate ranges without
// holding the whole sequence in memory twice.
func indexReference(path string) (*fai.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := fai.NewIndex(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return fai.NewFile(f, idx), nil
}

func loadPopulations(d *Dataset, path string, reference *linear.Seq, mask substitution.Mask) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNAredundant))
	sc := seqio.NewScanner(r)
	for sc.Next() {
		rec := sc.Seq().(*linear.Seq)
		seq, err := substitution.FromRecord(rec, reference, mask)
		if err != nil {
			return err
		}
		d.index(seq)
	}
	return sc.Error()
}

// LoadQueries reads a multi-record fasta of query sequences, aligning each
// against the same reference record and mask the dataset's own populations
// were loaded with. It requires d to have been built by Load.
func (d *Dataset) LoadQueries(path string, mask substitution.Mask) ([]*substitution.Sequence, error) {
	if d.referenceRecord == nil {
		return nil, errors.New("dataset: LoadQueries requires a dataset built by Load")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	r := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.DNAredundant))
	sc := seqio.NewScanner(r)
	var queries []*substitution.Sequence
	for sc.Next() {
		rec := sc.Seq().(*linear.Seq)
		seq, err := substitution.FromRecord(rec, d.referenceRecord, mask)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: align query %s", rec.Name())
		}
		queries = append(queries, seq)
	}
	if err := sc.Error(); err != nil {
		return nil, errors.Wrapf(err, "dataset: read %s", path)
	}
	return queries, nil
}

func readSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, errors.Wrap(err, "parse summary.json")
	}
	return s, nil
}

// phylogenyWire is the serialized form of phylogeny.json: insertion order
// plus each node's declared parents.
type phylogenyWire struct {
	Order   []string            `json:"order"`
	Parents map[string][]string `json:"parents"`
	Alias   phylogeny.AliasMap  `json:"alias,omitempty"`
}

func unmarshalPhylogeny(data []byte) (*phylogeny.Graph, phylogeny.AliasMap, error) {
	var wire phylogenyWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nil, errors.Wrap(err, "dataset: parse phylogeny.json")
	}
	g := phylogeny.New()
	for _, name := range wire.Order {
		if name == phylogeny.Root {
			continue
		}
		parents, ok := wire.Parents[name]
		if !ok {
			return nil, nil, errors.Errorf("dataset: phylogeny.json: %q has no parents entry", name)
		}
		if err := g.AddNode(name, parents); err != nil {
			return nil, nil, errors.Wrap(err, "dataset: rebuild phylogeny.json graph")
		}
	}
	return g, wire.Alias, nil
}

// buildPhylogeny constructs the phylogeny graph from alias_key.json plus
// lineage_notes.txt, the way the upstream sars-cov-2 dataset builder does:
// parents must appear before children in lineage_notes.txt, and lineages
// starting with "*" are withdrawn and skipped.
func buildPhylogeny(aliasKeyPath, lineageNotesPath string) (*phylogeny.Graph, phylogeny.AliasMap, error) {
	data, err := os.ReadFile(aliasKeyPath)
	if err != nil {
		return nil, nil, err
	}
	alias, err := phylogeny.UnmarshalAliasKey(data)
	if err != nil {
		return nil, nil, err
	}

	lineages, err := readLineageNotes(lineageNotesPath)
	if err != nil {
		return nil, nil, err
	}

	g := phylogeny.New()
	for _, lineage := range lineages {
		parents := alias.ImmediateParents(lineage)
		if err := g.AddNode(lineage, parents); err != nil {
			return nil, nil, errors.Wrapf(err, "dataset: building phylogeny from %s", lineageNotesPath)
		}
	}
	return g, alias, nil
}

// readLineageNotes returns the non-withdrawn lineage names from
// lineage_notes.txt, a TSV whose first column is "Lineage", in file order
// (parents are required to appear before children).
func readLineageNotes(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	col := -1
	for i, h := range header {
		if h == "Lineage" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.Errorf("dataset: %s has no Lineage column", path)
	}

	var lineages []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if col >= len(row) {
			continue
		}
		lineage := strings.TrimSpace(row[col])
		if lineage == "" || strings.HasPrefix(lineage, "*") {
			continue
		}
		lineages = append(lineages, lineage)
	}
	return lineages, nil
}

// loadDiagnosticMutations reads diagnostic_mutations.tsv (mutation,
// population, include_descendants) and, when include_descendants is set,
// attributes the mutation to every phylogeny descendant of population as
// well.
func loadDiagnosticMutations(path string, graph *phylogeny.Graph) (map[string]substitution.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	mutationCol := headerIndex(header, "mutation")
	populationCol := headerIndex(header, "population")
	includeCol := headerIndex(header, "include_descendants")
	if mutationCol < 0 || populationCol < 0 {
		return nil, errors.Errorf("dataset: %s missing mutation/population columns", path)
	}

	out := make(map[string]substitution.Set)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sub, err := parseSubstitution(row[mutationCol])
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: %s: bad mutation %q", path, row[mutationCol])
		}
		population := row[populationCol]
		includeDescendants := includeCol >= 0 && includeCol < len(row) && parseBool(row[includeCol])

		targets := []string{population}
		if includeDescendants && graph != nil && graph.Has(population) {
			if descendants, err := graph.Descendants(population); err == nil {
				targets = descendants
			}
		}
		for _, t := range targets {
			out[t] = append(out[t], sub)
		}
	}
	for pop := range out {
		out[pop].Sort()
	}
	return out, nil
}

func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// parseSubstitution parses a mutation token of the form <ref><coord><alt>,
// e.g. "C123T" or "A456-" for a deletion.
func parseSubstitution(token string) (substitution.Substitution, error) {
	token = strings.TrimSpace(token)
	if len(token) < 3 {
		return substitution.Substitution{}, errors.Errorf("token too short: %q", token)
	}
	ref := substitution.BaseFrom(token[0])
	alt := substitution.BaseFrom(token[len(token)-1])
	coordStr := token[1 : len(token)-1]
	coord, err := strconv.ParseUint(coordStr, 10, 32)
	if err != nil {
		return substitution.Substitution{}, errors.Wrapf(err, "bad coordinate in %q", token)
	}
	return substitution.Substitution{Coord: uint32(coord), Reference: ref, Alt: alt}, nil
}

// loadAnnotations reads annotations.tsv (gene, abbreviation, start, end).
func loadAnnotations(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, err
	}
	geneCol := headerIndex(header, "gene")
	abbrevCol := headerIndex(header, "abbreviation")
	startCol := headerIndex(header, "start")
	endCol := headerIndex(header, "end")
	if geneCol < 0 || startCol < 0 || endCol < 0 {
		return nil, errors.Errorf("dataset: %s missing gene/start/end columns", path)
	}

	var annotations []Annotation
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start, err := strconv.ParseUint(row[startCol], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: %s: bad start", path)
		}
		end, err := strconv.ParseUint(row[endCol], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "dataset: %s: bad end", path)
		}
		a := Annotation{
			Gene:  row[geneCol],
			Start: uint32(start),
			End:   uint32(end),
		}
		if abbrevCol >= 0 && abbrevCol < len(row) {
			a.Abbreviation = row[abbrevCol]
		}
		annotations = append(annotations, a)
	}
	return annotations, nil
}
