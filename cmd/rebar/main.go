// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rebar detects and characterizes recombinant SARS-CoV-2-style genomes
// against a reference dataset of named populations and their phylogeny.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/render"
	"github.com/kortschak/rebar/result"
	"github.com/kortschak/rebar/runner"
	"github.com/kortschak/rebar/substitution"
)

var (
	datasetDir = flag.String("dataset-dir", "", "rebar dataset directory (required)")
	outputDir  = flag.String("output-dir", "", "output directory for linelist.tsv, barcodes/, plots/ (required)")
	input      = flag.String("input", "", "input fasta of query sequences")
	population = flag.String("population", "", "comma-separated dataset population names (with optional trailing * for descendants) to run instead of --input")

	parents  = flag.String("parents", "", "comma-separated candidate parent populations to restrict the search to")
	knockout = flag.String("knockout", "", "comma-separated populations (with optional trailing * for descendants) to exclude as parents")

	maxIter        = flag.Int("max-iter", 0, "maximum recursive search iterations (0: use default)")
	minParents     = flag.Int("min-parents", 0, "minimum parents for a recombination (0: use default)")
	maxParents     = flag.Int("max-parents", 0, "maximum parents for a recombination (0: use default)")
	minConsecutive = flag.Int("min-consecutive", 0, "minimum consecutive substitutions per region (0: use default)")
	minLength      = flag.Int("min-length", 0, "minimum region length in bases (0: use default)")
	minSubs        = flag.Int("min-subs", 0, "minimum substitutions per region (0: use default)")
	maskLeft       = flag.Int("mask-left", -1, "bases masked from the genome start (-1: use default)")
	maskRight      = flag.Int("mask-right", -1, "bases masked from the genome end (-1: use default)")
	naive          = flag.Bool("naive", false, "disable edge case overrides")

	threads = flag.Int("threads", 1, "number of queries searched concurrently")
	plots   = flag.Bool("plots", false, "render a barcode PNG per detected recombination under output-dir/plots")

	verbose = flag.Bool("verbose", false, "enable debug logging")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *datasetDir == "" || *outputDir == "" {
		fmt.Fprintln(os.Stderr, "invalid argument: --dataset-dir and --output-dir are required")
		flag.Usage()
		os.Exit(1)
	}
	if *input == "" && *population == "" {
		fmt.Fprintln(os.Stderr, "invalid argument: one of --input or --population is required")
		flag.Usage()
		os.Exit(1)
	}

	args := dataset.DefaultArgs()
	args.DatasetDir = *datasetDir
	args.OutputDir = *outputDir
	args.Input = *input
	args.Naive = *naive
	args.Threads = *threads
	args.Parents = splitCSV(*parents)
	args.Knockout = splitCSV(*knockout)
	args.Population = splitCSV(*population)
	if *maxIter > 0 {
		args.MaxIter = *maxIter
	}
	if *minParents > 0 {
		args.MinParents = *minParents
	}
	if *maxParents > 0 {
		args.MaxParents = *maxParents
	}
	if *minConsecutive > 0 {
		args.MinConsecutive = *minConsecutive
	}
	if *minLength > 0 {
		args.MinLength = *minLength
	}
	if *minSubs > 0 {
		args.MinSubs = *minSubs
	}
	if *maskLeft >= 0 {
		args.Mask.Left = *maskLeft
	}
	if *maskRight >= 0 {
		args.Mask.Right = *maskRight
	}

	if err := run(log, args); err != nil {
		log.WithError(err).Fatal("rebar run failed")
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func run(log *logrus.Logger, args dataset.Args) error {
	ds, err := dataset.Load(log, args.DatasetDir, args.Mask)
	if err != nil {
		return err
	}

	queries, err := loadQueries(ds, args)
	if err != nil {
		return err
	}
	log.WithField("count", len(queries)).Info("queries loaded")

	if err := os.MkdirAll(args.OutputDir, 0o755); err != nil {
		return err
	}
	if err := writeRunArgs(args); err != nil {
		return err
	}

	pool := runner.Pool{Max: args.Threads}
	results := pool.Run(log, ds, queries, args)

	rows := make([]result.Row, len(results))
	for i, r := range results {
		rows[i] = result.NewRow(ds, r.Query, r.Best, r.Outcome, r.Validation, r.EdgeCase)
		if r.Err != nil {
			log.WithField("strain", r.Query.ID).WithError(r.Err).Warn("query search failed, row left incomplete")
		}
	}

	linelistPath := filepath.Join(args.OutputDir, "linelist.tsv")
	if err := result.WriteLinelist(linelistPath, rows); err != nil {
		return err
	}
	log.WithField("path", linelistPath).Info("wrote linelist")

	return writeRecombinants(log, ds, results, args)
}

// loadQueries resolves either an input fasta of query sequences or a list
// of dataset populations to run against themselves (args.Population), per
// spec.md §6's "population" input mode.
func loadQueries(ds *dataset.Dataset, args dataset.Args) ([]*substitution.Sequence, error) {
	if args.Input != "" {
		return ds.LoadQueries(args.Input, args.Mask)
	}
	names, err := ds.ExpandPopulations(args.Population)
	if err != nil {
		return nil, err
	}
	queries := make([]*substitution.Sequence, 0, len(names))
	for _, name := range names {
		seq, err := ds.Population(name)
		if err != nil {
			return nil, err
		}
		queries = append(queries, seq)
	}
	return queries, nil
}

// writeRecombinants writes one barcodes/<unique_key>.tsv (and, if
// requested, one plots/<unique_key>.png) per detected recombination.
func writeRecombinants(log *logrus.Logger, ds *dataset.Dataset, results []runner.Result, args dataset.Args) error {
	grouped := make(map[string][]runner.Result)
	var order []string
	for _, r := range results {
		if r.Outcome == nil || !r.Outcome.Detected {
			continue
		}
		key := result.UniqueKey(r.Outcome.RecombinantAncestor, r.Outcome.Parents, r.Outcome.Breakpoints)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], r)
	}

	for _, key := range order {
		group := grouped[key]
		parents, err := parentsFor(ds, group[0].Outcome.Parents)
		if err != nil {
			log.WithField("unique_key", key).WithError(err).Warn("skipping barcode table: could not resolve parents")
			continue
		}
		samples := make([]result.Sample, len(group))
		for i, r := range group {
			samples[i] = result.Sample{Name: r.Query.ID, Sequence: r.Query}
		}

		if err := result.WriteBarcode(args.OutputDir, key, ds, parents, group[0].Outcome.Regions, samples); err != nil {
			return err
		}

		if *plots {
			coords := recombine.DiscriminatingCoords(ds.ReferenceBases, parents)
			plotDir := filepath.Join(args.OutputDir, "plots")
			if err := os.MkdirAll(plotDir, 0o755); err != nil {
				return err
			}
			plotPath := filepath.Join(plotDir, key+".png")
			if err := render.Barcode(plotPath, ds.ReferenceBases, parents, samples, group[0].Outcome.Regions, coords); err != nil {
				log.WithField("unique_key", key).WithError(err).Warn("failed to render barcode plot")
			}
		}
	}
	return nil
}

func parentsFor(ds *dataset.Dataset, names []string) ([]recombine.Parent, error) {
	parents := make([]recombine.Parent, len(names))
	for i, name := range names {
		seq, err := ds.Population(name)
		if err != nil {
			return nil, err
		}
		parents[i] = recombine.Parent{Name: name, Sequence: seq}
	}
	return parents, nil
}

func writeRunArgs(args dataset.Args) error {
	data, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(args.OutputDir, "run_args.json"), data, 0o644)
}
