// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package result

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/kortschak/rebar/dataset"
	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/substitution"
)

// Sample names one query carried into a barcode table, alongside the
// sequence itself.
type Sample struct {
	Name     string
	Sequence *substitution.Sequence
}

// WriteBarcode writes dir/barcodes/<uniqueKey>.tsv: one row per
// discriminating coordinate among parents, columns coord, origin,
// Reference, one column per parent, and one column per sample.
func WriteBarcode(dir, uniqueKey string, ds *dataset.Dataset, parents []recombine.Parent, regions []recombine.Region, samples []Sample) error {
	if err := os.MkdirAll(filepath.Join(dir, "barcodes"), 0o755); err != nil {
		return errors.Wrap(err, "result: create barcodes directory")
	}
	path := filepath.Join(dir, "barcodes", uniqueKey+".tsv")

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "result: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	header := make([]string, 0, 3+len(parents)+len(samples))
	header = append(header, "coord", "origin", "Reference")
	for _, p := range parents {
		header = append(header, p.Name)
	}
	for _, s := range samples {
		header = append(header, s.Name)
	}
	if err := w.Write(header); err != nil {
		return errors.Wrapf(err, "result: write %s header", path)
	}

	coords := recombine.DiscriminatingCoords(ds.ReferenceBases, parents)
	for _, c := range coords {
		ref := referenceBaseAt(ds.ReferenceBases, c)
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatUint(uint64(c), 10), originAt(regions, c), string(ref))
		for _, p := range parents {
			row = append(row, string(substitution.BaseAt(p.Sequence, c, ref)))
		}
		for _, s := range samples {
			row = append(row, string(substitution.BaseAt(s.Sequence, c, ref)))
		}
		if err := w.Write(row); err != nil {
			return errors.Wrapf(err, "result: write %s row", path)
		}
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "result: flush %s", path)
}

func referenceBaseAt(bases []substitution.Base, coord uint32) substitution.Base {
	i := int(coord) - 1
	if i < 0 || i >= len(bases) {
		return substitution.Ambiguous
	}
	return bases[i]
}

// originAt returns the origin of the surviving region covering coord, or
// "" if coord falls inside a breakpoint interval or was filtered out.
func originAt(regions []recombine.Region, coord uint32) string {
	for _, r := range regions {
		if coord >= r.Start && coord <= r.End {
			return r.Origin
		}
	}
	return ""
}
