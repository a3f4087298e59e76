// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"io"

	"github.com/biogo/hts/fai"
	"github.com/biogo/store/interval"
	"github.com/pkg/errors"
)

// annotationInterval adapts an Annotation to interval.IntInterface so it
// can be indexed in an interval.IntTree keyed by coordinate.
type annotationInterval struct {
	Annotation
	id uintptr
}

func (a annotationInterval) ID() uintptr { return a.id }

func (a annotationInterval) Range() interval.IntRange {
	return interval.IntRange{Start: int(a.Start), End: int(a.End) + 1}
}

func (a annotationInterval) Overlap(b interval.IntRange) bool {
	return int(a.Start) < b.End && int(a.End)+1 > b.Start
}

// annotationIndex is a coordinate interval tree over a dataset's
// annotations.tsv rows.
type annotationIndex struct {
	tree *interval.IntTree
}

func newAnnotationIndex(annotations []Annotation) *annotationIndex {
	tree := &interval.IntTree{}
	for i, a := range annotations {
		tree.Insert(annotationInterval{a, uintptr(i) + 1}, true)
	}
	tree.AdjustRanges()
	return &annotationIndex{tree: tree}
}

// setAnnotations stores annotations on the dataset and builds its
// coordinate index.
func (d *Dataset) setAnnotations(annotations []Annotation) {
	d.Annotations = annotations
	d.annotationTree = newAnnotationIndex(annotations)
}

// AnnotationsAt returns every annotation whose [start, end] span covers
// coord, ordered by start coordinate (annotations with equal starts in
// annotations.tsv order).
func (d *Dataset) AnnotationsAt(coord uint32) []Annotation {
	if d.annotationTree == nil {
		return nil
	}
	var out []Annotation
	q := interval.IntRange{Start: int(coord), End: int(coord) + 1}
	d.annotationTree.tree.DoMatching(func(iv interval.IntInterface) bool {
		out = append(out, iv.(annotationInterval).Annotation)
		return false
	}, q)
	return out
}

// setReferenceIndex stores a random-access index over reference.fasta.
func (d *Dataset) setReferenceIndex(idx *fai.File) {
	d.referenceIndex = idx
}

// ReferenceWindow returns the reference bases spanning the 1-based,
// inclusive coordinate range [start, end].
func (d *Dataset) ReferenceWindow(start, end uint32) ([]byte, error) {
	if d.referenceIndex == nil {
		return nil, errNoReferenceIndex
	}
	name := d.Reference.ID
	r, err := d.referenceIndex.SeqRange(name, int(start-1), int(end))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

var errNoReferenceIndex = errors.New("dataset: no random-access reference index was built for this dataset")
