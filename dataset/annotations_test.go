// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotationsAtReturnsOverlappingGenesInOrder(t *testing.T) {
	d := New()
	d.setAnnotations([]Annotation{
		{Gene: "ORF1a", Abbreviation: "orf1a", Start: 1, End: 500},
		{Gene: "S", Abbreviation: "s", Start: 400, End: 900},
		{Gene: "N", Abbreviation: "n", Start: 950, End: 1100},
	})

	got := d.AnnotationsAt(450)
	assert.Len(t, got, 2)
	names := []string{got[0].Gene, got[1].Gene}
	assert.ElementsMatch(t, []string{"ORF1a", "S"}, names)

	assert.Empty(t, d.AnnotationsAt(920))
	assert.Len(t, d.AnnotationsAt(1000), 1)
}

func TestAnnotationsAtWithoutIndexReturnsNil(t *testing.T) {
	d := New()
	assert.Nil(t, d.AnnotationsAt(10))
}

func TestReferenceWindowWithoutIndexErrors(t *testing.T) {
	d := New()
	_, err := d.ReferenceWindow(1, 10)
	assert.ErrorIs(t, err, errNoReferenceIndex)
}
