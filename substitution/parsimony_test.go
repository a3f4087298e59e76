// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package substitution

import "testing"

func sub(coord uint32, ref, alt Base) Substitution {
	return Substitution{Coord: coord, Reference: ref, Alt: alt}
}

func TestScore(t *testing.T) {
	pop := &Sequence{
		Substitutions: Set{sub(1, A, C), sub(2, A, C), sub(3, A, C)},
	}
	query := &Sequence{
		Substitutions: Set{sub(1, A, C), sub(4, A, T)},
	}

	got := Score(pop, query, nil)
	if len(got.Support) != 1 || got.Support[0] != sub(1, A, C) {
		t.Fatalf("support = %v, want [%v]", got.Support, sub(1, A, C))
	}
	if len(got.ConflictAlt) != 2 {
		t.Fatalf("conflict_alt = %v, want 2 entries", got.ConflictAlt)
	}
	if len(got.ConflictRef) != 1 || got.ConflictRef[0] != sub(4, A, T) {
		t.Fatalf("conflict_ref = %v, want [%v]", got.ConflictRef, sub(4, A, T))
	}
	wantScore := len(got.Support) - len(got.ConflictAlt) - len(got.ConflictRef)
	if got.Score != wantScore {
		t.Fatalf("score = %d, want %d", got.Score, wantScore)
	}

	// support/conflict partitions must be disjoint.
	for _, s := range got.Support {
		if got.ConflictAlt.Contains(s) {
			t.Fatalf("support and conflict_alt overlap on %v", s)
		}
		if got.ConflictRef.Contains(s) {
			t.Fatalf("support and conflict_ref overlap on %v", s)
		}
	}
}

func TestScoreExcludesMissingAndDeletions(t *testing.T) {
	pop := &Sequence{
		Missing:   CoordSet{5},
		Deletions: Set{sub(6, A, Gap)},
	}
	query := &Sequence{
		Substitutions: Set{sub(5, A, T), sub(6, A, Gap), sub(7, A, T)},
	}

	got := Score(pop, query, nil)
	if len(got.ConflictRef) != 1 || got.ConflictRef[0].Coord != 7 {
		t.Fatalf("conflict_ref = %v, want only coord 7", got.ConflictRef)
	}
}

func TestScoreCoordFilter(t *testing.T) {
	pop := &Sequence{Substitutions: Set{sub(1, A, C), sub(10, A, G)}}
	query := &Sequence{Substitutions: Set{sub(1, A, C), sub(10, A, T)}}

	got := Score(pop, query, []uint32{1})
	if len(got.Support) != 1 || len(got.ConflictAlt) != 0 || len(got.ConflictRef) != 0 {
		t.Fatalf("filtered score = %+v, want only coord 1 considered", got)
	}
}

func TestScoreOrderIndependence(t *testing.T) {
	pop := &Sequence{Substitutions: Set{sub(3, A, C), sub(1, A, C), sub(2, A, C)}}
	pop.Substitutions.Sort()
	query := &Sequence{Substitutions: Set{sub(2, A, C), sub(3, A, C), sub(1, A, C)}}
	query.Substitutions.Sort()

	got := Score(pop, query, nil)
	if got.Score != 3 {
		t.Fatalf("score = %d, want 3", got.Score)
	}
}
