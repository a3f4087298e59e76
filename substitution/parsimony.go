// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package substitution

// Summary is the parsimony comparison of a query against a candidate
// sequence (population): what the candidate asserts that the query
// confirms (Support), what the candidate asserts that the query lacks
// (ConflictAlt), and what the query has that the candidate lacks
// (ConflictRef).
type Summary struct {
	Support     Set
	ConflictAlt Set
	ConflictRef Set
	Score       int
}

// Score computes the parsimony Summary between sequence (a population or
// candidate) and query, optionally restricted to the coordinates in
// coords (nil means unrestricted).
//
// query substitutions that land on a missing site or a deletion of
// sequence are excluded before comparison, per the spec: a population
// cannot conflict on a site it has no data for.
func Score(sequence *Sequence, query *Sequence, coords []uint32) Summary {
	querySubs := query.Substitutions.Filter(func(sub Substitution) bool {
		if sequence.Missing.Contains(sub.Coord) {
			return false
		}
		if del, ok := sequence.Deletions.At(sub.Coord); ok && del.Alt == Gap {
			return false
		}
		return true
	})
	seqSubs := sequence.Substitutions

	if coords != nil {
		querySubs = querySubs.Intersect(coords)
		seqSubs = seqSubs.Intersect(coords)
	}

	var summary Summary
	for _, sub := range seqSubs {
		if querySubs.Contains(sub) {
			summary.Support = append(summary.Support, sub)
		} else {
			summary.ConflictAlt = append(summary.ConflictAlt, sub)
		}
	}
	for _, sub := range querySubs {
		if !seqSubs.Contains(sub) {
			summary.ConflictRef = append(summary.ConflictRef, sub)
		}
	}

	summary.Support.Sort()
	summary.ConflictAlt.Sort()
	summary.ConflictRef.Sort()
	summary.Score = len(summary.Support) - len(summary.ConflictAlt) - len(summary.ConflictRef)
	return summary
}
