// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylogeny

import (
	"reflect"
	"testing"
)

// buildSample constructs a small graph with one recombinant, XY, whose
// parents are A and B, both of which descend from root directly.
func buildSample(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, n := range []struct {
		name    string
		parents []string
	}{
		{"A", []string{Root}},
		{"B", []string{Root}},
		{"A.1", []string{"A"}},
		{"B.1", []string{"B"}},
		{"XY", []string{"A.1", "B.1"}},
		{"XY.1", []string{"XY"}},
	} {
		if err := g.AddNode(n.name, n.parents); err != nil {
			t.Fatalf("AddNode(%q): %v", n.name, err)
		}
	}
	return g
}

func TestAddNodeRejectsDuplicateAndDangling(t *testing.T) {
	g := New()
	if err := g.AddNode("A", []string{Root}); err != nil {
		t.Fatalf("AddNode(A): %v", err)
	}
	if err := g.AddNode("A", []string{Root}); err == nil {
		t.Fatalf("AddNode(A) duplicate: want error, got nil")
	}
	if err := g.AddNode("B", []string{"Z"}); err == nil {
		t.Fatalf("AddNode(B) dangling parent: want error, got nil")
	}
}

func TestParentsPreservesDeclaredOrder(t *testing.T) {
	g := buildSample(t)
	got, err := g.Parents("XY")
	if err != nil {
		t.Fatalf("Parents(XY): %v", err)
	}
	want := []string{"A.1", "B.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parents(XY) = %v, want %v", got, want)
	}
}

func TestIsRecombinant(t *testing.T) {
	g := buildSample(t)
	for _, tc := range []struct {
		name string
		want bool
	}{
		{"A", false},
		{"A.1", false},
		{"XY", true},
		{"XY.1", false},
	} {
		got, err := g.IsRecombinant(tc.name)
		if err != nil {
			t.Fatalf("IsRecombinant(%q): %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("IsRecombinant(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDescendantsCoverEveryNodeOnce(t *testing.T) {
	g := buildSample(t)
	all, err := g.Descendants(Root)
	if err != nil {
		t.Fatalf("Descendants(root): %v", err)
	}
	want := map[string]bool{
		Root: true, "A": true, "B": true, "A.1": true, "B.1": true, "XY": true, "XY.1": true,
	}
	if len(all) != len(want) {
		t.Fatalf("Descendants(root) = %v, want %d unique entries", all, len(want))
	}
	seen := make(map[string]bool)
	for _, n := range all {
		if seen[n] {
			t.Fatalf("Descendants(root) repeats %q", n)
		}
		seen[n] = true
		if !want[n] {
			t.Fatalf("Descendants(root) has unexpected node %q", n)
		}
	}
}

func TestAncestorsMultiplePathsThroughRecombinant(t *testing.T) {
	g := buildSample(t)
	paths, err := g.Ancestors("XY.1")
	if err != nil {
		t.Fatalf("Ancestors(XY.1): %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("Ancestors(XY.1) = %v, want 2 paths (one per XY parent)", paths)
	}
	for _, p := range paths {
		if p[0] != "XY" {
			t.Fatalf("Ancestors(XY.1) path %v does not start at XY", p)
		}
		if p[len(p)-1] != Root {
			t.Fatalf("Ancestors(XY.1) path %v does not terminate at root", p)
		}
	}
}

func TestLowestCommonAncestor(t *testing.T) {
	g := buildSample(t)
	got, err := g.LowestCommonAncestor([]string{"A.1", "B.1"})
	if err != nil {
		t.Fatalf("LowestCommonAncestor: %v", err)
	}
	if got != Root {
		t.Fatalf("LowestCommonAncestor(A.1, B.1) = %q, want %q", got, Root)
	}

	got, err = g.LowestCommonAncestor([]string{"XY", "XY.1"})
	if err != nil {
		t.Fatalf("LowestCommonAncestor: %v", err)
	}
	if got != "XY" {
		t.Fatalf("LowestCommonAncestor(XY, XY.1) = %q, want XY", got)
	}
}

func TestRecombinantAncestor(t *testing.T) {
	g := buildSample(t)
	got, err := g.RecombinantAncestor("XY.1")
	if err != nil {
		t.Fatalf("RecombinantAncestor(XY.1): %v", err)
	}
	if got != "XY" {
		t.Fatalf("RecombinantAncestor(XY.1) = %q, want XY", got)
	}

	got, err = g.RecombinantAncestor("A.1")
	if err != nil {
		t.Fatalf("RecombinantAncestor(A.1): %v", err)
	}
	if got != "" {
		t.Fatalf("RecombinantAncestor(A.1) = %q, want \"\"", got)
	}
}

func TestRecombinantsAllIncludesDescendantsOfRecombinant(t *testing.T) {
	g := buildSample(t)
	got, err := g.RecombinantsAll()
	if err != nil {
		t.Fatalf("RecombinantsAll: %v", err)
	}
	want := map[string]bool{"XY": true, "XY.1": true}
	if len(got) != len(want) {
		t.Fatalf("RecombinantsAll() = %v, want %v", got, want)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("RecombinantsAll() has unexpected %q", n)
		}
	}
}

func TestRemoveDropsSubtreeAndParentage(t *testing.T) {
	g := buildSample(t)
	if err := g.Remove("XY"); err != nil {
		t.Fatalf("Remove(XY): %v", err)
	}
	if g.Has("XY") || g.Has("XY.1") {
		t.Fatalf("Remove(XY) left descendants behind")
	}
	if g.Has("A.1") == false || g.Has("B.1") == false {
		t.Fatalf("Remove(XY) removed unrelated nodes")
	}
	if err := g.Remove(Root); err == nil {
		t.Fatalf("Remove(root): want error, got nil")
	}
}

func TestInvariantIsRecombinantMatchesParentCount(t *testing.T) {
	g := buildSample(t)
	for _, name := range g.Order() {
		parents, err := g.Parents(name)
		if err != nil {
			t.Fatalf("Parents(%q): %v", name, err)
		}
		isRec, err := g.IsRecombinant(name)
		if err != nil {
			t.Fatalf("IsRecombinant(%q): %v", name, err)
		}
		if isRec != (len(parents) > 1) {
			t.Fatalf("invariant broken for %q: IsRecombinant=%v len(parents)=%d", name, isRec, len(parents))
		}
	}
}
