// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phylogeny implements the lineage DAG: a directed graph of named
// populations with recombination edges (nodes with more than one parent),
// and the ancestor/descendant/LCA queries needed by the recombination
// search, plus the alias-name decompression scheme used to build the
// graph from upstream lineage-notes data.
package phylogeny

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Root is the synthetic root node every non-root lineage ultimately
// descends from.
const Root = "root"

// Graph is a directed graph over lineage names, with a stable insertion
// order used to break ties in ancestor/LCA queries.
type Graph struct {
	g       *simple.DirectedGraph
	id      map[string]int64
	name    map[int64]string
	order   []string
	parents map[string][]string
	nextID  int64
}

// New returns an empty Graph containing only the root node.
func New() *Graph {
	g := &Graph{
		g:       simple.NewDirectedGraph(),
		id:      make(map[string]int64),
		name:    make(map[int64]string),
		parents: make(map[string][]string),
	}
	g.addNode(Root)
	return g
}

func (p *Graph) addNode(name string) int64 {
	id := p.nextID
	p.nextID++
	p.g.AddNode(simple.Node(id))
	p.id[name] = id
	p.name[id] = name
	p.order = append(p.order, name)
	return id
}

// AddNode inserts a new lineage with the given parents. Every parent must
// already be present (including, for top-level lineages, Root). Returns an
// error if name already exists, parents is empty, or a parent is missing.
func (p *Graph) AddNode(name string, parents []string) error {
	if _, ok := p.id[name]; ok {
		return errors.Errorf("phylogeny: duplicate population id %q", name)
	}
	if len(parents) == 0 {
		return errors.Errorf("phylogeny: %q has no parents (did you mean to use %q?)", name, Root)
	}
	parentIDs := make([]int64, len(parents))
	for i, parent := range parents {
		id, ok := p.id[parent]
		if !ok {
			return errors.Errorf("phylogeny: dangling parent %q for %q: not yet inserted", parent, name)
		}
		parentIDs[i] = id
	}

	id := p.addNode(name)
	for _, parentID := range parentIDs {
		p.g.SetEdge(p.g.NewEdge(simple.Node(parentID), simple.Node(id)))
	}
	p.parents[name] = append([]string(nil), parents...)
	return nil
}

func (p *Graph) nodeID(name string) (int64, error) {
	id, ok := p.id[name]
	if !ok {
		return 0, errors.Errorf("phylogeny: unknown population %q", name)
	}
	return id, nil
}

// Has reports whether name is present in the graph.
func (p *Graph) Has(name string) bool {
	_, ok := p.id[name]
	return ok
}

// Order returns all lineage names (including root) in insertion order.
func (p *Graph) Order() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Parents returns the direct in-neighbors of name, in the order they were
// passed to AddNode. Root has no parents.
func (p *Graph) Parents(name string) ([]string, error) {
	if !p.Has(name) {
		return nil, errors.Errorf("phylogeny: unknown population %q", name)
	}
	return append([]string(nil), p.parents[name]...), nil
}

// Children returns the direct out-neighbors of name, in insertion order.
func (p *Graph) Children(name string) ([]string, error) {
	id, err := p.nodeID(name)
	if err != nil {
		return nil, err
	}
	return p.neighborNames(p.g.From(simple.Node(id).ID())), nil
}

// neighborNames materializes a graph.Nodes iterator into names ordered by
// the graph's stable insertion order, not iteration order (map-backed
// gonum iterators do not guarantee a stable order).
func (p *Graph) neighborNames(it graph.Nodes) []string {
	set := make(map[int64]bool)
	for it.Next() {
		set[it.Node().ID()] = true
	}
	var out []string
	for _, name := range p.order {
		if set[p.id[name]] {
			out = append(out, name)
		}
	}
	return out
}

// IsRecombinant reports whether name has more than one parent.
func (p *Graph) IsRecombinant(name string) (bool, error) {
	parents, err := p.Parents(name)
	if err != nil {
		return false, err
	}
	return len(parents) > 1, nil
}

// Descendants returns all nodes reachable from name (including name
// itself), each exactly once, in depth-first pre-order.
func (p *Graph) Descendants(name string) ([]string, error) {
	id, err := p.nodeID(name)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := make(map[int64]bool)
	walk := &traverse.DepthFirst{
		Visit: func(n graph.Node) {
			if !seen[n.ID()] {
				seen[n.ID()] = true
				out = append(out, p.name[n.ID()])
			}
		},
	}
	walk.Walk(p.g, simple.Node(id), func(graph.Node) bool { return false })
	return out, nil
}

// Ancestors returns every path from name up to Root. Because of
// recombination a node may have multiple ancestor paths; each returned
// path starts at the immediate parent and ends at Root, ordered by
// parent-insertion order at each branch.
func (p *Graph) Ancestors(name string) ([][]string, error) {
	if !p.Has(name) {
		return nil, errors.Errorf("phylogeny: unknown population %q", name)
	}
	if name == Root {
		return nil, nil
	}
	parents, err := p.Parents(name)
	if err != nil {
		return nil, err
	}
	var paths [][]string
	for _, parent := range parents {
		if parent == Root {
			paths = append(paths, []string{Root})
			continue
		}
		subPaths, err := p.Ancestors(parent)
		if err != nil {
			return nil, err
		}
		for _, sub := range subPaths {
			path := append([]string{parent}, sub...)
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// LowestCommonAncestor computes, for the given multiset of populations,
// the deepest ancestor shared by every one of them, where each name counts
// as its own ancestor. Depth is measured as the minimum distance from any
// input name to the ancestor along any ancestor path (0 for a name
// itself), and the shared ancestor with the smallest distance wins. Ties
// break by insertion order.
func (p *Graph) LowestCommonAncestor(names []string) (string, error) {
	if len(names) == 0 {
		return "", errors.New("phylogeny: LowestCommonAncestor requires at least one name")
	}

	depth := make(map[string]int)
	seenBy := make(map[string]map[string]bool)

	for _, name := range names {
		paths, err := p.Ancestors(name)
		if err != nil {
			return "", err
		}
		if len(paths) == 0 {
			// name is root itself: its only ancestor is itself.
			paths = [][]string{nil}
		}
		for _, path := range paths {
			// name is its own ancestor at distance 0.
			for d, ancestor := range append([]string{name}, path...) {
				if prev, ok := depth[ancestor]; !ok || d < prev {
					depth[ancestor] = d
				}
				if seenBy[ancestor] == nil {
					seenBy[ancestor] = make(map[string]bool)
				}
				seenBy[ancestor][name] = true
			}
		}
	}

	best := Root
	bestDepth := -1
	// scan in insertion order so ties break deterministically.
	for _, ancestor := range p.order {
		by, ok := seenBy[ancestor]
		if !ok || len(by) != len(uniqueStrings(names)) {
			continue
		}
		d := depth[ancestor]
		if bestDepth < 0 || d < bestDepth {
			bestDepth = d
			best = ancestor
		}
	}
	return best, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// RecombinantAncestor returns the nearest strict ancestor of name (on any
// path) that is itself a recombinant, or "" if none exists.
func (p *Graph) RecombinantAncestor(name string) (string, error) {
	paths, err := p.Ancestors(name)
	if err != nil {
		return "", err
	}
	best := ""
	bestDist := -1
	for _, path := range paths {
		for d, ancestor := range path {
			if ancestor == Root {
				continue
			}
			isRec, err := p.IsRecombinant(ancestor)
			if err != nil {
				return "", err
			}
			if isRec && (bestDist == -1 || d < bestDist) {
				bestDist = d
				best = ancestor
			}
		}
	}
	return best, nil
}

// RecombinantsAll returns every node that is itself a recombinant or has
// a recombinant ancestor, in insertion order.
func (p *Graph) RecombinantsAll() ([]string, error) {
	var out []string
	for _, name := range p.order {
		if name == Root {
			continue
		}
		isRec, err := p.IsRecombinant(name)
		if err != nil {
			return nil, err
		}
		if isRec {
			out = append(out, name)
			continue
		}
		ancestor, err := p.RecombinantAncestor(name)
		if err != nil {
			return nil, err
		}
		if ancestor != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// Remove deletes name, all of its descendants, and their incident edges.
// Root can never be removed.
func (p *Graph) Remove(name string) error {
	if name == Root {
		return errors.New("phylogeny: cannot remove root")
	}
	descendants, err := p.Descendants(name)
	if err != nil {
		return err
	}
	for _, d := range descendants {
		id := p.id[d]
		p.g.RemoveNode(id)
		delete(p.id, d)
		delete(p.name, id)
		delete(p.parents, d)
	}
	filtered := p.order[:0:0]
	removed := make(map[string]bool, len(descendants))
	for _, d := range descendants {
		removed[d] = true
	}
	for _, n := range p.order {
		if !removed[n] {
			filtered = append(filtered, n)
		}
	}
	p.order = filtered
	return nil
}

// String implements fmt.Stringer for debugging.
func (p *Graph) String() string {
	return fmt.Sprintf("phylogeny.Graph{%d nodes}", len(p.order))
}
