// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylogeny

import (
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

// dotNode wraps a lineage name so gonum's dot encoder labels nodes by
// name instead of by the internal int64 id.
type dotNode struct {
	id   int64
	name string
}

func (n dotNode) ID() int64     { return n.id }
func (n dotNode) DOTID() string { return n.name }

// ExportDOT renders the phylogeny as Graphviz dot source, nodes labelled
// by lineage name, suitable for visual debugging of a dataset's graph.
func (p *Graph) ExportDOT() ([]byte, error) {
	g := simple.NewDirectedGraph()
	nodes := make(map[string]dotNode, len(p.order))
	for i, name := range p.order {
		n := dotNode{id: int64(i), name: name}
		nodes[name] = n
		g.AddNode(n)
	}
	for _, name := range p.order {
		children, err := p.Children(name)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			g.SetEdge(g.NewEdge(nodes[name], nodes[child]))
		}
	}
	return dot.Marshal(g, "phylogeny", "", "  ")
}
