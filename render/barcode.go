// Copyright ©2024 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render draws a barcode table (reference, parents, and sample
// sequences at a set of discriminating coordinates) to a PNG image, one
// tile per population per coordinate, coloured by parental origin.
package render

import (
	"image/color"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/kortschak/rebar/recombine"
	"github.com/kortschak/rebar/result"
	"github.com/kortschak/rebar/substitution"
)

// cell side length and gutter, in points. Mirrors the fixed grid increment
// the upstream plotter used for its tile size.
const (
	cellSize  = vg.Length(14)
	labelCols = vg.Length(90) // left-hand gutter reserved for row labels
	margin    = vg.Length(10)
)

// paletteDark/paletteLight assign one colour pair per parent index, cycling
// if there are more parents than colours (categorical d3 scheme, same one
// the original plotter used: darker fill for a mutated base, lighter fill
// for a base matching the reference).
var paletteDark = []color.RGBA{
	{31, 119, 180, 255},
	{255, 127, 14, 255},
	{44, 160, 44, 255},
	{214, 39, 39, 255},
	{148, 103, 189, 255},
	{140, 86, 75, 255},
	{227, 119, 194, 255},
	{188, 189, 34, 255},
	{23, 190, 207, 255},
}

var paletteLight = []color.RGBA{
	{174, 199, 232, 255},
	{255, 187, 120, 255},
	{152, 223, 138, 255},
	{255, 152, 150, 255},
	{197, 176, 213, 255},
	{196, 156, 148, 255},
	{247, 182, 210, 255},
	{219, 219, 141, 255},
	{158, 218, 229, 255},
}

var (
	colorWhite = color.RGBA{255, 255, 255, 255}
	colorGrey  = color.RGBA{225, 225, 225, 255}
)

// row is one labelled track of bases across the shared coordinate set.
type row struct {
	label   string
	bases   []substitution.Base
	palette int // index into paletteDark/paletteLight, -1 for reference/grey rows
}

// Barcode renders the reference, parent, and sample tracks at coords to a
// PNG at path. regions supplies the parental origin painted behind each
// sample track's coordinates that fall within a surviving region.
func Barcode(path string, referenceBases []substitution.Base, parents []recombine.Parent, samples []result.Sample, regions []recombine.Region, coords []uint32) error {
	rows := buildRows(referenceBases, parents, samples, regions, coords)

	width := labelCols + margin*2 + cellSize*vg.Length(len(coords))
	height := margin*2 + cellSize*vg.Length(len(rows))

	c := vgimg.New(width, height)
	fillRect(c, 0, 0, width, height, color.White)

	for i, r := range rows {
		y := height - margin - cellSize*vg.Length(i+1)
		drawLabelSwatch(c, r, margin, y)
		for j, base := range r.bases {
			x := labelCols + margin + cellSize*vg.Length(j)
			fillRect(c, x, y, cellSize, cellSize, cellColor(r, j, base, referenceBaseAt(referenceBases, coords[j])))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "render: create %s", path)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(f); err != nil {
		return errors.Wrapf(err, "render: encode %s", path)
	}
	return nil
}

func buildRows(referenceBases []substitution.Base, parents []recombine.Parent, samples []result.Sample, regions []recombine.Region, coords []uint32) []row {
	rows := make([]row, 0, 1+len(parents)+len(samples))

	ref := row{label: "Reference", palette: -1, bases: make([]substitution.Base, len(coords))}
	for i, c := range coords {
		ref.bases[i] = referenceBaseAt(referenceBases, c)
	}
	rows = append(rows, ref)

	parentIndex := make(map[string]int, len(parents))
	for i, p := range parents {
		parentIndex[p.Name] = i
		r := row{label: p.Name, palette: i, bases: make([]substitution.Base, len(coords))}
		for j, c := range coords {
			r.bases[j] = substitution.BaseAt(p.Sequence, c, referenceBaseAt(referenceBases, c))
		}
		rows = append(rows, r)
	}

	for _, s := range samples {
		r := row{label: s.Name, palette: -1, bases: make([]substitution.Base, len(coords))}
		for j, c := range coords {
			r.bases[j] = substitution.BaseAt(s.Sequence, c, referenceBaseAt(referenceBases, c))
			if origin := originAt(regions, c); origin != "" {
				if idx, ok := parentIndex[origin]; ok {
					r.palette = idx
				}
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// cellColor picks a fill colour the way the original plotter's
// get_base_rgba did: light palette when the row's base matches the
// reference, dark palette when it differs, grey when the row has no
// assigned parental colour (a sample outside any surviving region).
func cellColor(r row, _ int, base, ref substitution.Base) color.Color {
	if r.palette < 0 {
		if r.label == "Reference" {
			return colorWhite
		}
		return colorGrey
	}
	dark := paletteDark[r.palette%len(paletteDark)]
	light := paletteLight[r.palette%len(paletteLight)]
	if base == ref {
		return light
	}
	return dark
}

func referenceBaseAt(bases []substitution.Base, coord uint32) substitution.Base {
	i := int(coord) - 1
	if i < 0 || i >= len(bases) {
		return substitution.Ambiguous
	}
	return bases[i]
}

func originAt(regions []recombine.Region, coord uint32) string {
	for _, r := range regions {
		if coord >= r.Start && coord <= r.End {
			return r.Origin
		}
	}
	return ""
}

func fillRect(c vg.Canvas, x, y, w, h vg.Length, col color.Color) {
	var path vg.Path
	path.Move(vg.Point{X: x, Y: y})
	path.Line(vg.Point{X: x + w, Y: y})
	path.Line(vg.Point{X: x + w, Y: y + h})
	path.Line(vg.Point{X: x, Y: y + h})
	path.Close()
	c.SetColor(col)
	c.Fill(path)
}

// drawLabelSwatch paints a colour bar across the label gutter identifying
// which parent (if any) a row's origin colour is drawn from. Row names
// themselves are left to the companion linelist.tsv/barcodes.tsv tables;
// the raster is a quick visual index, not a replacement for the text
// tables that carry the actual strain and population identifiers.
func drawLabelSwatch(c vg.Canvas, r row, x, y vg.Length) {
	col := colorGrey
	if r.label == "Reference" {
		col = colorWhite
	} else if r.palette >= 0 {
		col = paletteDark[r.palette%len(paletteDark)]
	}
	fillRect(c, x, y, labelCols-margin, cellSize, col)
}
