/*
 * coverage.go, part of gobasis
 *
 * Copyright 2026 The gobasis Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package chemplot draws charts of the contents of a basis set or pseudopotential library.
package chemplot

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Library is what Coverage needs from a storage. Both kinds of
// basis.Storage implement it.
type Library interface {
	Families() []string
	ElementsPerFamily(family string) ([]string, error)
}

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("chemplot: empty library")

// CoverageValues returns the family names of lib, sorted, and the number of
// elements each of them covers.
func CoverageValues(lib Library) ([]string, plotter.Values, error) {
	names := lib.Families()
	vals := make(plotter.Values, len(names))
	for i, n := range names {
		e, err := lib.ElementsPerFamily(n)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = float64(len(e))
	}
	return names, vals, nil
}

func basicCoveragePlot(title string, names []string) *plot.Plot {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.Y.Label.Text = "Elements"
	p.Y.Min = 0
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = -1.2 //so the rotated labels hang below the axis
	p.X.Tick.Label.YAlign = -0.5
	p.Add(plotter.NewGrid())
	return p
}

// Coverage draws a bar chart with the number of elements covered by each family
// in lib, and saves it in PNG format to plotname, to which the ".png" extension is added.
func Coverage(lib Library, title, plotname string) error {
	names, vals, err := CoverageValues(lib)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return ErrEmpty
	}
	p := basicCoveragePlot(title, names)
	w := vg.Points(20)
	for key, val := range vals {
		b, err := plotter.NewBarChart(plotter.Values{val}, w)
		if err != nil {
			return err
		}
		b.XMin = float64(key)
		r, g, bl := colors(key, len(vals))
		b.Color = color.RGBA{R: r, G: g, B: bl, A: 255}
		b.LineStyle.Width = vg.Length(0)
		p.Add(b)
	}
	width := vg.Length(len(names))*w*1.5 + 3*vg.Inch
	filename := fmt.Sprintf("%s.png", plotname)
	return p.Save(width, 5*vg.Inch, filename)
}

//takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	var r, g, b float64
	conversion := 255.0 * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default: //case 5
		r, g, b = v, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

//colors spreads steps colors over the hue circle, skipping the yellows.
func colors(key, steps int) (r, g, b uint8) {
	norm := 260.0 / float64(steps)
	hp := float64(key)*norm + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return iHVS2RGB(h, 1.0, 1.0)
}
