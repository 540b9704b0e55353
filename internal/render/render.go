// Package render draws elevation-profile views of a scene as PNG
// images: terrain silhouette, poles, conductor curves, the clearance
// threshold band, and violation markers.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/danmaps/GridScaper/core"
	"github.com/danmaps/GridScaper/model"
)

const (
	defaultWidth    = 1024
	defaultHeight   = 480
	marginPx        = 40.0
	terrainSamples  = 256
	violationRadius = 5.0
)

// Options controls the output raster and the clearance band overlay.
type Options struct {
	Width     int
	Height    int
	Threshold float64
}

// Input is everything the profile view needs. Elevation may be nil, in
// which case the ground line is flat at zero.
type Input struct {
	Poles     []model.PoleRecord
	Spans     []core.SpanGroup
	Elevation core.ElevationFunc
	Reports   []core.ClearanceReport
}

// Profile renders the scene side-on: X maps to the horizontal axis, the
// elevation axis maps to vertical, and lateral Z is flattened out.
func Profile(in Input, opts Options) (image.Image, error) {
	if len(in.Poles) == 0 {
		return nil, fmt.Errorf("render profile: no poles")
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	height := opts.Height
	if height <= 0 {
		height = defaultHeight
	}
	elevation := in.Elevation
	if elevation == nil {
		elevation = core.FlatElevation
	}

	minX, maxX := in.Poles[0].X, in.Poles[0].X
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range in.Poles {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Elevation)
		maxY = math.Max(maxY, p.Elevation+p.Height)
	}
	for _, group := range in.Spans {
		for _, curve := range group.Curves {
			for _, pt := range curve {
				minX = math.Min(minX, pt.X)
				maxX = math.Max(maxX, pt.X)
				minY = math.Min(minY, pt.Y)
				maxY = math.Max(maxY, pt.Y)
			}
		}
	}
	if maxX-minX < 1 {
		minX -= 0.5
		maxX += 0.5
	}

	ground := make([]float64, terrainSamples+1)
	for i := range ground {
		x := minX + (maxX-minX)*float64(i)/float64(terrainSamples)
		ground[i] = elevation(x, 0)
		minY = math.Min(minY, ground[i])
		maxY = math.Max(maxY, ground[i])
	}
	if maxY-minY < 1 {
		minY -= 0.5
		maxY += 0.5
	}

	spanX := maxX - minX
	spanY := maxY - minY
	toPx := func(x, y float64) (float64, float64) {
		px := marginPx + (x-minX)/spanX*(float64(width)-2*marginPx)
		py := float64(height) - marginPx - (y-minY)/spanY*(float64(height)-2*marginPx)
		return px, py
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	// Terrain silhouette, filled down to the bottom edge.
	dc.SetColor(color.RGBA{196, 178, 140, 255})
	firstX, _ := toPx(minX, 0)
	lastX, _ := toPx(maxX, 0)
	dc.MoveTo(firstX, float64(height))
	for i, g := range ground {
		x := minX + (maxX-minX)*float64(i)/float64(terrainSamples)
		px, py := toPx(x, g)
		dc.LineTo(px, py)
	}
	dc.LineTo(lastX, float64(height))
	dc.ClosePath()
	dc.Fill()

	// Clearance threshold band above the ground line.
	if opts.Threshold > 0 {
		dc.SetColor(color.RGBA{255, 200, 120, 110})
		dc.MoveTo(firstX, float64(height))
		for i, g := range ground {
			x := minX + (maxX-minX)*float64(i)/float64(terrainSamples)
			px, py := toPx(x, g+opts.Threshold)
			if i == 0 {
				dc.MoveTo(px, py)
			} else {
				dc.LineTo(px, py)
			}
		}
		for i := terrainSamples; i >= 0; i-- {
			x := minX + (maxX-minX)*float64(i)/float64(terrainSamples)
			px, py := toPx(x, ground[i])
			dc.LineTo(px, py)
		}
		dc.ClosePath()
		dc.Fill()
	}

	// Poles.
	dc.SetColor(color.RGBA{60, 40, 20, 255})
	dc.SetLineWidth(3)
	for _, p := range in.Poles {
		bx, by := toPx(p.X, p.Elevation)
		tx, ty := toPx(p.X, p.Elevation+p.Height)
		dc.DrawLine(bx, by, tx, ty)
		dc.Stroke()
	}

	// Conductor curves.
	dc.SetLineWidth(1.5)
	for _, group := range in.Spans {
		statusColor := color.RGBA{30, 30, 30, 255}
		for _, report := range in.Reports {
			if report.SpanID == group.SpanID && report.Status == core.ClearanceViolation {
				statusColor = color.RGBA{200, 30, 30, 255}
			}
		}
		dc.SetColor(statusColor)
		for _, curve := range group.Curves {
			for i, pt := range curve {
				px, py := toPx(pt.X, pt.Y)
				if i == 0 {
					dc.MoveTo(px, py)
				} else {
					dc.LineTo(px, py)
				}
			}
			dc.Stroke()
		}
	}

	// Violation markers at the tightest point of each failing span.
	for _, report := range in.Reports {
		if report.Status != core.ClearanceViolation {
			continue
		}
		px, py := toPx(report.Point.X, report.Point.Y)
		dc.SetColor(color.RGBA{200, 30, 30, 255})
		dc.DrawCircle(px, py, violationRadius)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawCircle(px, py, violationRadius/2)
		dc.Fill()
	}

	return dc.Image(), nil
}

// EncodePNG renders the profile and writes it as PNG to w.
func EncodePNG(w io.Writer, in Input, opts Options) error {
	img, err := Profile(in, opts)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).EncodePNG(w)
}

// SavePNG renders the profile and writes it to fpath.
func SavePNG(fpath string, in Input, opts Options) error {
	img, err := Profile(in, opts)
	if err != nil {
		return err
	}
	return gg.NewContextForImage(img).SavePNG(fpath)
}
