// Package geometry holds the box math shared by detection, harvesting and
// annotation. Every conversion between screenshot pixels and viewport CSS
// pixels goes through ScreenshotToViewport / ViewportToScreenshot.
package geometry

import (
	"math"
	"sort"
)

// Box is an axis-aligned rectangle. Unless stated otherwise coordinates are
// screenshot pixels relative to the captured image.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Transform describes the page state at capture time.
type Transform struct {
	DPR     float64 `json:"devicePixelRatio"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

func (t Transform) dpr() float64 {
	if t.DPR <= 0 || math.IsNaN(t.DPR) {
		return 1
	}
	return t.DPR
}

func (b Box) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

func (b Box) Right() float64  { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }

func (b Box) Center() Point {
	return Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// Contains reports whether o lies fully inside b.
func (b Box) Contains(o Box) bool {
	return o.X >= b.X && o.Y >= b.Y && o.Right() <= b.Right() && o.Bottom() <= b.Bottom()
}

// OverlapsImage reports whether the box has any pixel inside a w×h image.
// Non-positive dimensions mean the image size is unknown and every box passes.
func (b Box) OverlapsImage(w, h float64) bool {
	if w <= 0 || h <= 0 {
		return true
	}
	return !(b.Right() <= 0 || b.Bottom() <= 0 || b.X >= w || b.Y >= h)
}

// Ints returns the box truncated to whole pixels.
func (b Box) Ints() [4]int {
	return [4]int{int(b.X), int(b.Y), int(b.W), int(b.H)}
}

// IoU is intersection over union with a small epsilon in the denominator.
func IoU(a, b Box) float64 {
	x1 := math.Max(a.X, b.X)
	y1 := math.Max(a.Y, b.Y)
	x2 := math.Min(a.Right(), b.Right())
	y2 := math.Min(a.Bottom(), b.Bottom())
	w := math.Max(0, x2-x1)
	h := math.Max(0, y2-y1)
	inter := w * h
	return inter / (a.Area() + b.Area() - inter + 1e-6)
}

// ScreenshotToViewport maps a screenshot-pixel box captured with crop origin
// (absolute screenshot pixels) to viewport CSS pixels. The returned point is
// the center of the viewport box.
func ScreenshotToViewport(b Box, t Transform, origin Point) (Box, Point) {
	dpr := t.dpr()
	vx := (b.X+origin.X)/dpr - t.ScrollX
	vy := (b.Y+origin.Y)/dpr - t.ScrollY
	vb := Box{X: vx, Y: vy, W: b.W / dpr, H: b.H / dpr}
	return vb, vb.Center()
}

// ViewportToScreenshot is the inverse of ScreenshotToViewport.
func ViewportToScreenshot(b Box, t Transform, origin Point) Box {
	dpr := t.dpr()
	return Box{
		X: (b.X+t.ScrollX)*dpr - origin.X,
		Y: (b.Y+t.ScrollY)*dpr - origin.Y,
		W: b.W * dpr,
		H: b.H * dpr,
	}
}

// Suppress runs greedy non-maximum suppression: boxes are visited in
// descending area order and a box is kept only while its IoU with every
// already kept box stays below threshold. It returns indices into boxes in
// the order they were kept.
func Suppress(boxes []Box, threshold float64) []int {
	order := make([]int, len(boxes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].Area() > boxes[order[j]].Area()
	})

	keep := make([]int, 0, len(boxes))
	for _, idx := range order {
		suppressed := false
		for _, k := range keep {
			if IoU(boxes[idx], boxes[k]) >= threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			keep = append(keep, idx)
		}
	}
	return keep
}

// ReadingOrder sorts indices top-to-bottom then left-to-right using a row
// tolerance in pixels.
func ReadingOrder(boxes []Box, idx []int, rowTolerance float64) {
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := boxes[idx[i]], boxes[idx[j]]
		if math.Abs(a.Y-b.Y) > rowTolerance {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}
