package vision

import (
	"image"
	"math"
)

// plane is a single-channel float image.
type plane struct {
	w, h int
	px   []float64
}

func newPlane(img *image.NRGBA) plane {
	b := img.Bounds()
	p := plane{w: b.Dx(), h: b.Dy(), px: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < p.w; x++ {
			p.px[y*p.w+x] = float64(row[x*4])
		}
	}
	return p
}

func (p plane) at(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= p.w {
		x = p.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= p.h {
		y = p.h - 1
	}
	return p.px[y*p.w+x]
}

// mask is a binary image.
type mask struct {
	w, h int
	on   []bool
}

func newMask(w, h int) mask {
	return mask{w: w, h: h, on: make([]bool, w*h)}
}

func (m mask) get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.on[y*m.w+x]
}

// canny is a Sobel/L1-gradient edge detector with non-maximum suppression
// and hysteresis thresholding.
func canny(p plane, low, high float64) mask {
	n := p.w * p.h
	mag := make([]float64, n)
	dir := make([]uint8, n)

	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			gx := -p.at(x-1, y-1) - 2*p.at(x-1, y) - p.at(x-1, y+1) +
				p.at(x+1, y-1) + 2*p.at(x+1, y) + p.at(x+1, y+1)
			gy := -p.at(x-1, y-1) - 2*p.at(x, y-1) - p.at(x+1, y-1) +
				p.at(x-1, y+1) + 2*p.at(x, y+1) + p.at(x+1, y+1)
			i := y*p.w + x
			mag[i] = math.Abs(gx) + math.Abs(gy)
			dir[i] = quantize(gx, gy)
		}
	}

	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= p.w || y >= p.h {
			return 0
		}
		return mag[y*p.w+x]
	}

	// 0 none, 1 weak, 2 strong
	state := make([]uint8, n)
	var stack []int
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			i := y*p.w + x
			m := mag[i]
			if m <= low {
				continue
			}
			var a, b float64
			switch dir[i] {
			case 0:
				a, b = magAt(x-1, y), magAt(x+1, y)
			case 1:
				a, b = magAt(x-1, y-1), magAt(x+1, y+1)
			case 2:
				a, b = magAt(x, y-1), magAt(x, y+1)
			default:
				a, b = magAt(x-1, y+1), magAt(x+1, y-1)
			}
			if m < a || m < b {
				continue
			}
			if m > high {
				state[i] = 2
				stack = append(stack, i)
			} else {
				state[i] = 1
			}
		}
	}

	out := newMask(p.w, p.h)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out.on[i] {
			continue
		}
		out.on[i] = true
		x, y := i%p.w, i/p.w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= p.w || ny >= p.h {
					continue
				}
				j := ny*p.w + nx
				if state[j] > 0 && !out.on[j] {
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// quantize maps a gradient direction to one of four sectors:
// 0 horizontal, 1 45°, 2 vertical, 3 135° (image y grows downward).
func quantize(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return 0
	case angle < 67.5:
		return 1
	case angle < 112.5:
		return 2
	default:
		return 3
	}
}

// closeMask is a morphological closing with a kw×kh rectangle: iterations
// dilations followed by the same number of erosions.
func closeMask(m mask, kw, kh, iterations int) mask {
	if iterations <= 0 {
		return m
	}
	for i := 0; i < iterations; i++ {
		m = morph(m, kw, kh, true)
	}
	for i := 0; i < iterations; i++ {
		m = morph(m, kw, kh, false)
	}
	return m
}

// morph applies a separable rectangle dilation (dilate=true) or erosion.
// Pixels outside the image never influence the result.
func morph(m mask, kw, kh int, dilate bool) mask {
	rx, ry := kw/2, kh/2
	tmp := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			tmp.on[y*m.w+x] = reduce(dilate, func(k int) (bool, bool) {
				nx := x + k - rx
				if nx < 0 || nx >= m.w {
					return false, false
				}
				return m.on[y*m.w+nx], true
			}, kw)
		}
	}
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			out.on[y*m.w+x] = reduce(dilate, func(k int) (bool, bool) {
				ny := y + k - ry
				if ny < 0 || ny >= m.h {
					return false, false
				}
				return tmp.on[ny*m.w+x], true
			}, kh)
		}
	}
	return out
}

// reduce is OR over the window for dilation and AND for erosion.
func reduce(dilate bool, sample func(k int) (v bool, ok bool), size int) bool {
	for k := 0; k < size; k++ {
		v, ok := sample(k)
		if !ok {
			continue
		}
		if dilate && v {
			return true
		}
		if !dilate && !v {
			return false
		}
	}
	return !dilate
}

// components returns bounding rectangles of 8-connected foreground regions.
func components(m mask) []image.Rectangle {
	seen := make([]bool, len(m.on))
	var rects []image.Rectangle
	var stack []int

	for start, on := range m.on {
		if !on || seen[start] {
			continue
		}
		seen[start] = true
		stack = append(stack[:0], start)
		r := image.Rect(start%m.w, start/m.w, start%m.w+1, start/m.w+1)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%m.w, i/m.w
			if x < r.Min.X {
				r.Min.X = x
			}
			if y < r.Min.Y {
				r.Min.Y = y
			}
			if x+1 > r.Max.X {
				r.Max.X = x + 1
			}
			if y+1 > r.Max.Y {
				r.Max.Y = y + 1
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if !m.get(x+dx, y+dy) {
						continue
					}
					j := (y+dy)*m.w + x + dx
					if !seen[j] {
						seen[j] = true
						stack = append(stack, j)
					}
				}
			}
		}
		rects = append(rects, r)
	}
	return rects
}
