package recorder

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// easeInOut provides smooth acceleration and deceleration
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// tween returns the point at progress t (0..1) on the eased path from a to b
func tween(a, b image.Point, t float64) image.Point {
	p := easeInOut(t)
	return image.Pt(
		a.X+int(math.Round(p*float64(b.X-a.X))),
		a.Y+int(math.Round(p*float64(b.Y-a.Y))),
	)
}

// withCursor copies frame and draws the pointer at pos, plus a ripple when clicking
func withCursor(frame image.Image, pos image.Point, click bool) *image.RGBA {
	bounds := frame.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, frame, bounds.Min, draw.Src)

	if click {
		drawClickRipple(result, pos.X, pos.Y)
	}
	drawCursor(result, pos.X, pos.Y)
	return result
}

// drawCursor draws a simple arrow cursor with its tip at x, y
func drawCursor(img *image.RGBA, x, y int) {
	outline := color.RGBA{0, 0, 0, 255}
	fill := color.RGBA{255, 255, 255, 255}

	points := []image.Point{
		{0, 0},
		{0, 16},
		{4, 12},
		{7, 18},
		{10, 17},
		{7, 11},
		{12, 11},
	}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insideCursor(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, fill)
			}
		}
	}

	for i := range points {
		p1 := points[i]
		p2 := points[(i+1)%len(points)]
		drawLine(img, x+p1.X, y+p1.Y, x+p2.X, y+p2.Y, outline)
	}
}

func insideCursor(dx, dy int) bool {
	if dx < 0 || dy < 0 || dy > 16 {
		return false
	}
	// head
	if dy <= 11 {
		return dx <= dy*12/16
	}
	// shaft
	return dx <= 4
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawClickRipple draws a ring around the click point
func drawClickRipple(img *image.RGBA, x, y int) {
	ripple := color.RGBA{66, 133, 244, 255}
	const radius = 15

	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(radius*math.Cos(rad))
		py := y + int(radius*math.Sin(rad))
		setPixelSafe(img, px, py, ripple)
		setPixelSafe(img, px+1, py, ripple)
		setPixelSafe(img, px, py+1, ripple)
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
