package recorder

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"sort"

	"github.com/nfnt/resize"
)

// encodeGIF scales every frame to width (keeping the aspect ratio of the
// first frame) and writes a looping GIF sharing one palette
func encodeGIF(w io.Writer, frames []frame, width uint) error {
	bounds := frames[0].img.Bounds()
	if bounds.Empty() {
		return errors.New("recorder: first frame is empty")
	}
	aspectRatio := float64(bounds.Dy()) / float64(bounds.Dx())
	height := uint(float64(width) * aspectRatio)
	if height == 0 {
		height = 1
	}

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	palette := generatePalette(frames[0].img)
	for i, f := range frames {
		resized := resize.Resize(width, height, f.img, resize.Lanczos3)

		paletted := image.NewPaletted(resized.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = f.delay
	}

	return gif.EncodeAll(w, g)
}

// generatePalette builds a 256-color palette from the most frequent colors
// of a sampled image, with the cursor colors always present
func generatePalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			counts[color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)]++
		}
	}

	type colorCount struct {
		c     color.RGBA
		count int
	}
	colors := make([]colorCount, 0, len(counts))
	for c, n := range counts {
		colors = append(colors, colorCount{c, n})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].count != colors[j].count {
			return colors[i].count > colors[j].count
		}
		a, b := colors[i].c, colors[j].c
		return uint32(a.R)<<16|uint32(a.G)<<8|uint32(a.B) < uint32(b.R)<<16|uint32(b.G)<<8|uint32(b.B)
	})

	palette := color.Palette{
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 255, 255, 255},
		color.RGBA{66, 133, 244, 255},
	}
	seen := map[color.RGBA]bool{}
	for _, c := range palette {
		seen[c.(color.RGBA)] = true
	}
	for _, cc := range colors {
		if len(palette) == 256 {
			break
		}
		if !seen[cc.c] {
			seen[cc.c] = true
			palette = append(palette, cc.c)
		}
	}

	// pad with grayscale
	for g := 0; len(palette) < 256; g++ {
		gray := uint8(g)
		c := color.RGBA{gray, gray, gray, 255}
		if !seen[c] {
			seen[c] = true
			palette = append(palette, c)
		}
	}
	return palette
}
