package core

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type SamplerOptions struct {
	CanvasSize int     // square raster edge in pixels
	FontSize   float64 // points at 72 DPI, i.e. pixels
	Font       []byte  // TTF/OTF bytes; nil uses Go Bold
	Stride     int     // sample every Stride-th pixel in both axes
	Threshold  uint8   // luminance strictly above this is lit; 0 means 128
	Scale      float32 // world units per raster pixel

	// Rand overrides the shuffle source. Nil uses math/rand.
	Rand *rand.Rand
}

func DefaultSamplerOptions() SamplerOptions {
	return SamplerOptions{
		CanvasSize: 1024,
		FontSize:   280,
		Stride:     5,
		Threshold:  128,
		Scale:      0.1,
	}
}

func (o SamplerOptions) withDefaults() SamplerOptions {
	d := DefaultSamplerOptions()
	if o.CanvasSize <= 0 {
		o.CanvasSize = d.CanvasSize
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.Stride <= 0 {
		o.Stride = d.Stride
	}
	if o.Threshold == 0 {
		o.Threshold = d.Threshold
	}
	if o.Scale == 0 {
		o.Scale = d.Scale
	}
	return o
}

// SampleText rasterizes text centered on an offscreen canvas and returns the
// shuffled world-space positions of its lit pixels.
func SampleText(text string, opts SamplerOptions) ([]mgl32.Vec3, error) {
	opts = opts.withDefaults()
	if text == "" {
		return []mgl32.Vec3{}, nil
	}

	img, err := RasterizeText(text, opts)
	if err != nil {
		return nil, err
	}
	return SampleImage(img, opts), nil
}

// RasterizeText draws white text on a black square canvas.
func RasterizeText(text string, opts SamplerOptions) (*image.Gray, error) {
	opts = opts.withDefaults()

	fontBytes := opts.Font
	if fontBytes == nil {
		fontBytes = gobold.TTF
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	defer face.Close()

	size := opts.CanvasSize
	img := image.NewGray(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)

	metrics := face.Metrics()
	advance := font.MeasureString(face, text)
	x := (fixed.I(size) - advance) / 2
	// Center the ascent..descent band vertically around the canvas middle.
	y := (fixed.I(size) + metrics.Ascent - metrics.Descent) / 2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)

	return img, nil
}

// SampleImage scans img on a fixed stride and maps lit pixels to world space:
// x grows right, y grows up, z is 0, origin at the image center.
func SampleImage(img image.Image, opts SamplerOptions) []mgl32.Vec3 {
	opts = opts.withDefaults()
	b := img.Bounds()
	cx := float32(b.Min.X+b.Max.X) / 2
	cy := float32(b.Min.Y+b.Max.Y) / 2

	points := make([]mgl32.Vec3, 0, 1024)
	for py := b.Min.Y; py < b.Max.Y; py += opts.Stride {
		for px := b.Min.X; px < b.Max.X; px += opts.Stride {
			lum := color.GrayModel.Convert(img.At(px, py)).(color.Gray).Y
			if lum <= opts.Threshold {
				continue
			}
			points = append(points, mgl32.Vec3{
				(float32(px) - cx) * opts.Scale,
				-(float32(py) - cy) * opts.Scale,
				0,
			})
		}
	}

	shuffle := rand.Shuffle
	if opts.Rand != nil {
		shuffle = opts.Rand.Shuffle
	}
	shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})
	return points
}
