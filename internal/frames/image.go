package frames

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// RGBA converts a 3- or 4-channel frame to an image; other layouts render
// the first channel as gray. Samples are truncated like AppendUint8.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := f.offset(y, x, 0)
			var px color.RGBA
			switch f.Channels {
			case 3:
				px = color.RGBA{R: toUint8(f.Pix[i]), G: toUint8(f.Pix[i+1]), B: toUint8(f.Pix[i+2]), A: 0xff}
			case 4:
				px = color.RGBA{R: toUint8(f.Pix[i]), G: toUint8(f.Pix[i+1]), B: toUint8(f.Pix[i+2]), A: toUint8(f.Pix[i+3])}
			default:
				g := toUint8(f.Pix[i])
				px = color.RGBA{R: g, G: g, B: g, A: 0xff}
			}
			img.SetRGBA(x, y, px)
		}
	}
	return img
}

// Frame8FromImage packs img as 3-channel RGB, discarding alpha.
func Frame8FromImage(img image.Image) *Frame8 {
	f, _ := PackImage(img, "rgb24")
	return f
}

// channelOrder maps packed formats to the RGBA component order of their
// bytes; gray is handled separately.
var channelOrder = map[string][]int{
	"rgb24": {0, 1, 2},
	"bgr24": {2, 1, 0},
	"rgba":  {0, 1, 2, 3},
	"bgra":  {2, 1, 0, 3},
	"argb":  {3, 0, 1, 2},
	"abgr":  {3, 2, 1, 0},
}

// PackImage lays img out in the byte order of a packed pixel format, ready
// for a Writer configured with the same format.
func PackImage(img image.Image, pixFmt string) (*Frame8, error) {
	pixFmt = strings.ToLower(strings.TrimSpace(pixFmt))
	bounds := img.Bounds()

	if pixFmt == "gray" {
		f := NewFrame8(bounds.Dy(), bounds.Dx(), 1)
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				f.Pix[i] = color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
				i++
			}
		}
		return f, nil
	}

	order, ok := channelOrder[pixFmt]
	if !ok {
		return nil, fmt.Errorf("pack image: unsupported pixel format %q", pixFmt)
	}
	f := NewFrame8(bounds.Dy(), bounds.Dx(), len(order))
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			components := [4]uint8{px.R, px.G, px.B, px.A}
			for _, c := range order {
				f.Pix[i] = components[c]
				i++
			}
		}
	}
	return f, nil
}
