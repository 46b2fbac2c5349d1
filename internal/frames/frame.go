package frames

// Raster is a packed, row-major frame that can be written to an encoder.
type Raster interface {
	// Dims returns the frame's shape as (height, width, channels).
	Dims() (height, width, channels int)
	// AppendUint8 appends the samples as unsigned bytes.
	AppendUint8(dst []byte) []byte
}

// Frame holds interleaved float samples in (height, width, channels) order.
type Frame struct {
	Height   int
	Width    int
	Channels int
	Pix      []float64
}

// NewFrame allocates a zeroed frame.
func NewFrame(height, width, channels int) *Frame {
	return &Frame{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]float64, height*width*channels),
	}
}

func (f *Frame) Dims() (height, width, channels int) {
	return f.Height, f.Width, f.Channels
}

func (f *Frame) offset(y, x, c int) int {
	return (y*f.Width+x)*f.Channels + c
}

// At returns the sample at row y, column x, channel c.
func (f *Frame) At(y, x, c int) float64 {
	return f.Pix[f.offset(y, x, c)]
}

// Set stores v at row y, column x, channel c.
func (f *Frame) Set(y, x, c int, v float64) {
	f.Pix[f.offset(y, x, c)] = v
}

// AppendUint8 truncates each sample toward zero and saturates it to 0..255.
func (f *Frame) AppendUint8(dst []byte) []byte {
	for _, v := range f.Pix {
		dst = append(dst, toUint8(v))
	}
	return dst
}

func toUint8(v float64) uint8 {
	switch {
	case v != v || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Frame8 holds interleaved 8-bit samples in (height, width, channels) order.
type Frame8 struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// NewFrame8 allocates a zeroed 8-bit frame.
func NewFrame8(height, width, channels int) *Frame8 {
	return &Frame8{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

func (f *Frame8) Dims() (height, width, channels int) {
	return f.Height, f.Width, f.Channels
}

func (f *Frame8) AppendUint8(dst []byte) []byte {
	return append(dst, f.Pix...)
}
