package ffmpeg

// AlignUp16 rounds x up to the next multiple of 16. Aligned values, including
// zero, are returned unchanged.
func AlignUp16(x int) int {
	return (x + 15) &^ 15
}
