package ffmpeg

import "testing"

func TestAlignUp16(t *testing.T) {
	if got := AlignUp16(0); got != 0 {
		t.Fatalf("AlignUp16(0) = %d, want 0", got)
	}
	for x := 1; x <= 16; x++ {
		if got := AlignUp16(x); got != 16 {
			t.Fatalf("AlignUp16(%d) = %d, want 16", x, got)
		}
	}
	for x := 17; x <= 32; x++ {
		if got := AlignUp16(x); got != 32 {
			t.Fatalf("AlignUp16(%d) = %d, want 32", x, got)
		}
	}
	if got := AlignUp16(256); got != 256 {
		t.Fatalf("AlignUp16(256) = %d, want 256", got)
	}
	for x := 1; x <= 4096; x++ {
		want := ((x + 15) / 16) * 16
		if got := AlignUp16(x); got != want {
			t.Fatalf("AlignUp16(%d) = %d, want %d", x, got, want)
		}
	}
}
