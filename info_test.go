package heic

import "testing"

func TestImageInfoOutputBufferSize(t *testing.T) {
	info := ImageInfo{Width: 100, Height: 50}

	size, ok := info.OutputBufferSize(RGBA8)
	if !ok || size != 100*50*4 {
		t.Errorf("got (%d, %v), want (%d, true)", size, ok, 100*50*4)
	}

	size, ok = info.OutputBufferSize(RGB8)
	if !ok || size != 100*50*3 {
		t.Errorf("got (%d, %v), want (%d, true)", size, ok, 100*50*3)
	}
}

func TestImageInfoOutputBufferSizeZeroDimension(t *testing.T) {
	info := ImageInfo{Width: 0, Height: 50}
	size, ok := info.OutputBufferSize(RGBA8)
	if !ok || size != 0 {
		t.Errorf("got (%d, %v), want (0, true)", size, ok)
	}
}

func TestImageInfoOutputBufferSizeOverflow(t *testing.T) {
	// 3e9 x 3e9 pixels at 4 bytes/pixel overflows a uint64 byte count.
	info := ImageInfo{Width: 3_000_000_000, Height: 3_000_000_000}
	_, ok := info.OutputBufferSize(RGBA8)
	if ok {
		t.Errorf("expected overflow to be detected, got ok=true")
	}
}
