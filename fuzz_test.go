package heic

import (
	"os"
	"path/filepath"
	"testing"
)

// addSeedCorpus adds every file under testdata/ to the fuzz corpus, the
// same seeding approach the pack's webp decoder uses for its own
// FuzzDecode.
func addSeedCorpus(f *testing.F) {
	f.Helper()
	entries, err := os.ReadDir("testdata")
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		if err != nil {
			continue
		}
		f.Add(data)
	}
}

// FuzzDecode mirrors original_source/fuzz/fuzz_targets/fuzz_target_1.rs:
// the full container-parse, HEVC-decode, color-convert pipeline with
// default settings is the primary attack surface, and arbitrary bytes
// must never panic or hang it regardless of whether they resolve to a
// successful decode.
func FuzzDecode(f *testing.F) {
	addSeedCorpus(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = NewDecoderConfig().Decode(data, RGBA8)
	})
}

// FuzzProbe mirrors fuzz_probe.rs: the header-only probe path must never
// panic on arbitrary input, including truncated or non-HEIC data.
func FuzzProbe(f *testing.F) {
	addSeedCorpus(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = InfoFromBytes(data)
	})
}

// FuzzDecodeWithLimits mirrors fuzz_decode_limits.rs: decoding under a
// tight resource budget may succeed or fail, but must never exceed the
// declared limits or panic trying to enforce them.
func FuzzDecodeWithLimits(f *testing.F) {
	addSeedCorpus(f)
	limits := Limits{
		MaxWidth:       4096,
		MaxHeight:      4096,
		MaxPixels:      4_000_000,
		MaxMemoryBytes: 64 * 1024 * 1024,
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		out, err := NewDecodeRequest(data).
			WithOutputLayout(RGBA8).
			WithLimits(limits).
			Decode()
		if err != nil {
			return
		}
		if uint64(out.Width) > limits.MaxWidth || uint64(out.Height) > limits.MaxHeight {
			t.Fatalf("decode exceeded declared limits: got %dx%d", out.Width, out.Height)
		}
		if uint64(out.Width)*uint64(out.Height) > limits.MaxPixels {
			t.Fatalf("decode exceeded declared pixel limit: got %dx%d", out.Width, out.Height)
		}
	})
}
