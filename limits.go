/*
DESCRIPTION
  limits.go defines the public resource limits a decode request can
  carry, per spec.md section 5. It mirrors codec/hevc.Limits's field set
  field for field (same names, order and types) so the two convert
  directly with a plain Go type conversion, without per-field
  translation: the public/internal split exists only so this package's
  API doesn't expose codec/hevc as a type directly, not because the two
  shapes differ.
*/

package heic

import "github.com/ausocean/heic/codec/hevc"

// Limits bounds the resources a decode may consume. The dimension and
// pixel-count limits are checked before any large allocation;
// MaxMemoryBytes is checked only by DecodeRequest.Decode, after decoding
// and before color conversion. A zero value in any field means "no limit".
type Limits struct {
	MaxWidth       uint64
	MaxHeight      uint64
	MaxPixels      uint64
	MaxMemoryBytes uint64
}

func (l Limits) toHevc() hevc.Limits {
	return hevc.Limits(l)
}

// checkLimitDimensions validates width/height/pixel-count against
// limits. codec/hevc.Limits's equivalent check is unexported, so this
// duplicates that small check rather than exposing it; container/heif's
// grid.go takes the same approach for its own chroma-subsampling table.
func checkLimitDimensions(limits hevc.Limits, width, height uint32) error {
	if limits.MaxWidth != 0 && uint64(width) > limits.MaxWidth {
		return newErr(LimitExceeded, "image width exceeds limit")
	}
	if limits.MaxHeight != 0 && uint64(height) > limits.MaxHeight {
		return newErr(LimitExceeded, "image height exceeds limit")
	}
	if limits.MaxPixels != 0 && uint64(width)*uint64(height) > limits.MaxPixels {
		return newErr(LimitExceeded, "pixel count exceeds limit")
	}
	return nil
}

func checkLimitMemory(limits hevc.Limits, estimated uint64) error {
	if limits.MaxMemoryBytes != 0 && estimated > limits.MaxMemoryBytes {
		return newErr(LimitExceeded, "estimated memory exceeds limit")
	}
	return nil
}
