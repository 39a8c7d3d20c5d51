package heic

import (
	"testing"

	"github.com/ausocean/heic/codec/hevc"
)

func TestLimitsToHevcConvertsFieldForField(t *testing.T) {
	l := Limits{MaxWidth: 1, MaxHeight: 2, MaxPixels: 3, MaxMemoryBytes: 4}
	h := l.toHevc()
	want := hevc.Limits{MaxWidth: 1, MaxHeight: 2, MaxPixels: 3, MaxMemoryBytes: 4}
	if h != want {
		t.Errorf("got %+v, want %+v", h, want)
	}
}

func TestCheckLimitDimensions(t *testing.T) {
	limits := hevc.Limits{MaxWidth: 100, MaxHeight: 100, MaxPixels: 5000}

	if err := checkLimitDimensions(limits, 50, 50); err != nil {
		t.Errorf("expected no error within limits, got %v", err)
	}
	if err := checkLimitDimensions(limits, 200, 50); err == nil {
		t.Errorf("expected an error for width exceeding limit")
	}
	if err := checkLimitDimensions(limits, 50, 200); err == nil {
		t.Errorf("expected an error for height exceeding limit")
	}
	if err := checkLimitDimensions(limits, 90, 90); err == nil {
		t.Errorf("expected an error for pixel count exceeding limit")
	}
}

func TestCheckLimitDimensionsZeroMeansUnlimited(t *testing.T) {
	if err := checkLimitDimensions(hevc.Limits{}, 1<<20, 1<<20); err != nil {
		t.Errorf("zero-valued limits should never reject, got %v", err)
	}
}

func TestCheckLimitMemory(t *testing.T) {
	limits := hevc.Limits{MaxMemoryBytes: 1000}
	if err := checkLimitMemory(limits, 500); err != nil {
		t.Errorf("expected no error within limit, got %v", err)
	}
	if err := checkLimitMemory(limits, 2000); err == nil {
		t.Errorf("expected an error for estimated memory exceeding limit")
	}
}
