package heic

import "testing"

func TestErrorMessage(t *testing.T) {
	err := newErr(InvalidBitstream, "sps.log2_min_luma_coding_block_size")
	want := "InvalidBitstream: sps.log2_min_luma_coding_block_size"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBufferTooSmallMessage(t *testing.T) {
	err := bufferTooSmall(100, 40)
	want := "BufferTooSmall: buffer too small: need 100, got 40"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorKind(t *testing.T) {
	err := newErr(Cancelled, "")
	if err.Kind() != Cancelled {
		t.Errorf("got %v, want Cancelled", err.Kind())
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := newErr(CabacError, "underflow")
	wrapped := wrapErr(InvalidBitstream, "slice_data", cause)
	if wrapped.Unwrap() != cause {
		t.Errorf("Unwrap did not return the wrapped cause")
	}
}

func TestProbeErrorMessage(t *testing.T) {
	pe := &ProbeError{PK: NeedMoreData}
	if got, want := pe.Error(), "NeedMoreData"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	withCause := &ProbeError{PK: Corrupt, Cause: newErr(InvalidData, "primary item missing")}
	if got := withCause.Error(); got == "Corrupt" {
		t.Errorf("expected the wrapped cause to appear in the message, got %q", got)
	}
}
