// Package heic implements a pure-Go HEIC/HEIF still-image decoder: an
// intra-only HEVC bitstream decoder (codec/hevc) driving NAL splitting,
// parameter-set parsing, CABAC, coding-tree traversal, intra prediction,
// inverse transform, deblocking and SAO; an ISOBMFF/HEIF container
// reader (container/heif) resolving items, properties and references;
// and YCbCr -> RGB(A) color conversion (colorconvert), including the
// PQ/HLG HDR transfer functions.
//
// DecoderConfig is the stateless entry point; DecodeRequest is its
// per-call builder for output pixel layout, resource limits and
// cooperative cancellation. InfoFromBytes probes an image's dimensions
// and metadata presence without decoding any slice data.
package heic
