/*
DESCRIPTION
  statetransxtab.go provides the pStateIdx transition tables used after
  each regular bin decode, per ITU-T H.265 9.3.4.3.2.2 Table 9-47 (shared
  numerically with H.264 Table 9-45). Adapted from
  codec/h264/h264dec/statetransxtab.go (github.com/ausocean/av).
*/

package hevc

// transIdxLPS[pStateIdx] gives the next pStateIdx after an LPS decode.
var transIdxLPS = [64]int{
	0, 0, 1, 2, 2, 4, 4, 5, 6, 7, 8, 9, 9, 11, 11, 12,
	13, 13, 15, 15, 16, 16, 18, 18, 19, 19, 21, 21, 22, 22, 23, 24,
	24, 25, 26, 26, 27, 27, 28, 29, 29, 30, 30, 30, 31, 32, 32, 33,
	33, 33, 34, 34, 35, 35, 35, 36, 36, 36, 37, 37, 37, 38, 38, 63,
}

// transIdxMPS[pStateIdx] gives the next pStateIdx after an MPS decode.
var transIdxMPS = [64]int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48,
	49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 62, 63,
}
