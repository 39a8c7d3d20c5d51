/*
DESCRIPTION
  ctxinit.go lays out the context-model index space used by cabac.go and
  supplies their init values, per ITU-T H.265 9.3.2.2 (Tables 9-5 through
  9-31) and spec.md section 3's "context-model array of fixed length N
  (approximately 140 entries)".

  HEIC still images carry only I slices, so init_type is always 0
  regardless of cabac_init_flag (Table 9-4): a single init-value column
  per context is enough, instead of the three the full standard carries
  for I/P/B.
*/

package hevc

// Context-model index space. Each constant is the base offset of a
// syntax element's context bank within ctxState; ctxInc selects the
// entry inside the bank.
const (
	ctxSaoMergeFlag = 0
	numCtxSaoMergeFlag = 1

	ctxSaoTypeIdx = ctxSaoMergeFlag + numCtxSaoMergeFlag
	numCtxSaoTypeIdx = 1

	ctxSplitCuFlag = ctxSaoTypeIdx + numCtxSaoTypeIdx
	numCtxSplitCuFlag = 3

	ctxCuTransquantBypassFlag = ctxSplitCuFlag + numCtxSplitCuFlag
	numCtxCuTransquantBypassFlag = 1

	ctxPartMode = ctxCuTransquantBypassFlag + numCtxCuTransquantBypassFlag
	numCtxPartMode = 4

	ctxPrevIntraLumaPredFlag = ctxPartMode + numCtxPartMode
	numCtxPrevIntraLumaPredFlag = 1

	ctxIntraChromaPredMode = ctxPrevIntraLumaPredFlag + numCtxPrevIntraLumaPredFlag
	numCtxIntraChromaPredMode = 1

	ctxSplitTransformFlag = ctxIntraChromaPredMode + numCtxIntraChromaPredMode
	numCtxSplitTransformFlag = 3

	ctxCbfLuma = ctxSplitTransformFlag + numCtxSplitTransformFlag
	numCtxCbfLuma = 2

	ctxCbfChroma = ctxCbfLuma + numCtxCbfLuma
	numCtxCbfChroma = 4

	ctxCuQpDeltaAbs = ctxCbfChroma + numCtxCbfChroma
	numCtxCuQpDeltaAbs = 2

	ctxTransformSkipFlag = ctxCuQpDeltaAbs + numCtxCuQpDeltaAbs
	numCtxTransformSkipFlag = 2 // [0]=luma, [1]=chroma

	ctxLastSigCoeffXPrefix = ctxTransformSkipFlag + numCtxTransformSkipFlag
	numCtxLastSigCoeffXPrefix = 18

	ctxLastSigCoeffYPrefix = ctxLastSigCoeffXPrefix + numCtxLastSigCoeffXPrefix
	numCtxLastSigCoeffYPrefix = 18

	ctxCodedSubBlockFlag = ctxLastSigCoeffYPrefix + numCtxLastSigCoeffYPrefix
	numCtxCodedSubBlockFlag = 4

	ctxSigCoeffFlag = ctxCodedSubBlockFlag + numCtxCodedSubBlockFlag
	numCtxSigCoeffFlag = 44

	ctxCoeffAbsLevelGreater1Flag = ctxSigCoeffFlag + numCtxSigCoeffFlag
	numCtxCoeffAbsLevelGreater1Flag = 24

	ctxCoeffAbsLevelGreater2Flag = ctxCoeffAbsLevelGreater1Flag + numCtxCoeffAbsLevelGreater1Flag
	numCtxCoeffAbsLevelGreater2Flag = 6

	numContexts = ctxCoeffAbsLevelGreater2Flag + numCtxCoeffAbsLevelGreater2Flag
)

// ctxInitValue holds the init_value used to derive each context's
// (pStateIdx, valMps) pair at the start of every slice, per 9.3.2.2's
// formula (applied in cabac.go's initContexts). Index order matches the
// constant layout above.
var ctxInitValue = [numContexts]uint8{
	// sao_merge_flag
	153,
	// sao_type_idx
	200,
	// split_cu_flag[0..2]
	139, 141, 157,
	// cu_transquant_bypass_flag
	154,
	// part_mode[0..3]
	184, 154, 154, 154,
	// prev_intra_luma_pred_flag
	184,
	// intra_chroma_pred_mode
	63,
	// split_transform_flag[0..2]
	153, 138, 138,
	// cbf_luma[0..1]
	111, 141,
	// cbf_chroma (cbf_cb/cbf_cr share this bank)[0..3]
	94, 138, 182, 154,
	// cu_qp_delta_abs[0..1]
	154, 154,
	// transform_skip_flag: luma, chroma
	139, 139,
	// last_sig_coeff_x_prefix[0..17]
	110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79, 108, 123, 63,
	// last_sig_coeff_y_prefix[0..17]
	110, 110, 124, 125, 140, 153, 125, 127, 140, 109, 111, 143, 127, 111, 79, 108, 123, 63,
	// coded_sub_block_flag[0..3]
	91, 171, 134, 141,
	// sig_coeff_flag[0..43]
	111, 111, 125, 110, 110, 94, 124, 108, 124, 107, 125, 141, 179, 153, 125, 107,
	125, 141, 179, 153, 125, 107, 125, 141, 179, 153, 125, 140, 139, 182, 182, 152,
	136, 152, 136, 153, 136, 139, 111, 136, 139, 111, 140, 140,
	// coeff_abs_level_greater1_flag[0..23]
	140, 92, 137, 138, 140, 152, 138, 139, 153, 74, 149, 92,
	139, 107, 122, 152, 140, 179, 166, 182, 140, 227, 122, 197,
	// coeff_abs_level_greater2_flag[0..5]
	138, 153, 136, 167, 152, 152,
}
