/*
DESCRIPTION
  heicqpmap is a diagnostic CLI that decodes one HEIC file to its raw
  YCbCr frame and renders its per-block luma QP field as a PNG heatmap,
  for triaging CABAC desynchronization during development. Not part of
  the core decode pipeline; a debugging aid analogous to cmd/rv's
  turbidity probe diagnostics.
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ausocean/heic"
	"github.com/ausocean/heic/internal/diag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("heicqpmap", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: heicqpmap <input.heic> <output.png>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	data, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	frame, err := heic.NewDecoderConfig().DecodeToFrame(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := diag.QPHeatmap(outPath, frame); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
