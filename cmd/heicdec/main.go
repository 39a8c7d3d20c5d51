/*
DESCRIPTION
  heicdec is a one-shot CLI collaborator around the heic package: it
  reads one HEIC/HEIF file, decodes it, and writes one output file as
  either a binary PPM (interleaved RGB8) or raw planar YUV, per
  spec.md section 6's CLI surface. Exit codes: 0 success, 1 read/parse
  error, 2 unsupported feature, 3 limit exceeded, 4 cancelled.

AUTHORS
  Grounded on cmd/rv/main.go's flag parsing, lumberjack rotating file
  log and github.com/ausocean/utils/logging setup.
*/

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/heic"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "heicdec.log"
	logMaxSize   = 10 // MB
	logMaxBackup = 3
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

// Output formats accepted by the -format flag.
const (
	formatPPM = "ppm"
	formatYUV = "yuv"
)

// Exit codes, per spec.md section 6.
const (
	exitOK = iota
	exitReadError
	exitUnsupported
	exitLimitExceeded
	exitCancelled
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout *os.File) int {
	fs := flag.NewFlagSet("heicdec", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "show version")
	format := fs.String("format", formatPPM, "output format: ppm or yuv")
	layoutName := fs.String("layout", "rgba8", "pixel layout for -format=ppm: rgb8, rgba8, bgr8 or bgra8")
	maxWidth := fs.Uint64("max-width", 0, "reject images wider than this (0 = no limit)")
	maxHeight := fs.Uint64("max-height", 0, "reject images taller than this (0 = no limit)")
	maxPixels := fs.Uint64("max-pixels", 0, "reject images with more pixels than this (0 = no limit)")
	maxMemory := fs.Uint64("max-memory", 0, "reject decodes estimated to need more than this many bytes (0 = no limit)")
	timeout := fs.Duration("timeout", 0, "abort the decode after this long (0 = no timeout)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: heicdec [flags] <input.heic> <output>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitReadError
	}
	if *showVersion {
		fmt.Fprintln(stdout, version)
		return exitOK
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return exitReadError
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	defer fileLog.Close()
	log := logging.New(logVerbosity, fileLog, logSuppress)

	layout, err := parseLayout(*layoutName)
	if err != nil {
		log.Error("bad -layout value", "value", *layoutName)
		fmt.Fprintln(os.Stderr, err)
		return exitReadError
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Error("failed to read input", "path", inPath, "error", err.Error())
		fmt.Fprintln(os.Stderr, err)
		return exitReadError
	}
	log.Info("read input", "path", inPath, "bytes", len(data))

	req := heic.NewDecoderConfig().DecodeRequest(data).WithLimits(heic.Limits{
		MaxWidth:       *maxWidth,
		MaxHeight:      *maxHeight,
		MaxPixels:      *maxPixels,
		MaxMemoryBytes: *maxMemory,
	}).WithLog(log)
	if *timeout > 0 {
		req = req.WithStop(deadlineStop{deadline: time.Now().Add(*timeout)})
	}

	var writeErr error
	switch *format {
	case formatYUV:
		f, err := req.DecodeYUV()
		if err != nil {
			return handleDecodeError(log, err)
		}
		log.Info("decoded", "width", f.CroppedWidth(), "height", f.CroppedHeight())
		writeErr = writeYUV(outPath, f)
	default:
		out, err := req.WithOutputLayout(layout).Decode()
		if err != nil {
			return handleDecodeError(log, err)
		}
		log.Info("decoded", "width", out.Width, "height", out.Height)
		writeErr = writePPM(outPath, out)
	}
	if writeErr != nil {
		log.Error("failed to write output", "path", outPath, "error", writeErr.Error())
		fmt.Fprintln(os.Stderr, writeErr)
		return exitReadError
	}
	return exitOK
}

func parseLayout(name string) (heic.PixelLayout, error) {
	switch name {
	case "rgb8":
		return heic.RGB8, nil
	case "rgba8":
		return heic.RGBA8, nil
	case "bgr8":
		return heic.BGR8, nil
	case "bgra8":
		return heic.BGRA8, nil
	default:
		return 0, fmt.Errorf("unknown layout %q", name)
	}
}

// handleDecodeError logs err and maps its Kind to the CLI exit code
// spec.md section 6 names.
func handleDecodeError(log logging.Logger, err error) int {
	kinder, ok := err.(interface{ Kind() heic.Kind })
	if !ok {
		log.Error("decode failed", "error", err.Error())
		fmt.Fprintln(os.Stderr, err)
		return exitReadError
	}
	log.Error("decode failed", "kind", kinder.Kind().String(), "error", err.Error())
	fmt.Fprintln(os.Stderr, err)
	switch kinder.Kind() {
	case heic.Unsupported:
		return exitUnsupported
	case heic.LimitExceeded:
		return exitLimitExceeded
	case heic.Cancelled:
		return exitCancelled
	default:
		return exitReadError
	}
}

// deadlineStop is a hevc.StopToken that fires once a wall-clock deadline
// passes, for the CLI's -timeout flag.
type deadlineStop struct {
	deadline time.Time
}

func (d deadlineStop) Stopped() bool {
	return time.Now().After(d.deadline)
}
