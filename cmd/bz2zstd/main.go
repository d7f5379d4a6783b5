// Command bz2zstd decodes one or more concatenated bzip2 streams in
// parallel, optionally transcoding the plaintext to a zstd frame, per
// spec.md 6. Argument handling follows the shape of app/Kanzi.go and
// app/BlockDecompressor.go: parse once into a plain options struct, build
// the pipeline, run it, map the result to an exit code.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kassoulet/bz2zstd/block"
	"github.com/kassoulet/bz2zstd/bzerr"
	"github.com/kassoulet/bz2zstd/event"
	"github.com/kassoulet/bz2zstd/internal/applog"
	"github.com/kassoulet/bz2zstd/mmapfile"
	"github.com/kassoulet/bz2zstd/pipeline"
	"github.com/kassoulet/bz2zstd/progress"
	"github.com/kassoulet/bz2zstd/scanner"
	"github.com/kassoulet/bz2zstd/sink"
)

const defaultZstdLevel = 3

// options is the immutable configuration built once from CLI flags,
// mirroring BlockDecompressor's argsMap-to-struct pattern without the
// global mutable state.
type options struct {
	input         string
	output        string
	zstdLevel     int
	jobs          int
	benchmarkScan bool
	fingerprint   bool
	verbosity     int
	logJSON       bool
}

func main() {
	app := &cli.App{
		Name:      "bz2zstd",
		Usage:     "decode concatenated bzip2 streams in parallel, optionally transcoding to zstd",
		ArgsUsage: "INPUT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output path (default: INPUT with .bz2 replaced by .zst, or INPUT.out)"},
			&cli.IntFlag{Name: "zstd-level", Aliases: []string{"z"}, Value: defaultZstdLevel, Usage: "zstd compression level 1-22"},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: 0, Usage: "worker count (default: logical cores - 1)"},
			&cli.BoolFlag{Name: "benchmark-scan", Usage: "run the scanner only; print block count and byte size; exit 0"},
			&cli.BoolFlag{Name: "fingerprint", Usage: "compute and report a per-block XXHash64 fingerprint"},
			&cli.IntFlag{Name: "verbose", Aliases: []string{"v"}, Value: 1, Usage: "progress verbosity level 0-5"},
			&cli.StringFlag{Name: "log-format", Value: "text", Usage: "log format: text or json"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bz2zstd:", err)

		var usageErr *usageError

		if errors.As(err, &usageErr) {
			os.Exit(bzerr.ExitUsage)
		}

		os.Exit(bzerr.ExitCode(err))
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func run(ctx *cli.Context) error {
	opts, err := parseOptions(ctx)

	if err != nil {
		return err
	}

	logger := applog.New(os.Stderr, opts.verbosity, opts.logJSON)
	logger.Infof(1, "starting run "+logger.RunID().String())

	in, err := mmapfile.Open(opts.input)

	if err != nil {
		return err
	}

	defer in.Release()

	bus := &event.Bus{}
	printer := progress.NewPrinter(os.Stderr, uint(opts.verbosity))
	bus.Register(printer)

	bus.Emit(event.NewEventFromString(event.EVT_SCAN_START, -1, ""))
	descs, err := scanner.Scan(in.Bytes())

	if err != nil {
		return err
	}

	bus.Emit(event.NewEventFromString(event.EVT_SCAN_END, -1, ""))

	if opts.benchmarkScan {
		var totalBits uint64

		for _, d := range descs {
			totalBits += d.EndBit - d.StartBit
		}

		fmt.Printf("%d blocks, %d bytes\n", len(descs), totalBits/8)
		return nil
	}

	out, err := os.Create(opts.output)

	if err != nil {
		return &bzerr.IOError{Err: err}
	}

	snk, err := newSink(out, opts.output, opts.zstdLevel)

	if err != nil {
		out.Close()
		os.Remove(opts.output)
		return err
	}

	dec := block.NewDecoder(in.Bytes(), opts.fingerprint)

	stats, runErr := pipeline.Run(descs, dec, snk, opts.jobs, bus)

	if runErr != nil {
		snk.Close()
		os.Remove(opts.output)
		return runErr
	}

	if stats.Workers > 0 && stats.Workers < opts.jobs {
		logger.Infof(1, fmt.Sprintf("clamped workers from %d to %d (block count)", opts.jobs, stats.Workers))
	}

	if err := snk.Close(); err != nil {
		os.Remove(opts.output)
		return &bzerr.IOError{Err: err}
	}

	bus.Emit(event.NewEventFromString(event.EVT_DECOMPRESSION_END, -1, ""))
	logger.Infof(1, fmt.Sprintf("decoded %d blocks, %d bytes, %d workers", stats.BlocksDecoded, stats.BytesOut, stats.Workers))

	return nil
}

func newSink(f *os.File, outputPath string, level int) (sink.Sink, error) {
	if strings.HasSuffix(outputPath, ".zst") {
		return sink.NewZstd(f, level)
	}

	return sink.NewRaw(f), nil
}

func parseOptions(ctx *cli.Context) (*options, error) {
	if ctx.NArg() != 1 {
		return nil, &usageError{"expected exactly one positional input path"}
	}

	input := ctx.Args().Get(0)

	if _, err := os.Stat(input); err != nil {
		return nil, &bzerr.IOError{Err: err}
	}

	level := ctx.Int("zstd-level")

	if level < 1 || level > 22 {
		return nil, &usageError{fmt.Sprintf("zstd level %d out of range [1, 22]", level)}
	}

	logFormat := ctx.String("log-format")

	if logFormat != "text" && logFormat != "json" {
		return nil, &usageError{fmt.Sprintf("unknown log format %q", logFormat)}
	}

	jobs := ctx.Int("jobs")

	if jobs <= 0 {
		jobs = runtime.NumCPU() - 1

		if jobs < 1 {
			jobs = 1
		}
	}

	output := ctx.String("output")

	if output == "" {
		output = defaultOutputPath(input)
	}

	return &options{
		input:         input,
		output:        output,
		zstdLevel:     level,
		jobs:          jobs,
		benchmarkScan: ctx.Bool("benchmark-scan"),
		fingerprint:   ctx.Bool("fingerprint"),
		verbosity:     ctx.Int("verbose"),
		logJSON:       logFormat == "json",
	}, nil
}

// defaultOutputPath implements spec.md 6's default: ".bz2" becomes ".zst",
// anything else gets ".out" appended.
func defaultOutputPath(input string) string {
	if ext := filepath.Ext(input); ext == ".bz2" {
		return strings.TrimSuffix(input, ext) + ".zst"
	}

	return input + ".out"
}
