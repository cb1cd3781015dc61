package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"

	"github.com/fumiama/imgconv"
	"github.com/fumiama/imgconv/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Handle --version before flag parsing.
	for _, argument := range args {
		if argument == "--version" {
			fmt.Fprintf(stdout, "imgconv %s\n", versionInfo())
			return 0
		}
	}

	var (
		configPath string
		logLevel   string
		quality    int
		maxPixels  int
		checksum   bool
		probe      bool
	)
	flagSet := pflag.NewFlagSet("imgconv", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.IntVar(&quality, "quality", 0, "JPEG encoder quality (1-100)")
	flagSet.IntVar(&maxPixels, "max-pixels", 0, "largest width*height accepted on load")
	flagSet.BoolVar(&checksum, "checksum", false, "print the BLAKE3 digest of the written file")
	flagSet.BoolVar(&probe, "probe", false, "print the size and format of the input and exit")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 1
	}
	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stdout, flagSet)
		return 0
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flagSet.Changed("quality") {
		cfg.JPEG.Quality = quality
	}
	if flagSet.Changed("max-pixels") {
		cfg.BMP.MaxPixels = maxPixels
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	positional := flagSet.Args()
	if probe {
		if len(positional) != 1 {
			printUsage(stderr, flagSet)
			return 1
		}
		return runProbe(positional[0], stdout, stderr)
	}
	if len(positional) != 2 {
		printUsage(stderr, flagSet)
		return 1
	}
	in, out := positional[0], positional[1]

	warnMismatch(logger, in)

	converter := &imgconv.Converter{Options: cfg.Options(), Logger: logger}
	if err := converter.Convert(in, out); err != nil {
		fmt.Fprintln(stderr, failureMessage(err))
		logger.Info("conversion failed", "error", err)
		return imgconv.ExitCode(err)
	}

	if checksum {
		sum, err := fileDigest(out)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "blake3:%s  %s\n", sum, out)
	}
	fmt.Fprintln(stdout, "Successfully converted")
	return 0
}

func failureMessage(err error) string {
	var ce *imgconv.ConvertError
	if !errors.As(err, &ce) {
		return err.Error()
	}
	switch ce.Stage {
	case imgconv.StageInputFormat:
		return "Unknown format of the input file"
	case imgconv.StageOutputFormat:
		return "Unknown format of the output file"
	case imgconv.StageLoad:
		return "Loading failed"
	default:
		return "Saving failed"
	}
}

// warnMismatch logs when the leading bytes of path belong to a different
// known format than its extension.
func warnMismatch(logger *slog.Logger, path string) {
	want := imgconv.Resolve(path)
	if want == imgconv.Unknown {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	got, err := imgconv.Sniff(f)
	if err != nil || got == imgconv.Unknown || got == want {
		return
	}
	logger.Warn("file content does not match extension", "path", path, "extension", want, "content", got)
}

func runProbe(path string, stdout, stderr io.Writer) int {
	size, format, err := imgconv.Probe(path)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if format == imgconv.Unknown {
			return 2
		}
		return 4
	}
	fmt.Fprintf(stdout, "%s %dx%d\n", format, size.Width, size.Height)
	return 0
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage: imgconv [flags] <in_file> <out_file>
       imgconv --probe <in_file>

Formats are chosen from the extensions: .jpg, .jpeg, .ppm, .bmp.

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
