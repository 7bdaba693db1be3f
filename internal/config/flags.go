package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into paths, display, and utility.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and exits.
func ParseFlags(cfg *Config, version string) error {
	return ParseArgs(cfg, os.Args[1:], version)
}

// ParseArgs parses args (without the program name) into cfg. On error it
// returns non-nil (unknown flag, stray positional arguments).
func ParseArgs(cfg *Config, args []string, version string) error {
	fs := flag.NewFlagSet("wastedetect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() { printUsage(version) }

	var negated negatedFlags

	definePathFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			printUsage(version)
			os.Exit(0)
		}
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "wastedetect v"+version)
		os.Exit(0)
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (paths are given with --source, --model, --output)", fs.Arg(0))
	}
	cfg.Output = NormalizeDirArg(cfg.Output)
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// definePathFlags registers --source, --model, --output.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Source, "source", cfg.Source, "Path to input image, video, or folder")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Path to detector model file")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Path to output directory")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log, --metrics.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
	fs.StringVar(&cfg.MetricsFile, "metrics", "", "Write run metrics to a Prometheus textfile")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 28
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "wastedetect v" + version + " - batch object detection over images and videos"},
		{"", ""},
		{"  wastedetect --source <path> --model <path> --output <path> [OPTIONS]", ""},
		{"", ""},
		{"Paths (required)", ""},
		{"  --source <path>", "Input image, video, or folder"},
		{"  --model <path>", "Detector weights (ONNX export of YOLOv8)"},
		{"  --output <path>", "Output directory (created if missing)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  --metrics <path>", "Write run metrics (Prometheus textfile)"},
		{"  -c, --check", "System diagnostics (OpenCV, mp4v writer, model)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}
