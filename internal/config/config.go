// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation. Processing is driven by exactly three paths (source, model,
// output); every other field is ambient (logging, color, diagnostics).
package config

import (
	"errors"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Fixed output conventions. These are not user-configurable.
const (
	ResultsDirName = "results" // Subfolder of the output dir that receives annotated images.
	VideoFourCC    = "mp4v"    // Codec tag for every written video.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it.
type Config struct {
	// Paths (required unless CheckOnly).
	Source string // Image, video, or directory of either.
	Model  string // Pretrained detector weights.
	Output string // Created if missing.

	// Display and logging.
	Verbose     bool
	ColorMode   ColorMode // Default: "auto".
	LogFile     string    // Optional log file path.
	MetricsFile string    // Optional Prometheus textfile written at the end of a run.
	CheckOnly   bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with every ambient default set. Paths are
// left empty; [ParseFlags] fills them.
func DefaultConfig() Config {
	return Config{
		Verbose:   false,
		ColorMode: ColorAuto,
		CheckOnly: false,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks the color mode and, when not in CheckOnly mode, that all
// three paths were given.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.CheckOnly {
		return nil
	}

	var missing []string
	if c.Source == "" {
		missing = append(missing, "--source")
	}
	if c.Model == "" {
		missing = append(missing, "--model")
	}
	if c.Output == "" {
		missing = append(missing, "--output")
	}
	if len(missing) > 0 {
		return errors.New("missing required flag(s): " + strings.Join(missing, ", "))
	}
	return nil
}
