// Package term decides whether console log lines get ANSI colors and holds
// the escape sequences the logger and banner splice into their output.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/wastedetect/internal/config"
)

// Escape sequences written when color is on.
const (
	codeRed     = "\033[1;91m"
	codeGreen   = "\033[1;92m"
	codeYellow  = "\033[1;93m"
	codeBlue    = "\033[1;94m"
	codeMagenta = "\033[1;95m"
	codeCyan    = "\033[1;96m"
	codeReset   = "\033[0m"
)

// Active sequences, one per log level plus the banner. All are empty while
// color is off, so callers concatenate them unconditionally.
var (
	Red     string // ERROR
	Green   string // SUCCESS
	Yellow  string // WARNING
	Blue    string // INFO
	Cyan    string // DEBUG
	Magenta string // banner
	NC      string // reset
)

// Configure switches color on or off for the whole process and reports the
// outcome. The logger calls it once while starting up.
func Configure(mode config.ColorMode) bool {
	on := resolve(mode, os.Stdout)
	pick := func(code string) string {
		if on {
			return code
		}
		return ""
	}
	Red, Green, Yellow = pick(codeRed), pick(codeGreen), pick(codeYellow)
	Blue, Cyan, Magenta = pick(codeBlue), pick(codeCyan), pick(codeMagenta)
	NC = pick(codeReset)
	return on
}

// Enabled reports whether the last Configure turned color on.
func Enabled() bool { return NC != "" }

// resolve: always and never are final. Auto needs out to be a console, an
// empty NO_COLOR (https://no-color.org) and a TERM other than dumb.
func resolve(mode config.ColorMode, out *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(out)
}

// IsTerminal is true when f is a character device, which is how an
// interactive console shows up.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}
