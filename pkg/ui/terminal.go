package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Banner is printed at the start of an interactive run
const Banner = `
   ┌─┐┌─┐┬  ┬  ┌─┐┬─┐┬ ┬  ┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┬─┐
   │ ┬├─┤│  │  ├┤ ├┬┘└┬┘  └─┐│  ├┬┘├─┤├─┘├┤ ├┬┘
   └─┘┴ ┴┴─┘┴─┘└─┘┴└─ ┴   └─┘└─┘┴└─┴ ┴┴  └─┘┴└─
`

var (
	mu        sync.Mutex
	output    io.Writer = os.Stdout
	errOutput io.Writer = os.Stderr
	quiet     bool
	colors    = IsTerminal(os.Stdout)
)

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetOutput redirects normal and error output. Colours follow whether out
// is a terminal.
func SetOutput(out, errOut io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = out
	errOutput = errOut
	colors = IsTerminal(out)
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

// SetColors forces ANSI colours on or off
func SetColors(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colors = enabled
}

// ColorsEnabled reports whether ANSI colours are written
func ColorsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return colors
}

// Output returns the writer for normal output, io.Discard in quiet mode
func Output() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if quiet {
		return io.Discard
	}
	return output
}

// ErrOutput returns the writer for errors. Quiet mode does not affect it.
func ErrOutput() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOutput
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !ColorsEnabled() {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner and version
func PrintBanner(version string) {
	w := Output()
	fmt.Fprint(w, Cyan(Banner))
	fmt.Fprintf(w, "   %s\n\n", Dim("v"+version))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(ErrOutput(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(ErrOutput(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output(), Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output(), Magenta(msg))
}
