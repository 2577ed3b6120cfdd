package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color modes for SetColor.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects everything the package prints.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// SetColor forces colors on or off. Auto leaves terminal detection to lipgloss.
func SetColor(mode string) {
	switch mode {
	case ColorAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

func OK(msg string) {
	t := current
	fmt.Fprintln(stdout, t.Success.Render(t.SymOK+" "+msg))
}

func Fail(msg string) {
	t := current
	fmt.Fprintln(stderr, t.Error.Render(t.SymFail+" "+msg))
}

// Hint prints a muted line on stderr.
func Hint(msg string) {
	fmt.Fprintln(stderr, current.Muted.Render(msg))
}

// Println writes a plain line to stdout.
func Println(s string) {
	fmt.Fprintln(stdout, s)
}
