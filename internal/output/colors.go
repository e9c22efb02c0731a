// Package output renders load-run results for terminals.
package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for the different elements of a
// rendered result.
type ColorScheme struct {
	Title   *color.Color
	Label   *color.Color
	Value   *color.Color
	Success *color.Color
	Failure *color.Color
	Warn    *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:   color.New(color.FgCyan, color.Bold),
		Label:   color.New(color.FgYellow),
		Value:   color.New(color.FgWhite),
		Success: color.New(color.FgGreen, color.Bold),
		Failure: color.New(color.FgRed, color.Bold),
		Warn:    color.New(color.FgYellow, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Failure.DisableColor()
	scheme.Warn.DisableColor()
	return scheme
}

// IsTerminal reports whether f is attached to a terminal; rendering falls
// back to plain text when it is not.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
