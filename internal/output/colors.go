package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for the console report.
type ColorScheme struct {
	Title   *color.Color
	URL     *color.Color
	Label   *color.Color
	Value   *color.Color
	Success *color.Color
	Error   *color.Color
	Warn    *color.Color
	Dim     *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:   color.New(color.FgWhite, color.Bold),
		URL:     color.New(color.FgCyan),
		Label:   color.New(color.FgYellow),
		Value:   color.New(color.FgWhite),
		Success: color.New(color.FgGreen, color.Bold),
		Error:   color.New(color.FgRed, color.Bold),
		Warn:    color.New(color.FgYellow, color.Bold),
		Dim:     color.New(color.Faint),
	}
}

// NoColorScheme returns a scheme with all colors disabled, for non-TTY
// output and log capture.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	scheme.Title.DisableColor()
	scheme.URL.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Error.DisableColor()
	scheme.Warn.DisableColor()
	scheme.Dim.DisableColor()
	return scheme
}
