// Package cli provides the command-line interface for the options risk engine.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"options-risk/internal/models"
)

// Colors for terminal output
const (
	ColorRed    = color.FgRed
	ColorGreen  = color.FgGreen
	ColorYellow = color.FgYellow
	ColorCyan   = color.FgCyan
	ColorBold   = color.Bold
	ColorDim    = color.Faint
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor && isTerminal(cmd.OutOrStdout()),
	}
}

// isTerminal checks if w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.colored(ColorGreen, format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.colored(ColorRed, format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.colored(ColorYellow, format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.colored(ColorCyan, format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.colored(ColorBold, format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.colored(ColorDim, format, args...)
}

// colored prints a colored message.
func (o *Output) colored(attr color.Attribute, format string, args ...interface{}) {
	fmt.Fprintln(o.writer, o.ColoredString(attr, fmt.Sprintf(format, args...)))
}

// ColoredString returns a colored string without newline.
func (o *Output) ColoredString(attr color.Attribute, text string) string {
	c := color.New(attr)
	if o.colorEnabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

// LevelColor returns the display color of a risk level.
func LevelColor(level models.RiskLevel) color.Attribute {
	switch level {
	case models.RiskBlocker:
		return ColorRed
	case models.RiskWarning:
		return ColorYellow
	case models.RiskInfo:
		return ColorCyan
	default:
		return ColorGreen
	}
}

// FormatLevel returns the risk level colored by severity.
func (o *Output) FormatLevel(level models.RiskLevel) string {
	return o.ColoredString(LevelColor(level), string(level))
}

// NewTable creates a table writer that renders to the output.
func (o *Output) NewTable(title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(o.writer)
	if title != "" {
		t.SetTitle(title)
	}
	if o.colorEnabled {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}
