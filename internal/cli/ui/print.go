// Package ui provides the terminal output helpers shared by the
// asmtool commands.
package ui

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
)

// DisableColor turns all helpers into plain output.
func DisableColor() {
	color.NoColor = true
}

// Success prints a green checkmarked line.
func Success(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, args...))
}

// Error prints a red error line.
func Error(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", errorColor.Sprint("✗"), fmt.Sprintf(format, args...))
}

// Info prints a cyan informational line.
func Info(format string, args ...interface{}) {
	infoColor.Printf(format+"\n", args...)
}

// Detail prints a dimmed, indented detail line.
func Detail(format string, args ...interface{}) {
	dimColor.Printf("  "+format+"\n", args...)
}
