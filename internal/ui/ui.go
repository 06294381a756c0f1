// Package ui provides terminal rendering helpers shared by sn commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sidenote-dev/sidenote/internal/schema"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	closedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// RenderAccent styles highlighted text.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderSuccess styles success output.
func RenderSuccess(s string) string { return successStyle.Render(s) }

// RenderError styles error output.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderMuted styles secondary output.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderState styles a thread state for display.
func RenderState(s schema.ThreadState) string {
	switch s {
	case schema.StateClosed:
		return closedStyle.Render("closed")
	case schema.StateOpen:
		return openStyle.Render("open")
	default:
		return string(s)
	}
}

// Anchor formats a thread anchor as location:range for display.
func Anchor(location string, r schema.Range) string {
	return fmt.Sprintf("%s:%s", location, r)
}

// Rule returns a muted horizontal rule of the given width.
func Rule(width int) string {
	if width <= 0 {
		width = 40
	}
	return mutedStyle.Render(strings.Repeat("─", width))
}
