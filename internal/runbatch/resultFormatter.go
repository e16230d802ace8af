// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// OutputOptions controls what is included in the output.
type OutputOptions struct {
	IncludeStdOut      bool // Whether to include stdout in the output
	IncludeStdErr      bool // Whether to include stderr in the output
	ShowSuccessDetails bool // Whether to show details for successful commands
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
	}
}

type resultStyles struct {
	success  lipgloss.Style
	failure  lipgloss.Style
	skipped  lipgloss.Style
	unknown  lipgloss.Style
	errLabel lipgloss.Style
	faint    lipgloss.Style
}

// newResultStyles builds styles for w. Colour is only used when w is a terminal.
func newResultStyles(w io.Writer) *resultStyles {
	r := lipgloss.NewRenderer(w)

	return &resultStyles{
		success:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failure:  r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		skipped:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		unknown:  r.NewStyle().Foreground(lipgloss.Color("7")),
		errLabel: r.NewStyle().Foreground(lipgloss.Color("9")),
		faint:    r.NewStyle().Faint(true),
	}
}

func (s *resultStyles) status(st ResultStatus) (string, lipgloss.Style) {
	switch st {
	case ResultStatusSuccess:
		return "✓", s.success
	case ResultStatusError:
		return "✗", s.failure
	case ResultStatusSkipped:
		return "~", s.skipped
	default:
		return "?", s.unknown
	}
}

// WriteResults writes results as an indented status tree.
// Batches get a summary of their jobs. Failed jobs get their error and, depending on
// options, their captured output.
func WriteResults(w io.Writer, results Results, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	styles := newResultStyles(w)

	for _, r := range results {
		if err := writeResultWithIndent(w, r, "", options, styles); err != nil {
			return err
		}
	}

	return nil
}

func writeResultWithIndent(w io.Writer, r *Result, indent string, options *OutputOptions, styles *resultStyles) error {
	symbol, style := styles.status(r.Status)

	label := r.Label
	if label == "" {
		label = "[unnamed]"
	}

	sb := strings.Builder{}
	sb.WriteString(indent)
	sb.WriteString(style.Render(symbol + " " + label))

	if r.ExitCode != 0 && len(r.Children) == 0 {
		fmt.Fprintf(&sb, " (exit code: %d)", r.ExitCode)
	}

	if len(r.Children) > 0 {
		s := r.Children.Summary()
		sb.WriteString(styles.faint.Render(fmt.Sprintf(" [%d jobs: %d succeeded, %d failed, %d skipped]",
			s.Total, s.Succeeded, s.Failed, s.Skipped)))
	}

	sb.WriteString("\n")

	if r.Error != nil && !errors.Is(r.Error, ErrResultChildrenHasError) {
		fmt.Fprintf(&sb, "%s  %s %s\n", indent, styles.errLabel.Render("➜ Error:"), r.Error.Error())
	}

	failed := r.Status == ResultStatusError
	showDetails := (failed || options.ShowSuccessDetails) && len(r.Children) == 0

	if showDetails && options.IncludeStdOut && len(r.StdOut) > 0 {
		fmt.Fprintf(&sb, "%s  ➜ Output:\n", indent)
		sb.WriteString(formatOutput(r.StdOut, indent+"     "))
	}

	if showDetails && options.IncludeStdErr && len(r.StdErr) > 0 {
		fmt.Fprintf(&sb, "%s  %s\n", indent, styles.errLabel.Render("➜ Error Output:"))
		sb.WriteString(formatOutput(r.StdErr, indent+"     "))
	}

	if showDetails && r.Truncated {
		fmt.Fprintf(&sb, "%s  %s\n", indent, styles.faint.Render("(output truncated)"))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("cannot write results: %w", err)
	}

	for _, child := range r.Children {
		if err := writeResultWithIndent(w, child, indent+"  ", options, styles); err != nil {
			return err
		}
	}

	return nil
}

// formatOutput formats multi-line output with proper indentation.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
