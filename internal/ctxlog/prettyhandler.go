// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/TylerBrock/colorjson"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	// ErrMarshalAttribute is returned when an error occurs while marshaling an attribute.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when an error occurs while writing to the output.
	ErrIoWrite = errors.New("error when writing to output")
)

const (
	// TimeFormat is the format used for timestamps in console log messages.
	TimeFormat = "[15:04:05.000]"
	// NoColorEnvVar disables colour output when set to any value.
	NoColorEnvVar = "NO_COLOR"
)

// PrettyHandler is a custom slog handler that formats log messages to the console in a pretty way.
// Attributes are rendered as a single JSON object after the message.
type PrettyHandler struct {
	h                slog.Handler
	r                func([]string, slog.Attr) slog.Attr
	b                *bytes.Buffer
	m                *sync.Mutex
	writer           io.Writer
	colour           bool
	outputEmptyAttrs bool
	styles           *prettyStyles
}

type prettyStyles struct {
	json    *colorjson.Formatter
	time    lipgloss.Style
	message lipgloss.Style
	debug   lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	fatal   lipgloss.Style
}

func newPrettyStyles(w io.Writer, colour bool) *prettyStyles {
	renderer := lipgloss.NewRenderer(w)
	if colour {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	f := colorjson.NewFormatter()
	f.Indent = 0
	f.DisabledColor = !colour

	return &prettyStyles{
		json:    f,
		time:    renderer.NewStyle().Foreground(lipgloss.Color("7")),
		message: renderer.NewStyle().Foreground(lipgloss.Color("15")),
		debug:   renderer.NewStyle().Foreground(lipgloss.Color("7")),
		info:    renderer.NewStyle().Foreground(lipgloss.Color("6")),
		warn:    renderer.NewStyle().Foreground(lipgloss.Color("3")),
		err:     renderer.NewStyle().Foreground(lipgloss.Color("1")),
		fatal:   renderer.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	}
}

func (s *prettyStyles) level(l slog.Level) lipgloss.Style {
	switch {
	case l <= slog.LevelDebug:
		return s.debug
	case l < slog.LevelWarn:
		return s.info
	case l < slog.LevelError:
		return s.warn
	case l <= slog.LevelError+1:
		return s.err
	default:
		return s.fatal
	}
}

// Enabled checks if the handler is enabled for the given level.
func (h *PrettyHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

// WithAttrs creates a new handler with the given attributes.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.h = h.h.WithAttrs(attrs)

	return &c
}

// WithGroup creates a new handler with the given group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.h = h.h.WithGroup(name)

	return &c
}

func (h *PrettyHandler) computeAttrs(
	ctx context.Context,
	r slog.Record,
) (map[string]any, error) {
	h.m.Lock()
	defer func() {
		h.b.Reset()
		h.m.Unlock()
	}()

	if err := h.h.Handle(ctx, r); err != nil {
		return nil, fmt.Errorf("error when calling inner handler's Handle: %w", err)
	}

	var attrs map[string]any

	if err := json.Unmarshal(h.b.Bytes(), &attrs); err != nil {
		return nil, fmt.Errorf("error when unmarshaling inner handler's Handle result: %w", err)
	}

	return attrs, nil
}

// replace runs the user supplied ReplaceAttr function over one of the built-in attributes.
// It returns false when the attribute has been removed.
func (h *PrettyHandler) replace(a slog.Attr) (slog.Attr, bool) {
	if h.r != nil {
		a = h.r([]string{}, a)
	}

	return a, !a.Equal(slog.Attr{})
}

// Handle implements the slog.Handler interface for PrettyHandler.
func (h *PrettyHandler) Handle(ctx context.Context, r slog.Record) error {
	out := strings.Builder{}

	if a, ok := h.replace(slog.String(slog.TimeKey, r.Time.Format(TimeFormat))); ok {
		out.WriteString(h.styles.time.Render(a.Value.String()))
		out.WriteString(" ")
	}

	if a, ok := h.replace(slog.Any(slog.LevelKey, r.Level)); ok {
		out.WriteString(h.styles.level(r.Level).Render(a.Value.String() + ":"))
		out.WriteString(" ")
	}

	if a, ok := h.replace(slog.String(slog.MessageKey, r.Message)); ok {
		out.WriteString(h.styles.message.Render(a.Value.String()))
		out.WriteString(" ")
	}

	attrs, err := h.computeAttrs(ctx, r)
	if err != nil {
		return err
	}

	if h.outputEmptyAttrs || len(attrs) > 0 {
		b, err := h.styles.json.Marshal(attrs)
		if err != nil {
			return errors.Join(ErrMarshalAttribute, err)
		}

		out.Write(b)
	}

	out.WriteString("\n")

	h.m.Lock()
	defer h.m.Unlock()

	if _, err := io.WriteString(h.writer, out.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

func suppressDefaults(next func([]string, slog.Attr) slog.Attr,
) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey ||
			a.Key == slog.LevelKey ||
			a.Key == slog.MessageKey {
			return slog.Attr{}
		}

		if next == nil {
			return a
		}

		return next(groups, a)
	}
}

// NewPrettyHandler creates a new PrettyHandler with the given options.
// Without WithDestinationWriter the handler writes to stderr.
func NewPrettyHandler(handlerOptions *slog.HandlerOptions, options ...Option) *PrettyHandler {
	if handlerOptions == nil {
		handlerOptions = &slog.HandlerOptions{}
	}

	buf := &bytes.Buffer{}
	handler := &PrettyHandler{
		b: buf,
		h: slog.NewJSONHandler(buf, &slog.HandlerOptions{
			Level:       handlerOptions.Level,
			AddSource:   handlerOptions.AddSource,
			ReplaceAttr: suppressDefaults(handlerOptions.ReplaceAttr),
		}),
		r:      handlerOptions.ReplaceAttr,
		m:      &sync.Mutex{},
		writer: os.Stderr,
	}

	for _, opt := range options {
		opt(handler)
	}

	handler.styles = newPrettyStyles(handler.writer, handler.colour)

	return handler
}

// Option implements a functional options pattern for PrettyHandler.
type Option func(h *PrettyHandler)

// WithDestinationWriter sets the destination writer for the PrettyHandler.
func WithDestinationWriter(writer io.Writer) Option {
	return func(h *PrettyHandler) {
		h.writer = writer
	}
}

// WithColour enables color output for the PrettyHandler.
func WithColour() Option {
	return func(h *PrettyHandler) {
		h.colour = true
	}
}

// WithAutoColour enables colour when the destination is a terminal and NO_COLOR is unset.
// It must be given after WithDestinationWriter to inspect the final writer.
func WithAutoColour() Option {
	return func(h *PrettyHandler) {
		h.colour = isTerminal(h.writer)
	}
}

// WithOutputEmptyAttrs enables output of empty attributes for the PrettyHandler.
func WithOutputEmptyAttrs() Option {
	return func(h *PrettyHandler) {
		h.outputEmptyAttrs = true
	}
}

func isTerminal(w io.Writer) bool {
	if _, ok := os.LookupEnv(NoColorEnvVar); ok {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}
