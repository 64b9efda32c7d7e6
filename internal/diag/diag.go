// Package diag implements the DiagnosticSink described in spec §4.1/§7:
// classified, source-positioned diagnostics, plus a structured logging
// fan-out so tooling (editors, CI) can consume assembler output as JSON
// alongside the human-readable stream a terminal user sees.
package diag

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Severity classifies a diagnostic. Only Error and Syntax set had_error;
// Warning never does (spec §7).
type Severity int

const (
	Warning Severity = iota
	Syntax
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Syntax:
		return "syntax error"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Position is the file:line:column a diagnostic is anchored to.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Sink collects diagnostics during one assembly and fans each one out to
// a human-readable stream and a structured logger. It tracks had_error
// for the CLI's exit-code decision (spec §7).
type Sink struct {
	logger   *slog.Logger
	human    io.Writer
	hadError bool
	count    int
}

// New returns a Sink that writes each diagnostic to human as a
// "pos: severity: message" line, and also logs it through slog-multi's
// fan-out handler to a text handler on human and a JSON handler on
// jsonOut, so human receives both the plain line and the slog record.
func New(human, jsonOut io.Writer) *Sink {
	fanout := slogmulti.Fanout(
		slog.NewTextHandler(human, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(jsonOut, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	return &Sink{
		logger: slog.New(fanout),
		human:  human,
	}
}

// NewStderr returns a Sink suitable for CLI use: human-readable text to
// stderr, structured JSON to a file (or io.Discard if jsonOut is nil).
func NewStderr(jsonOut io.Writer) *Sink {
	if jsonOut == nil {
		jsonOut = io.Discard
	}
	return New(os.Stderr, jsonOut)
}

// Report records one diagnostic at pos with severity sev and message
// msg. Error and Syntax set had_error; Warning does not.
func (s *Sink) Report(sev Severity, pos Position, msg string) {
	s.count++
	if sev != Warning {
		s.hadError = true
	}
	fmt.Fprintf(s.human, "%s: %s: %s\n", pos, sev, msg)
	s.logger.Info("diagnostic",
		slog.String("severity", sev.String()),
		slog.String("position", pos.String()),
		slog.String("message", msg),
	)
}

// Warningf reports a warning at pos.
func (s *Sink) Warningf(pos Position, format string, args ...any) {
	s.Report(Warning, pos, fmt.Sprintf(format, args...))
}

// Syntaxf reports a syntax error at pos.
func (s *Sink) Syntaxf(pos Position, format string, args ...any) {
	s.Report(Syntax, pos, fmt.Sprintf(format, args...))
}

// Errorf reports a semantic error at pos.
func (s *Sink) Errorf(pos Position, format string, args ...any) {
	s.Report(Error, pos, fmt.Sprintf(format, args...))
}

// HadError reports whether any Error or Syntax diagnostic has been
// recorded so far.
func (s *Sink) HadError() bool {
	return s.hadError
}

// Count returns the total number of diagnostics reported, of any
// severity.
func (s *Sink) Count() int {
	return s.count
}
