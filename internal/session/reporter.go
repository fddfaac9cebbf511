package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/fxplay/internal/ansi"
	"github.com/dshills/fxplay/internal/effect"
	"github.com/dshills/fxplay/internal/logging"
)

// Kind classifies a diagnostic.
type Kind string

// Diagnostic kinds.
const (
	// KindParse is malformed canvas text. The previous canvas is kept.
	KindParse Kind = "parse"
	// KindCompile is a malformed effect source. The previous effect is kept.
	KindCompile Kind = "compile"
	// KindInvariant is an internal defect, such as a previously valid
	// effect source failing to recompile.
	KindInvariant Kind = "invariant"
	// KindPanic is a recovered panic while applying a command.
	KindPanic Kind = "panic"
)

// Diagnostic describes a command that could not be applied.
type Diagnostic struct {
	Instance uint64
	Kind     Kind
	Command  string
	Err      error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("instance %d: %s error in %s: %v", d.Instance, d.Kind, d.Command, d.Err)
}

// Reporter receives diagnostics. Reporters may be called from many
// sessions at once and must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) {
	f(d)
}

// LogReporter writes diagnostics to a logger.
type LogReporter struct {
	log *logging.Logger
}

// NewLogReporter creates a reporter writing to l.
func NewLogReporter(l *logging.Logger) *LogReporter {
	if l == nil {
		l = logging.Nop()
	}
	return &LogReporter{log: l.WithComponent("session")}
}

// Report logs d. Invariant violations and panics are logged as errors,
// user input problems as warnings.
func (r *LogReporter) Report(d Diagnostic) {
	fields := map[string]any{
		"instance": d.Instance,
		"kind":     string(d.Kind),
		"command":  d.Command,
	}

	var ce *effect.CompileError
	if errors.As(d.Err, &ce) && ce.Line > 0 {
		fields["line"] = ce.Line
		fields["column"] = ce.Column
	}
	var pe *ansi.ParseError
	if errors.As(d.Err, &pe) {
		fields["offset"] = pe.Offset
	}

	l := r.log.WithFields(fields)
	switch d.Kind {
	case KindInvariant, KindPanic:
		l.Error("%v", d.Err)
	case KindCompile:
		l.Warn("DSL compilation error: %v", d.Err)
	default:
		l.Warn("canvas parse error: %v", d.Err)
	}
}

// Recorder keeps every diagnostic it receives.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report stores d.
func (r *Recorder) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Count returns how many diagnostics of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.diags {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// MultiReporter forwards each diagnostic to every reporter in order.
type MultiReporter []Reporter

// Report forwards d.
func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}
