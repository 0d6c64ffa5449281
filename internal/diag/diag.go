// Package diag holds the position/range/diagnostic vocabulary shared by
// every component downstream of parsing: C4 syntax, C5/C6 HIR, C7
// analysis and C8's IDE surface all produce or consume diag.Diagnostic
// values over diag.Range coordinates.
package diag

import "fmt"

// Severity classifies a Diagnostic (spec.md §3).
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// Position is a zero-indexed line/column pair. Column is counted in
// UTF-16 code units to match LSP client expectations (spec.md §3
// "LineIndex").
type Position struct {
	Line      int
	Character int
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// RelatedRange attaches an explanatory range to a Diagnostic, e.g. the
// location of a conflicting prior definition.
type RelatedRange struct {
	Range   Range
	Message string
}

// Diagnostic is the uniform shape every producer in the system emits
// (spec.md §3). SourceTag names the producer ("parser", "validator",
// "lint", "config"); RuleCode is set only for lint-rule diagnostics.
type Diagnostic struct {
	Severity  Severity
	Message   string
	SourceTag string
	RuleCode  string
	Primary   Range
	Related   []RelatedRange
}
