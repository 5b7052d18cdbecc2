// Package diag implements the shared diagnostic channel every compiler
// stage writes to: lexer, parser, resolver, checker and normalizer all
// collect into a Bag instead of failing at the first problem.
package diag

import "fmt"

// Severity classifies a Diagnostic. Errors stop IR emission; warnings
// and info do not.
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Position is a source location, 1-indexed for both line and column.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic is one entry in the shared channel described in spec.md §6.2.
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Position *Position `json:"position,omitempty"`
	FilePath string    `json:"filePath,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Position != nil {
		return fmt.Sprintf("%s: %s [%s] at %s", d.Severity, d.Message, d.Code, d.Position)
	}
	return fmt.Sprintf("%s: %s [%s]", d.Severity, d.Message, d.Code)
}

// Bag accumulates diagnostics across an entire compilation. Every stage
// shares one Bag; nothing is cleared between stages.
type Bag struct {
	items []Diagnostic
}

// NewBag returns an empty diagnostic bag.
func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) add(sev Severity, code, filePath string, pos *Position, msg string) {
	b.items = append(b.items, Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Position: pos,
		FilePath: filePath,
	})
}

// Error records an error-severity diagnostic.
func (b *Bag) Error(code, filePath string, pos *Position, msg string) {
	b.add(Error, code, filePath, pos, msg)
}

// Errorf records an error-severity diagnostic with formatting.
func (b *Bag) Errorf(code, filePath string, pos *Position, format string, args ...interface{}) {
	b.add(Error, code, filePath, pos, fmt.Sprintf(format, args...))
}

// Warning records a warning-severity diagnostic.
func (b *Bag) Warning(code, filePath string, pos *Position, msg string) {
	b.add(Warning, code, filePath, pos, msg)
}

// Warningf records a warning-severity diagnostic with formatting.
func (b *Bag) Warningf(code, filePath string, pos *Position, format string, args ...interface{}) {
	b.add(Warning, code, filePath, pos, fmt.Sprintf(format, args...))
}

// Info records an info-severity diagnostic.
func (b *Bag) Info(code, filePath string, pos *Position, msg string) {
	b.add(Info, code, filePath, pos, msg)
}

// HasErrors reports whether any error-severity diagnostic was recorded.
// Per spec.md §7, IR is emitted only when this is false.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// All returns every diagnostic recorded so far, in recording order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Merge appends another bag's diagnostics onto this one, preserving order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// Len returns the number of diagnostics recorded.
func (b *Bag) Len() int {
	return len(b.items)
}
