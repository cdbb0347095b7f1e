package ot

import (
	"errors"
	"fmt"
)

// ErrFontFormat is the root of all errors reporting malformed or unsupported
// font binaries. Use errors.Is to check for it.
var ErrFontFormat = errors.New("OpenType font format")

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("%w: %s", ErrFontFormat, message)
}

// ErrorSeverity represents the severity level of a font parsing error.
type ErrorSeverity int

const (
	// SeverityCritical makes the font unusable for extracting a character map.
	SeverityCritical ErrorSeverity = iota
	// SeverityMajor may affect results, e.g. glyph names are unavailable.
	SeverityMajor
	// SeverityMinor can be safely ignored in most cases.
	SeverityMinor
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityMajor:
		return "MAJOR"
	case SeverityMinor:
		return "MINOR"
	default:
		return "UNKNOWN"
	}
}

// FontError represents an error encountered during font parsing.
// Non-critical errors are collected during parsing and can be inspected
// after parsing completes.
type FontError struct {
	Table    Tag           // table where the error occurred, e.g. "cmap"
	Section  string        // section within the table, e.g. "Subtable"
	Issue    string        // human-readable description
	Severity ErrorSeverity // severity level of the error
	Offset   uint32        // byte offset in the font binary (0 if unknown)
}

func (e FontError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("[%s] %s/%s at offset %d: %s", e.Severity, e.Table, e.Section, e.Offset, e.Issue)
	}
	return fmt.Sprintf("[%s] %s/%s: %s", e.Severity, e.Table, e.Section, e.Issue)
}

// FontWarning represents a non-critical issue encountered during font parsing.
type FontWarning struct {
	Table  Tag
	Issue  string
	Offset uint32
}

func (w FontWarning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("[WARNING] %s at offset %d: %s", w.Table, w.Offset, w.Issue)
	}
	return fmt.Sprintf("[WARNING] %s: %s", w.Table, w.Issue)
}

// errorCollector accumulates errors and warnings during font parsing.
type errorCollector struct {
	errors   []FontError
	warnings []FontWarning
}

func (ec *errorCollector) addError(table Tag, section string, issue string, severity ErrorSeverity, offset uint32) {
	tracer().Debugf("font error in %s/%s: %s", table, section, issue)
	ec.errors = append(ec.errors, FontError{
		Table:    table,
		Section:  section,
		Issue:    issue,
		Severity: severity,
		Offset:   offset,
	})
}

func (ec *errorCollector) addWarning(table Tag, issue string, offset uint32) {
	tracer().Debugf("font warning for %s: %s", table, issue)
	ec.warnings = append(ec.warnings, FontWarning{
		Table:  table,
		Issue:  issue,
		Offset: offset,
	})
}

// critical returns the first critical error as a Go error, or nil.
func (ec *errorCollector) critical() error {
	for _, e := range ec.errors {
		if e.Severity == SeverityCritical {
			return fmt.Errorf("%w: %s", ErrFontFormat, e.Error())
		}
	}
	return nil
}
