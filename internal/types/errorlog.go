package types

import (
	"sync"
	"time"
)

// =============================================================================
// ERROR LOG
// =============================================================================

// Severity is the level of an error log entry.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
)

// ErrorLogEntry is one record in the batch error log.
type ErrorLogEntry struct {
	// Timestamp is when the entry was recorded.
	Timestamp time.Time

	// Severity is ERROR, WARN or INFO.
	Severity Severity

	// Operation names the step that produced the entry
	// (e.g. "BuildCompoundJournal", "ResolveTaxCode").
	Operation string

	// Source is the sheet or file the batch was read from.
	Source string

	// VoucherNumber is the voucher being processed, if any.
	VoucherNumber string

	// Message is a human-readable description.
	Message string

	// Stack holds a stack trace for recovered failures.
	Stack string
}

// ErrorLog is the append-only accumulator for one batch run. It is created
// empty by the caller, handed to the converter, and drained by the caller
// when the run is over. Add is safe for concurrent use.
type ErrorLog struct {
	mu      sync.Mutex
	source  string
	entries []ErrorLogEntry

	// now is replaceable in tests.
	now func() time.Time
}

// NewErrorLog creates an empty log whose entries are tagged with source.
func NewErrorLog(source string) *ErrorLog {
	return &ErrorLog{
		source: source,
		now:    time.Now,
	}
}

// Source returns the source name entries are tagged with.
func (l *ErrorLog) Source() string {
	return l.source
}

// Add appends an entry. Timestamp and Source are filled in when unset.
func (l *ErrorLog) Add(entry ErrorLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if entry.Source == "" {
		entry.Source = l.source
	}
	l.entries = append(l.entries, entry)
}

// Error appends an ERROR entry.
func (l *ErrorLog) Error(operation, voucher, message string) {
	l.Add(ErrorLogEntry{Severity: SeverityError, Operation: operation, VoucherNumber: voucher, Message: message})
}

// Warn appends a WARN entry.
func (l *ErrorLog) Warn(operation, voucher, message string) {
	l.Add(ErrorLogEntry{Severity: SeverityWarn, Operation: operation, VoucherNumber: voucher, Message: message})
}

// Info appends an INFO entry.
func (l *ErrorLog) Info(operation, voucher, message string) {
	l.Add(ErrorLogEntry{Severity: SeverityInfo, Operation: operation, VoucherNumber: voucher, Message: message})
}

// Merge appends every entry of other, in order.
func (l *ErrorLog) Merge(other *ErrorLog) {
	if other == nil || other == l {
		return
	}
	for _, e := range other.Entries() {
		l.Add(e)
	}
}

// Entries returns a copy of the entries recorded so far.
func (l *ErrorLog) Entries() []ErrorLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ErrorLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *ErrorLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Count returns the number of entries with the given severity.
func (l *ErrorLog) Count(severity Severity) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, e := range l.entries {
		if e.Severity == severity {
			n++
		}
	}
	return n
}

// Reset drops all entries so the log can be reused for the next batch.
func (l *ErrorLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
