package crawler

import (
	"errors"
	"fmt"
)

// The error taxonomy splits failures into run-fatal kinds (auth, table
// provisioning) and scoped kinds that abort only the unit of work they
// occurred in (a page, an entity, a single field).

// AuthError reports a credential or authorization failure. Fatal.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %v", e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// TableError reports a group/table lookup or creation failure. Fatal.
type TableError struct {
	Op    string
	Table string
	Err   error
}

func (e *TableError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("table %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("table %s %q: %v", e.Op, e.Table, e.Err)
}
func (e *TableError) Unwrap() error { return e.Err }

// FetchError reports an HTTP or browser navigation failure, scoped to
// the resource being fetched.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports expected markup that was absent, scoped to a
// single field or record. Never fatal.
type ParseError struct {
	URL  string
	What string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s at %s: %v", e.What, e.URL, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// FormatError reports a field value that failed its expected pattern.
// Callers recover by keeping the raw text.
type FormatError struct {
	Field string
	Raw   string
	Err   error
}

func (e *FormatError) Error() string { return fmt.Sprintf("format %s %q: %v", e.Field, e.Raw, e.Err) }
func (e *FormatError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the whole run.
func IsFatal(err error) bool {
	var authErr *AuthError
	var tableErr *TableError
	return errors.As(err, &authErr) || errors.As(err, &tableErr)
}
