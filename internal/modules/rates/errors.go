// README: Typed errors returned by the rate admin gateway.
package rates

import "fmt"

// ValidationError rejects a write before anything is committed. The caller
// can fix the named field and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown entity referenced by a request or
// mutation. It is never silently defaulted.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

func notFound(kind string, key any) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: fmt.Sprint(key)}
}

// ConflictError signals a registry version mismatch on a concurrent write.
// The caller must re-read the latest snapshot and retry.
type ConflictError struct {
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry version conflict: expected %d, at %d", e.Expected, e.Actual)
}
