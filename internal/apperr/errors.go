// Package apperr defines the error taxonomy shared across service layers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks a caller mistake: malformed bounding box, missing
	// field, out-of-range column. No state is mutated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing session, item, or backing image.
	ErrNotFound = errors.New("not found")
	// ErrCollaborator marks a failed or unparseable OCR/LLM/roster call.
	// The triggering operation aborts with prior state unchanged.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrFinalized marks a mutation attempted on an already finalized session.
	ErrFinalized = errors.New("session finalized")
)

// UnresolvedError reports a finalize attempt while items are still unresolved.
// It carries every offending item id so the caller can resolve precisely those.
type UnresolvedError struct {
	ItemIDs []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%d unresolved items remain: %s", len(e.ItemIDs), strings.Join(e.ItemIDs, ", "))
}

// Invalidf wraps ErrInvalidInput with a formatted reason.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// Collaboratorf wraps ErrCollaborator with a formatted reason.
func Collaboratorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCollaborator}, args...)...)
}
