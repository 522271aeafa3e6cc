package domain

import (
	"errors"
	"fmt"
)

// Semantic error kinds. Adapters map these onto transport codes; ErrTemporary
// marks failures worth retrying (LLM or broker outages) as opposed to bad
// input that will fail the same way every time.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError attaches a kind and operation context while keeping both the kind
// and the cause matchable with errors.Is.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
