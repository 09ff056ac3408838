package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrSegmentNotFound = errors.New("segment not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrModelNotReady   = errors.New("vectorizer model not ready")
	ErrClustering      = errors.New("clustering failed")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
