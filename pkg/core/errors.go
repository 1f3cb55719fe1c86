package core

import "errors"

// Common errors.
var (
	ErrReadOnly  = errors.New("repository is in read-only mode")
	ErrNotFound  = errors.New("note not found")
	ErrAmbiguous = errors.New("note reference is ambiguous")
	ErrTxClosed  = errors.New("transaction closed")
)
