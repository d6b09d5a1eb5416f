package notes

import "errors"

var (
	ErrNotesDisabled = errors.New("note writes are not configured")
	ErrNoteNotFound  = errors.New("note not found")
	ErrEmptyMessage  = errors.New("note message is empty")
)
