package document

import (
	"errors"
	"fmt"
)

// Sentinel errors for contract violations, matched with errors.Is.
var (
	ErrDuplicateID          = errors.New("duplicate unit id")
	ErrUnitNotFound         = errors.New("unit not found")
	ErrImportNotSupported   = errors.New("format does not accept imported units")
	ErrUnidentifiableFormat = errors.New("unidentifiable document format")
)

// FormatError reports a document that does not match its format.
type FormatError struct {
	Path   string
	Format Format
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s: not a valid %s document: %s", e.Path, e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func formatError(path string, f Format, err error, reason string, args ...any) *FormatError {
	return &FormatError{Path: path, Format: f, Reason: fmt.Sprintf(reason, args...), Err: err}
}

// ContractError reports misuse of the document API, such as importing an id
// twice. It wraps one of the sentinel errors.
type ContractError struct {
	Op   string
	ID   string
	Path string
	Err  error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s %q in %s: %v", e.Op, e.ID, e.Path, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }
