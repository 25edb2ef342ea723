package lookup

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Client wraps exactly one of these.
var (
	// ErrNotFound indicates the requested record or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransport indicates the remote call failed, timed out or returned nothing.
	ErrTransport = errors.New("transport failure")

	// ErrParse indicates the remote payload could not be decoded.
	ErrParse = errors.New("malformed response")
)

// Error wraps a lookup failure with the operation and target it concerned.
type Error struct {
	Op     string // GetRecord, PutRecord, QueryRecords, FindPPPoEAccount, SetPPPoEAccountEnabled
	Module string
	ID     string
	Kind   error
	Err    error
}

func (e *Error) Error() string {
	target := e.ID
	if e.Module != "" {
		target = e.Module + "/" + e.ID
	}

	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, target, e.Kind, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, target, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func newError(op, module, id string, kind, err error) *Error {
	return &Error{Op: op, Module: module, ID: id, Kind: kind, Err: err}
}

// IsNotFound checks if an error indicates a missing record or account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport checks if an error indicates a failed remote call.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsParse checks if an error indicates a malformed remote payload.
func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}
