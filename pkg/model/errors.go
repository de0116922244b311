package model

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateCaseNumber = errors.New("duplicate case number")
	ErrInvalidState        = errors.New("invalid task state")
	ErrTaskNotFound        = errors.New("task not found")
	ErrRemoteStore         = errors.New("remote store error")
)

// DuplicateCaseNumberError rejects a task whose case number is already tracked.
type DuplicateCaseNumberError struct {
	CaseNumber string
}

func (e *DuplicateCaseNumberError) Error() string {
	return fmt.Sprintf("task with case number '%s' already exists", e.CaseNumber)
}

func (e *DuplicateCaseNumberError) Is(target error) bool {
	return target == ErrDuplicateCaseNumber
}

// InvalidStateError is returned when a transition or deletion is attempted from the wrong timer state.
type InvalidStateError struct {
	CaseNumber string
	Op         string
	State      string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s task '%s' while it is %s", e.Op, e.CaseNumber, e.State)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// RemoteStoreError wraps any failure talking to the spreadsheet.
type RemoteStoreError struct {
	Op  string
	Err error
}

func (e *RemoteStoreError) Error() string {
	return fmt.Sprintf("remote store %s failed: %v", e.Op, e.Err)
}

func (e *RemoteStoreError) Unwrap() error {
	return e.Err
}

func (e *RemoteStoreError) Is(target error) bool {
	return target == ErrRemoteStore
}

// ParseError describes a cell that could not be decoded. It never aborts a load;
// the offending field is treated as absent.
type ParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: could not parse %s '%s': %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
