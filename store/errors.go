package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrCycle      = errors.New("move would create a cycle")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage failure")
)

type (
	// ValidationError indicates invalid input at the store boundary.
	ValidationError struct {
		Message string
	}

	// CycleError indicates a folder would become its own ancestor.
	CycleError struct {
		NodeID   string
		ParentID string
	}

	NotFoundError struct {
		ID string
	}

	// StorageIOError wraps a failed read or write of the persisted collection.
	StorageIOError struct {
		Op  string
		Err error
	}
)

func (e *ValidationError) Error() string { return e.Message }
func (e *CycleError) Error() string {
	return fmt.Sprintf("cannot move %s under %s: a folder cannot be moved into itself or its descendants", e.NodeID, e.ParentID)
}
func (e *NotFoundError) Error() string  { return fmt.Sprintf("item %s not found", e.ID) }
func (e *StorageIOError) Error() string { return fmt.Sprintf("%s items: %v", e.Op, e.Err) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *CycleError) Is(target error) bool      { return target == ErrCycle }
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *StorageIOError) Is(target error) bool  { return target == ErrStorage }
func (e *StorageIOError) Unwrap() error         { return e.Err }
