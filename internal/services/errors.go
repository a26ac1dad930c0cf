package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced at operation boundaries. Every failure here is
// recoverable by retrying the user action.
var (
	ErrUnknownSlot      = errors.New("unknown document slot")
	ErrSlotBusy         = errors.New("an upload for this slot is already in flight")
	ErrEmptySlot        = errors.New("no document uploaded for this slot")
	ErrAlreadyConverted = errors.New("prospect has already been converted")
)

// UploadError reports a blob-store rejection. No metadata record is written
// when an UploadError occurs, so the slot keeps its prior state.
type UploadError struct {
	SlotID string
	Err    error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload failed for slot %s: %v", e.SlotID, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// WriteError reports a store write that did not land.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
