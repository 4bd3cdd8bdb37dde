package process

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes device failures.
type ErrorCode string

const (
	// ErrCodeCapacityExceeded indicates AddInput/AddOutput on a full slot list.
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"

	// ErrCodePreconditionViolation indicates UpdateOutputs was called before
	// the slots the variant needs were connected.
	ErrCodePreconditionViolation ErrorCode = "PRECONDITION_VIOLATION"

	// ErrCodeIndexOutOfRange indicates a positional access with no connected
	// stream behind it.
	ErrCodeIndexOutOfRange ErrorCode = "INDEX_OUT_OF_RANGE"
)

// Slot identifies the input or output side of a device.
type Slot string

const (
	SlotInput  Slot = "input"
	SlotOutput Slot = "output"
)

// Error is returned by every failing device operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Device is the kind of device that failed.
	Device Kind

	// Slot is the side involved.
	Slot Slot

	// Index is the attempted position (IndexOutOfRange), or the position the
	// rejected stream would have taken (CapacityExceeded). -1 when unused.
	Index int

	// Capacity is the declared capacity of Slot.
	Capacity int
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeCapacityExceeded:
		return fmt.Sprintf("%s: %s (device=%s, %s limit=%d)", e.Code, e.Message, e.Device, e.Slot, e.Capacity)
	case ErrCodeIndexOutOfRange:
		return fmt.Sprintf("%s: %s (device=%s, %s index=%d)", e.Code, e.Message, e.Device, e.Slot, e.Index)
	default:
		return fmt.Sprintf("%s: %s (device=%s)", e.Code, e.Message, e.Device)
	}
}

// IsCapacityExceeded reports whether err is a capacity error.
func IsCapacityExceeded(err error) bool {
	return hasCode(err, ErrCodeCapacityExceeded)
}

// IsPreconditionViolation reports whether err is a precondition error.
func IsPreconditionViolation(err error) bool {
	return hasCode(err, ErrCodePreconditionViolation)
}

// IsIndexOutOfRange reports whether err is an index error.
func IsIndexOutOfRange(err error) bool {
	return hasCode(err, ErrCodeIndexOutOfRange)
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func capacityError(kind Kind, slot Slot, capacity int) *Error {
	return &Error{
		Code:     ErrCodeCapacityExceeded,
		Message:  fmt.Sprintf("%s stream limit reached", slot),
		Device:   kind,
		Slot:     slot,
		Index:    capacity,
		Capacity: capacity,
	}
}

func indexError(kind Kind, slot Slot, index, connected, capacity int) *Error {
	return &Error{
		Code:     ErrCodeIndexOutOfRange,
		Message:  fmt.Sprintf("no %s stream at index %d (%d connected)", slot, index, connected),
		Device:   kind,
		Slot:     slot,
		Index:    index,
		Capacity: capacity,
	}
}

func preconditionError(kind Kind, slot Slot, capacity int, msg string) *Error {
	return &Error{
		Code:     ErrCodePreconditionViolation,
		Message:  msg,
		Device:   kind,
		Slot:     slot,
		Index:    -1,
		Capacity: capacity,
	}
}
