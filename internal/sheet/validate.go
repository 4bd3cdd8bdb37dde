package sheet

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/chemflow/internal/process"
)

// Validation error codes (E201-E208)
const (
	ErrUnknownKind       = "E201" // kind is not mixer, divider or reactor
	ErrUndefinedStream   = "E202" // device references an undeclared stream
	ErrCapacityExceeded  = "E203" // more streams listed than slots
	ErrMultipleProducers = "E204" // stream written by two devices
	ErrDuplicateStream   = "E205" // stream listed twice on one device
	ErrNegativeCapacity  = "E206" // input_count or output_count below zero
	ErrCycle             = "E207" // self-loop or cycle
	ErrNoDevices         = "E208" // sheet has no devices
)

// ValidationError represents a flowsheet validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled sheet.
// Returns all errors found (does not fail-fast).
func Validate(s *Sheet) []ValidationError {
	var errs []ValidationError

	if len(s.Devices) == 0 {
		errs = append(errs, ValidationError{
			Field:   "device",
			Message: "sheet declares no devices",
			Code:    ErrNoDevices,
		})
		return errs
	}

	declared := make(map[string]bool, len(s.Streams))
	for _, st := range s.Streams {
		declared[st.Name] = true
	}

	producer := make(map[string]string)
	for _, d := range s.Devices {
		errs = append(errs, validateDevice(d, declared)...)

		for _, name := range d.Outputs {
			if first, ok := producer[name]; ok && first != d.ID {
				errs = append(errs, ValidationError{
					Field:   "device." + d.ID + ".outputs",
					Message: fmt.Sprintf("stream %q is already produced by device %q", name, first),
					Code:    ErrMultipleProducers,
					Line:    d.Pos.Line(),
				})
				continue
			}
			producer[name] = d.ID
		}
	}

	if _, err := s.Order(); err != nil {
		ve := ValidationError{Field: "device", Message: err.Error(), Code: ErrCycle}
		var self *SelfLoopError
		if errors.As(err, &self) {
			ve.Field = "device." + self.Device
			if d, ok := s.Device(self.Device); ok {
				ve.Line = d.Pos.Line()
			}
		}
		errs = append(errs, ve)
	}

	return errs
}

func validateDevice(d DeviceSpec, declared map[string]bool) []ValidationError {
	var errs []ValidationError
	field := "device." + d.ID
	line := d.Pos.Line()

	if !slices.Contains(process.Kinds, process.Kind(d.Kind)) {
		return append(errs, ValidationError{
			Field:   field + ".kind",
			Message: fmt.Sprintf("unknown device kind %q (must be mixer, divider or reactor)", d.Kind),
			Code:    ErrUnknownKind,
			Line:    line,
		})
	}

	counts := []struct {
		name  string
		value *int
	}{
		{"input_count", d.InputCount},
		{"output_count", d.OutputCount},
	}
	for _, c := range counts {
		if c.value != nil && *c.value < 0 {
			errs = append(errs, ValidationError{
				Field:   field + "." + c.name,
				Message: fmt.Sprintf("%s must not be negative, got %d", c.name, *c.value),
				Code:    ErrNegativeCapacity,
				Line:    line,
			})
		}
	}

	in, out := d.Capacities()
	errs = append(errs, validateSlots(field+".inputs", d.Inputs, max(in, 0), declared, line)...)
	errs = append(errs, validateSlots(field+".outputs", d.Outputs, max(out, 0), declared, line)...)

	seen := make(map[string]bool, len(d.Inputs)+len(d.Outputs))
	for _, name := range slices.Concat(d.Inputs, d.Outputs) {
		if seen[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("stream %q is listed more than once", name),
				Code:    ErrDuplicateStream,
				Line:    line,
			})
			continue
		}
		seen[name] = true
	}

	return errs
}

func validateSlots(field string, names []string, capacity int, declared map[string]bool, line int) []ValidationError {
	var errs []ValidationError

	if len(names) > capacity {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%d streams listed but the device has %d slots", len(names), capacity),
			Code:    ErrCapacityExceeded,
			Line:    line,
		})
	}

	for _, name := range names {
		if !declared[name] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("stream %q is not declared", name),
				Code:    ErrUndefinedStream,
				Line:    line,
			})
		}
	}

	return errs
}
