package sheet

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileSheet parses a CUE value holding a flowsheet into a Sheet.
// Uses the CUE Go API directly.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`stream: a: mass_flow: 1.0`)
//	s, err := CompileSheet(v)
//
// Structural problems (wrong types, missing kind) are compile errors.
// Semantic problems are left to Validate.
func CompileSheet(v cue.Value) (*Sheet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Sheet{}

	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		s.Name = name
	}

	var err error
	s.Streams, err = parseStreams(v)
	if err != nil {
		return nil, err
	}

	s.Devices, err = parseDevices(v)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func parseStreams(v cue.Value) ([]StreamSpec, error) {
	streamsVal := v.LookupPath(cue.ParsePath("stream"))
	if !streamsVal.Exists() {
		return nil, nil
	}

	iter, err := streamsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var streams []StreamSpec
	for iter.Next() {
		sv := iter.Value()
		st := StreamSpec{
			Name: iter.Selector().Unquoted(),
			Pos:  sv.Pos(),
		}

		if mf := sv.LookupPath(cue.ParsePath("mass_flow")); mf.Exists() {
			if k := mf.IncompleteKind(); k&cue.NumberKind == 0 {
				return nil, &CompileError{
					Field:   "stream." + st.Name + ".mass_flow",
					Message: fmt.Sprintf("mass_flow must be a number, got %v", k),
					Pos:     mf.Pos(),
				}
			}
			f, err := mf.Float64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			st.MassFlow = f
			st.HasFlow = true
		}

		streams = append(streams, st)
	}

	return streams, nil
}

func parseDevices(v cue.Value) ([]DeviceSpec, error) {
	devicesVal := v.LookupPath(cue.ParsePath("device"))
	if !devicesVal.Exists() {
		return nil, nil
	}

	iter, err := devicesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var devices []DeviceSpec
	for iter.Next() {
		d, err := parseDevice(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}

	return devices, nil
}

func parseDevice(id string, v cue.Value) (*DeviceSpec, error) {
	d := &DeviceSpec{ID: id, Pos: v.Pos()}
	field := "device." + id

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	d.Kind = kind

	if d.Inputs, err = parseNames(v, "inputs"); err != nil {
		return nil, err
	}
	if d.Outputs, err = parseNames(v, "outputs"); err != nil {
		return nil, err
	}

	if d.InputCount, err = parseCount(v, "input_count"); err != nil {
		return nil, err
	}
	if d.OutputCount, err = parseCount(v, "output_count"); err != nil {
		return nil, err
	}

	if dv := v.LookupPath(cue.ParsePath("double")); dv.Exists() {
		b, err := dv.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d.Double = b
	}

	return d, nil
}

// parseNames reads a list of stream names. A missing field is an empty list.
func parseNames(v cue.Value, field string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(field))
	if !lv.Exists() {
		return nil, nil
	}

	list, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var names []string
	for list.Next() {
		name, err := list.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		names = append(names, name)
	}
	return names, nil
}

func parseCount(v cue.Value, field string) (*int, error) {
	cv := v.LookupPath(cue.ParsePath(field))
	if !cv.Exists() {
		return nil, nil
	}
	n, err := cv.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}
	c := int(n)
	return &c, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
