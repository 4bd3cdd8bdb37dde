// Package network builds a runnable flow network from a compiled sheet and
// evaluates it in a single pass.
//
// Devices are updated in dependency order: every device that writes a stream
// runs before the devices reading it. The order is computed once at build
// time; devices with no dependency between them keep declaration order.
package network

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/chemflow/internal/process"
	"github.com/roach88/chemflow/internal/sheet"
)

// ErrUnknownStream is returned by Set for a name the sheet does not declare.
var ErrUnknownStream = errors.New("unknown stream")

// Network is a wired set of streams and devices.
type Network struct {
	name     string
	hash     string
	streams  []*process.Stream // declaration order
	byName   map[string]*process.Stream
	ids      []string         // declaration order
	devices  []process.Device // parallel to ids
	order    []int            // evaluation order, indices into devices
	validate bool
	logger   *slog.Logger
}

// Option configures Build.
type Option func(*Network)

// WithLogger sets the logger used for per-device debug output.
func WithLogger(l *slog.Logger) Option {
	return func(n *Network) {
		n.logger = l
	}
}

// WithoutValidation skips sheet validation. Connection errors then come
// straight from the devices.
func WithoutValidation() Option {
	return func(n *Network) {
		n.validate = false
	}
}

// InvalidSheetError carries the validation errors that stopped a build.
type InvalidSheetError struct {
	Errors []sheet.ValidationError
}

func (e *InvalidSheetError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid sheet: " + e.Errors[0].Error()
	}
	return fmt.Sprintf("invalid sheet: %s (and %d more)", e.Errors[0].Error(), len(e.Errors)-1)
}

// DeviceError attributes a device failure to the device's sheet ID.
type DeviceError struct {
	Device string
	Op     string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s: %s: %v", e.Device, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Build creates the streams and devices of s and connects them in declared
// slot order. The sheet is validated first unless WithoutValidation is given.
func Build(s *sheet.Sheet, opts ...Option) (*Network, error) {
	n := &Network{
		name:     s.Name,
		byName:   make(map[string]*process.Stream, len(s.Streams)),
		validate: true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.validate {
		if errs := sheet.Validate(s); len(errs) > 0 {
			return nil, &InvalidSheetError{Errors: errs}
		}
	}

	hash, err := sheet.Hash(s)
	if err != nil {
		return nil, err
	}
	n.hash = hash

	for _, spec := range s.Streams {
		st := process.NewStream(spec.Name)
		if spec.HasFlow {
			st.SetMassFlow(spec.MassFlow)
		}
		n.streams = append(n.streams, st)
		n.byName[spec.Name] = st
	}

	for _, spec := range s.Devices {
		d, err := newDevice(spec)
		if err != nil {
			return nil, err
		}
		if err := n.connect(spec, d); err != nil {
			return nil, err
		}
		n.ids = append(n.ids, spec.ID)
		n.devices = append(n.devices, d)
	}

	order, err := s.Order()
	if err != nil {
		return nil, err
	}
	n.order = order

	return n, nil
}

func newDevice(spec sheet.DeviceSpec) (process.Device, error) {
	in, out := spec.Capacities()
	switch process.Kind(spec.Kind) {
	case process.KindMixer:
		return process.NewMixer(in), nil
	case process.KindDivider:
		return process.NewDivider(out), nil
	case process.KindReactor:
		return process.NewReactor(spec.Double), nil
	default:
		return nil, &DeviceError{Device: spec.ID, Op: "create", Err: fmt.Errorf("unknown kind %q", spec.Kind)}
	}
}

func (n *Network) connect(spec sheet.DeviceSpec, d process.Device) error {
	for _, name := range spec.Inputs {
		st, err := n.lookup(name)
		if err != nil {
			return &DeviceError{Device: spec.ID, Op: "add input", Err: err}
		}
		if err := d.AddInput(st); err != nil {
			return &DeviceError{Device: spec.ID, Op: fmt.Sprintf("add input %q", name), Err: err}
		}
	}
	for _, name := range spec.Outputs {
		st, err := n.lookup(name)
		if err != nil {
			return &DeviceError{Device: spec.ID, Op: "add output", Err: err}
		}
		if err := d.AddOutput(st); err != nil {
			return &DeviceError{Device: spec.ID, Op: fmt.Sprintf("add output %q", name), Err: err}
		}
	}
	return nil
}

func (n *Network) lookup(name string) (*process.Stream, error) {
	st, ok := n.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStream, name)
	}
	return st, nil
}

// Name returns the sheet name.
func (n *Network) Name() string { return n.name }

// SheetHash returns the content hash of the sheet the network was built from.
func (n *Network) SheetHash() string { return n.hash }

// Stream returns the stream with the given name.
func (n *Network) Stream(name string) (*process.Stream, bool) {
	st, ok := n.byName[name]
	return st, ok
}

// Device returns the device with the given sheet ID.
func (n *Network) Device(id string) (process.Device, bool) {
	for i, d := range n.devices {
		if n.ids[i] == id {
			return d, true
		}
	}
	return nil, false
}

// Order returns device IDs in evaluation order.
func (n *Network) Order() []string {
	ids := make([]string, len(n.order))
	for i, idx := range n.order {
		ids[i] = n.ids[idx]
	}
	return ids
}

// Set overrides the mass flow of a stream before a run.
func (n *Network) Set(name string, value float64) error {
	st, err := n.lookup(name)
	if err != nil {
		return err
	}
	st.SetMassFlow(value)
	return nil
}

// Run updates every device once in evaluation order and returns the
// resulting stream values. It stops at the first device error; streams
// already written keep their new values.
func (n *Network) Run() (*Result, error) {
	for _, idx := range n.order {
		id, d := n.ids[idx], n.devices[idx]
		if err := d.UpdateOutputs(); err != nil {
			n.logger.Debug("device update failed",
				"device", id,
				"kind", d.Kind(),
				"error", err,
			)
			return nil, &DeviceError{Device: id, Op: "update outputs", Err: err}
		}
		in, out := process.Totals(d)
		n.logger.Debug("device updated",
			"device", id,
			"kind", d.Kind(),
			"in", in,
			"out", out,
		)
	}
	return n.result(), nil
}

func (n *Network) result() *Result {
	r := &Result{
		Sheet:     n.name,
		SheetHash: n.hash,
		Order:     n.Order(),
	}
	for _, st := range n.streams {
		r.Streams = append(r.Streams, StreamValue{Name: st.Name(), MassFlow: st.MassFlow()})
	}
	for i, d := range n.devices {
		in, out := process.Totals(d)
		r.Devices = append(r.Devices, DeviceBalance{
			ID:   n.ids[i],
			Kind: string(d.Kind()),
			In:   in,
			Out:  out,
		})
	}
	return r
}
