package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/chemflow/internal/network"
	"github.com/roach88/chemflow/internal/process"
	"github.com/roach88/chemflow/internal/sheet"
	"github.com/roach88/chemflow/internal/testutil"
)

// Harness is the scenario execution engine.
// Each scenario gets its own harness, so no state leaks between scenarios.
type Harness struct {
	seq     *testutil.Sequence
	namer   process.Namer
	net     *network.Network // nil when the scenario has no sheet
	devices map[string]process.Device
	streams map[string]*process.Stream
	names   []string // stream names in declaration order
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used for per-step debug output.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build the sheet (if any) into a wired network
// 2. Create the scenario's extra streams and devices
// 3. Execute steps, comparing each outcome with its expect clause
// 4. Evaluate assertions against the final state
//
// Mismatched outcomes and failed assertions are reported in the result.
// An error is returned only when the scenario cannot be executed at all.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		seq:     testutil.NewSequence(),
		namer:   process.NewSequenceNamer("s"),
		devices: make(map[string]process.Device),
		streams: make(map[string]*process.Stream),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.buildWorld(scenario); err != nil {
		return nil, fmt.Errorf("failed to build scenario world: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for _, name := range h.names {
		result.State[name] = h.streams[name].MassFlow()
	}

	actx := &AssertionContext{
		Devices: h.devices,
		Streams: h.streams,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) buildWorld(scenario *Scenario) error {
	if scenario.Sheet != "" {
		s, err := sheet.Load(scenario.Sheet)
		if err != nil {
			return err
		}
		net, err := network.Build(s, network.WithLogger(h.logger))
		if err != nil {
			return err
		}
		h.net = net

		for _, spec := range s.Streams {
			st, _ := net.Stream(spec.Name)
			if err := h.addStream(st); err != nil {
				return err
			}
		}
		for _, spec := range s.Devices {
			d, _ := net.Device(spec.ID)
			h.devices[spec.ID] = d
		}
	}

	for _, decl := range scenario.Streams {
		var st *process.Stream
		if decl.Name == "" {
			st = process.NewNamedStream(h.namer)
		} else {
			st = process.NewStream(decl.Name)
		}
		st.SetMassFlow(decl.MassFlow)
		if err := h.addStream(st); err != nil {
			return err
		}
	}

	for _, decl := range scenario.Devices {
		if _, ok := h.devices[decl.ID]; ok {
			return fmt.Errorf("device %q is already declared by the sheet", decl.ID)
		}
		d, err := newDevice(decl)
		if err != nil {
			return err
		}
		h.devices[decl.ID] = d
	}

	return nil
}

func (h *Harness) addStream(st *process.Stream) error {
	if _, ok := h.streams[st.Name()]; ok {
		return fmt.Errorf("stream %q is declared twice", st.Name())
	}
	h.streams[st.Name()] = st
	h.names = append(h.names, st.Name())
	return nil
}

func newDevice(decl DeviceDecl) (process.Device, error) {
	switch process.Kind(decl.Kind) {
	case process.KindMixer:
		return process.NewMixer(decl.InputCount), nil
	case process.KindDivider:
		return process.NewDivider(decl.OutputCount), nil
	case process.KindReactor:
		return process.NewReactor(decl.Double), nil
	default:
		return nil, fmt.Errorf("device %q: unknown kind %q", decl.ID, decl.Kind)
	}
}

// executeStep runs one step, records it in the trace and compares its
// outcome with the expect clause. Unknown device or stream references are
// scenario bugs and abort the run.
func (h *Harness) executeStep(i int, step Step, result *Result) error {
	event := TraceEvent{
		Seq:    h.seq.Next(),
		Op:     step.Op,
		Device: step.Device,
		Stream: step.Stream,
		Index:  step.Index,
		Value:  step.Value,
	}

	var d process.Device
	if step.Device != "" {
		var ok bool
		if d, ok = h.devices[step.Device]; !ok {
			return fmt.Errorf("unknown device %q", step.Device)
		}
	}
	var st *process.Stream
	if step.Stream != "" && step.Op != OpGetInput && step.Op != OpGetOutput {
		var ok bool
		if st, ok = h.streams[step.Stream]; !ok {
			return fmt.Errorf("unknown stream %q", step.Stream)
		}
	}

	var err error
	switch step.Op {
	case OpAddInput:
		err = d.AddInput(st)
	case OpAddOutput:
		err = d.AddOutput(st)
	case OpUpdate:
		if err = d.UpdateOutputs(); err == nil {
			event.Flows = outputFlows(d)
		}
	case OpSetMassFlow:
		st.SetMassFlow(*step.Value)
	case OpRun:
		if h.net == nil {
			return fmt.Errorf("run requires a sheet")
		}
		var r *network.Result
		if r, err = h.net.Run(); err == nil {
			event.Flows = make(map[string]float64, len(r.Streams))
			for _, sv := range r.Streams {
				event.Flows[sv.Name] = sv.MassFlow
			}
		}
	case OpGetInput, OpGetOutput:
		var got *process.Stream
		if step.Op == OpGetInput {
			got, err = d.Input(*step.Index)
		} else {
			got, err = d.Output(*step.Index)
		}
		if err == nil {
			event.Stream = got.Name()
		}
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	event.Outcome = outcomeOf(err)
	result.AddTrace(event)

	h.logger.Debug("step executed",
		"seq", event.Seq,
		"op", step.Op,
		"device", step.Device,
		"stream", step.Stream,
		"outcome", event.Outcome,
	)

	expected := OutcomeOK
	if step.Expect != nil {
		expected = step.Expect.Error
	}
	if event.Outcome != expected {
		msg := fmt.Sprintf("steps[%d] %s: expected %s, got %s", i, step.Op, expected, event.Outcome)
		if err != nil {
			msg += ": " + err.Error()
		}
		result.AddError(msg)
	}

	return nil
}

func outputFlows(d process.Device) map[string]float64 {
	flows := make(map[string]float64, d.OutputCount())
	for i := 0; i < d.OutputCount(); i++ {
		out, _ := d.Output(i)
		flows[out.Name()] = out.MassFlow()
	}
	return flows
}

// outcomeOf maps a device error to its scenario outcome name.
func outcomeOf(err error) string {
	if err == nil {
		return OutcomeOK
	}
	switch process.CodeOf(err) {
	case process.ErrCodeCapacityExceeded:
		return OutcomeCapacityExceeded
	case process.ErrCodePreconditionViolation:
		return OutcomePreconditionViolation
	case process.ErrCodeIndexOutOfRange:
		return OutcomeIndexOutOfRange
	default:
		return OutcomeError
	}
}
