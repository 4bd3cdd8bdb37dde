package process

// Kind names a device variant.
type Kind string

const (
	KindMixer   Kind = "mixer"
	KindDivider Kind = "divider"
	KindReactor Kind = "reactor"
)

// Kinds lists every device variant in a stable order.
var Kinds = []Kind{KindMixer, KindDivider, KindReactor}

// Phase is the informational lifecycle of a device. No phase blocks any
// operation.
type Phase string

const (
	// PhaseConnecting: the slots the variant needs are not all filled yet.
	PhaseConnecting Phase = "connecting"
	// PhaseReady: UpdateOutputs will succeed.
	PhaseReady Phase = "ready"
	// PhaseComputed: the last UpdateOutputs succeeded and no stream has been
	// connected since.
	PhaseComputed Phase = "computed"
)

// Device is the contract shared by Mixer, Divider and Reactor.
type Device interface {
	Kind() Kind

	// AddInput appends s to the inputs, or fails with CapacityExceeded.
	AddInput(s *Stream) error
	// AddOutput appends s to the outputs, or fails with CapacityExceeded.
	AddOutput(s *Stream) error

	// Input returns the input at index, or fails with IndexOutOfRange.
	Input(index int) (*Stream, error)
	// Output returns the output at index, or fails with IndexOutOfRange.
	Output(index int) (*Stream, error)

	InputCount() int
	OutputCount() int
	InputCapacity() int
	OutputCapacity() int

	// UpdateOutputs overwrites every output flow from the current input
	// flows. On failure no stream is modified.
	UpdateOutputs() error

	// Ready reports whether UpdateOutputs would succeed.
	Ready() bool
	Phase() Phase
}

// ports holds the connection state every variant embeds.
type ports struct {
	kind           Kind
	inputCapacity  int
	outputCapacity int
	inputs         []*Stream
	outputs        []*Stream
	computed       bool
}

func newPorts(kind Kind, inputCapacity, outputCapacity int) ports {
	return ports{
		kind:           kind,
		inputCapacity:  max(inputCapacity, 0),
		outputCapacity: max(outputCapacity, 0),
	}
}

func (p *ports) Kind() Kind {
	return p.kind
}

func (p *ports) AddInput(s *Stream) error {
	if len(p.inputs) >= p.inputCapacity {
		return capacityError(p.kind, SlotInput, p.inputCapacity)
	}
	p.inputs = append(p.inputs, s)
	p.computed = false
	return nil
}

func (p *ports) AddOutput(s *Stream) error {
	if len(p.outputs) >= p.outputCapacity {
		return capacityError(p.kind, SlotOutput, p.outputCapacity)
	}
	p.outputs = append(p.outputs, s)
	p.computed = false
	return nil
}

func (p *ports) Input(index int) (*Stream, error) {
	if index < 0 || index >= len(p.inputs) {
		return nil, indexError(p.kind, SlotInput, index, len(p.inputs), p.inputCapacity)
	}
	return p.inputs[index], nil
}

func (p *ports) Output(index int) (*Stream, error) {
	if index < 0 || index >= len(p.outputs) {
		return nil, indexError(p.kind, SlotOutput, index, len(p.outputs), p.outputCapacity)
	}
	return p.outputs[index], nil
}

func (p *ports) InputCount() int     { return len(p.inputs) }
func (p *ports) OutputCount() int    { return len(p.outputs) }
func (p *ports) InputCapacity() int  { return p.inputCapacity }
func (p *ports) OutputCapacity() int { return p.outputCapacity }

func (p *ports) phase(ready bool) Phase {
	switch {
	case p.computed:
		return PhaseComputed
	case ready:
		return PhaseReady
	default:
		return PhaseConnecting
	}
}

// setOutputs writes m to every connected output.
func (p *ports) setOutputs(m float64) {
	for _, out := range p.outputs {
		out.SetMassFlow(m)
	}
	p.computed = true
}

// Totals returns the summed input and output flows of d. For a successfully
// updated device the two agree within floating-point rounding.
func Totals(d Device) (in, out float64) {
	for i := 0; i < d.InputCount(); i++ {
		s, _ := d.Input(i)
		in += s.MassFlow()
	}
	for i := 0; i < d.OutputCount(); i++ {
		s, _ := d.Output(i)
		out += s.MassFlow()
	}
	return in, out
}
