package process

// Reactor passes one input through to one output, or two for a double
// reactor.
//
// Unlike Mixer and Divider, the split is by declared output capacity: every
// declared output slot must be connected before UpdateOutputs.
type Reactor struct {
	ports
	double bool
}

var _ Device = (*Reactor)(nil)

// NewReactor creates a single (one output) or double (two outputs) reactor.
func NewReactor(double bool) *Reactor {
	outputs := 1
	if double {
		outputs = 2
	}
	return &Reactor{ports: newPorts(KindReactor, 1, outputs), double: double}
}

// Double reports whether the reactor has two output slots.
func (r *Reactor) Double() bool {
	return r.double
}

func (r *Reactor) Ready() bool {
	return len(r.inputs) == r.inputCapacity && len(r.outputs) == r.outputCapacity
}

func (r *Reactor) Phase() Phase {
	return r.phase(r.Ready())
}

// UpdateOutputs sets output i, for every i below the declared capacity, to
// input * (1 / capacity). A missing input or output slot fails with
// IndexOutOfRange before anything is written.
func (r *Reactor) UpdateOutputs() error {
	in, err := r.Input(0)
	if err != nil {
		return err
	}
	if len(r.outputs) < r.outputCapacity {
		return indexError(r.kind, SlotOutput, len(r.outputs), len(r.outputs), r.outputCapacity)
	}

	share := in.MassFlow() * (1.0 / float64(r.outputCapacity))
	for i := 0; i < r.outputCapacity; i++ {
		r.outputs[i].SetMassFlow(share)
	}
	r.computed = true
	return nil
}
