package process

// MixerOutputs is the fixed output capacity of every mixer.
const MixerOutputs = 1

// Mixer combines up to n inputs into one output.
type Mixer struct {
	ports
}

var _ Device = (*Mixer)(nil)

// NewMixer creates a mixer accepting n inputs.
func NewMixer(n int) *Mixer {
	return &Mixer{ports: newPorts(KindMixer, n, MixerOutputs)}
}

// Ready reports whether an output is connected. Inputs are optional; an
// unfed mixer produces zero.
func (m *Mixer) Ready() bool {
	return len(m.outputs) > 0
}

func (m *Mixer) Phase() Phase {
	return m.phase(m.Ready())
}

// UpdateOutputs sets each output to the summed input flow divided by the
// number of connected outputs.
func (m *Mixer) UpdateOutputs() error {
	if len(m.outputs) == 0 {
		return preconditionError(m.kind, SlotOutput, m.outputCapacity, "mixer needs an output before update")
	}

	var sum float64
	for _, in := range m.inputs {
		sum += in.MassFlow()
	}
	m.setOutputs(sum / float64(len(m.outputs)))
	return nil
}
