package process

// Divider splits one input evenly across up to k outputs.
type Divider struct {
	ports
}

var _ Device = (*Divider)(nil)

// NewDivider creates a divider with k output slots.
func NewDivider(k int) *Divider {
	return &Divider{ports: newPorts(KindDivider, 1, k)}
}

func (d *Divider) Ready() bool {
	return len(d.inputs) > 0 && len(d.outputs) > 0
}

func (d *Divider) Phase() Phase {
	return d.phase(d.Ready())
}

// UpdateOutputs sets each output to the input flow divided by the number of
// connected outputs.
func (d *Divider) UpdateOutputs() error {
	if len(d.inputs) == 0 {
		return preconditionError(d.kind, SlotInput, d.inputCapacity, "divider needs an input before update")
	}
	if len(d.outputs) == 0 {
		return preconditionError(d.kind, SlotOutput, d.outputCapacity, "divider needs outputs before update")
	}

	d.setOutputs(d.inputs[0].MassFlow() / float64(len(d.outputs)))
	return nil
}
