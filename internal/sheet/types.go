package sheet

import (
	"cuelang.org/go/cue/token"

	"github.com/roach88/chemflow/internal/process"
	"github.com/roach88/chemflow/internal/report"
)

// Sheet is a compiled flowsheet.
type Sheet struct {
	Name    string       `json:"name"`
	Streams []StreamSpec `json:"streams"`
	Devices []DeviceSpec `json:"devices"`
}

// StreamSpec declares one stream.
type StreamSpec struct {
	Name string `json:"name"`

	// MassFlow is the initial value; only meaningful when HasFlow is set.
	MassFlow float64 `json:"mass_flow,omitempty"`
	HasFlow  bool    `json:"-"`

	Pos token.Pos `json:"-"`
}

// DeviceSpec declares one device and its connections.
type DeviceSpec struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`

	// InputCount overrides the mixer capacity; nil means len(Inputs).
	InputCount *int `json:"input_count,omitempty"`
	// OutputCount overrides the divider capacity; nil means len(Outputs).
	OutputCount *int `json:"output_count,omitempty"`
	Double      bool `json:"double,omitempty"`

	Pos token.Pos `json:"-"`
}

// Capacities returns the input and output slot counts the device will be
// constructed with. Unknown kinds have no slots.
func (d DeviceSpec) Capacities() (in, out int) {
	switch process.Kind(d.Kind) {
	case process.KindMixer:
		in = len(d.Inputs)
		if d.InputCount != nil {
			in = *d.InputCount
		}
		return in, process.MixerOutputs
	case process.KindDivider:
		out = len(d.Outputs)
		if d.OutputCount != nil {
			out = *d.OutputCount
		}
		return 1, out
	case process.KindReactor:
		if d.Double {
			return 1, 2
		}
		return 1, 1
	default:
		return 0, 0
	}
}

// Stream returns the stream declared under name.
func (s *Sheet) Stream(name string) (StreamSpec, bool) {
	for _, st := range s.Streams {
		if st.Name == name {
			return st, true
		}
	}
	return StreamSpec{}, false
}

// Device returns the device declared under id.
func (s *Sheet) Device(id string) (DeviceSpec, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return DeviceSpec{}, false
}

// Canonical returns the sheet as a value accepted by report.MarshalCanonical.
func (s *Sheet) Canonical() map[string]any {
	streams := make([]any, len(s.Streams))
	for i, st := range s.Streams {
		m := map[string]any{"name": st.Name}
		if st.HasFlow {
			m["mass_flow"] = st.MassFlow
		}
		streams[i] = m
	}

	devices := make([]any, len(s.Devices))
	for i, d := range s.Devices {
		in, out := d.Capacities()
		devices[i] = map[string]any{
			"id":              d.ID,
			"kind":            d.Kind,
			"inputs":          append([]string{}, d.Inputs...),
			"outputs":         append([]string{}, d.Outputs...),
			"input_capacity":  in,
			"output_capacity": out,
		}
	}

	return map[string]any{
		"streams": streams,
		"devices": devices,
	}
}

// Hash returns the content hash of the sheet's streams and devices. The
// sheet name does not contribute.
func Hash(s *Sheet) (string, error) {
	return report.Hash(report.DomainSheet, s.Canonical())
}
