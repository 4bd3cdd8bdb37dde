package process

// Stream is a named carrier of one mass-flow value.
//
// The zero value is a usable unnamed stream with zero flow.
type Stream struct {
	name     string
	massFlow float64
}

// NewStream creates a stream with a caller-assigned name.
func NewStream(name string) *Stream {
	return &Stream{name: name}
}

// NewNamedStream creates a stream named by the next value of namer.
func NewNamedStream(namer Namer) *Stream {
	return NewStream(namer.Next())
}

// SetName replaces the stream name.
func (s *Stream) SetName(name string) {
	s.name = name
}

// Name returns the stream name.
func (s *Stream) Name() string {
	return s.name
}

// SetMassFlow replaces the mass-flow value. Negative values are accepted.
func (s *Stream) SetMassFlow(m float64) {
	s.massFlow = m
}

// MassFlow returns the current mass-flow value (zero until first set).
func (s *Stream) MassFlow() float64 {
	return s.massFlow
}
