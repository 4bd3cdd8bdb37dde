package network

import (
	"math"

	"github.com/roach88/chemflow/internal/process"
	"github.com/roach88/chemflow/internal/report"
)

// DefaultTolerance is the absolute tolerance for balance checks.
const DefaultTolerance = 0.01

// Result is the state of a network after a run.
type Result struct {
	Sheet     string          `json:"sheet"`
	SheetHash string          `json:"sheet_hash"`
	Order     []string        `json:"order"`
	Streams   []StreamValue   `json:"streams"`
	Devices   []DeviceBalance `json:"devices"`
}

// StreamValue is one stream after a run.
type StreamValue struct {
	Name     string  `json:"name"`
	MassFlow float64 `json:"mass_flow"`
}

// DeviceBalance is the total flow in and out of one device.
type DeviceBalance struct {
	ID   string  `json:"id"`
	Kind string  `json:"kind"`
	In   float64 `json:"in"`
	Out  float64 `json:"out"`
}

// Conserved reports whether in and out agree within tol.
func (b DeviceBalance) Conserved(tol float64) bool {
	return math.Abs(b.In-b.Out) <= tol
}

// MassFlow returns the value of the named stream.
func (r *Result) MassFlow(name string) (float64, bool) {
	for _, s := range r.Streams {
		if s.Name == name {
			return s.MassFlow, true
		}
	}
	return 0, false
}

// Canonical returns the result as a value accepted by report.MarshalCanonical.
func (r *Result) Canonical() map[string]any {
	streams := make([]any, len(r.Streams))
	for i, s := range r.Streams {
		streams[i] = map[string]any{"name": s.Name, "mass_flow": s.MassFlow}
	}
	devices := make([]any, len(r.Devices))
	for i, d := range r.Devices {
		devices[i] = map[string]any{"id": d.ID, "kind": d.Kind, "in": d.In, "out": d.Out}
	}
	return map[string]any{
		"sheet":      r.Sheet,
		"sheet_hash": r.SheetHash,
		"order":      append([]string{}, r.Order...),
		"streams":    streams,
		"devices":    devices,
	}
}

// Hash returns the content hash of the run result.
func (r *Result) Hash() (string, error) {
	return report.Hash(report.DomainRun, r.Canonical())
}

// Conservation returns the inputs and outputs totals of d.
func Conservation(d process.Device) (in, out float64) {
	return process.Totals(d)
}

// Conserved reports whether d's outputs total equals its inputs total
// within tol.
func Conserved(d process.Device, tol float64) bool {
	in, out := Conservation(d)
	return math.Abs(in-out) <= tol
}
