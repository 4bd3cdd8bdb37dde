// Package harness runs flowsheet test scenarios.
//
// A scenario builds a world of streams and devices, executes steps against
// it and checks the final state. Every step is recorded in a trace that can
// be compared byte-for-byte with a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: mixer_sums_inputs
//	description: "Mixer(2) sums its inputs into one output"
//	sheet: plant.cue            # optional, wired before the steps run
//	devices:
//	  - id: m1
//	    kind: mixer
//	    input_count: 2
//	streams:
//	  - name: a
//	    mass_flow: 10.0
//	  - name: b
//	    mass_flow: 5.0
//	  - name: out
//	steps:
//	  - op: add_input
//	    device: m1
//	    stream: a
//	  - op: update
//	    device: m1
//	    expect:
//	      error: precondition_violation
//	assertions:
//	  - type: mass_flow
//	    stream: out
//	    value: 15.0
//
// # Step Operations
//
//   - add_input, add_output: connect a stream to a device
//   - update: recompute a device's outputs
//   - set_mass_flow: overwrite a stream's mass flow
//   - run: evaluate the whole sheet once, in dependency order
//   - get_input, get_output: positional access by index
//
// A step without expect must succeed. Otherwise expect.error names the
// outcome: ok, capacity_exceeded, precondition_violation or
// index_out_of_range.
//
// # Assertion Types
//
//   - mass_flow: a stream's mass flow equals value within tolerance
//   - conserved: a device's outputs total equals its inputs total
//   - connections: a device has the given number of inputs and/or outputs
//   - phase: a device is connecting, ready or computed
//
// Tolerances default to 0.01.
//
// # Deterministic Testing
//
// Trace sequence numbers come from a fresh counter per scenario and
// unnamed streams are named s1, s2, ... so repeated runs produce identical
// traces.
package harness
