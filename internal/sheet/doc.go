// Package sheet compiles flowsheet definitions written in CUE.
//
// A flowsheet declares streams (optionally with an initial mass flow) and
// devices wired to them by name:
//
//	stream: {
//		feed_a: mass_flow: 10.0
//		feed_b: mass_flow: 5.0
//		mixed: {}
//	}
//	device: {
//		m1: {
//			kind:    "mixer"
//			inputs:  ["feed_a", "feed_b"]
//			outputs: ["mixed"]
//		}
//	}
//
// Device fields:
//
//	kind          "mixer" | "divider" | "reactor" (required)
//	inputs        stream names, order is slot order
//	outputs       stream names, order is slot order
//	input_count   mixer input capacity (default len(inputs))
//	output_count  divider output capacity (default len(outputs))
//	double        reactor with two outputs (default false)
//
// Field order in the CUE source is kept: it is the declaration order used to
// break ties when devices are sorted for evaluation.
//
// Compile errors carry CUE source positions. Validate reports every problem
// at once with an E2xx code:
//
//	E201 unknown device kind        E205 stream listed twice on a device
//	E202 undefined stream           E206 negative capacity
//	E203 more streams than slots    E207 cycle (single pass impossible)
//	E204 stream has two producers   E208 no devices
package sheet
