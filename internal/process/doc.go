// Package process implements the mass-balance core of chemflow.
//
// A Stream carries a single mass-flow value. A Device owns a fixed number of
// input and output slots and derives its output flows from its input flows
// when UpdateOutputs is called.
//
// # Variants
//
// The variant set is closed:
//
//	Mixer(n)          n inputs, 1 output    out = sum(in) / connected outputs
//	Divider(k)        1 input,  k outputs   out = in / connected outputs
//	Reactor(double)   1 input,  1|2 outputs out = in * (1 / declared outputs)
//
// Mixer and Divider divide by the number of outputs actually connected.
// Reactor divides by its declared output capacity and requires every
// declared output slot to be filled.
//
// # Sharing
//
// Streams are shared by pointer. A stream is written by the caller that
// created it or by the one device that lists it as an output; nothing here
// synchronizes access, so a network must be driven from a single goroutine.
//
// # Errors
//
// Every failure is an *Error carrying a Code. Use IsCapacityExceeded,
// IsPreconditionViolation and IsIndexOutOfRange to classify, including
// through wrapping. Failed calls never mutate connections or flows.
package process
