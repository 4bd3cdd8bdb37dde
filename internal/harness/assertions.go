package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/chemflow/internal/process"
)

// DefaultTolerance is used when an assertion gives no tolerance.
const DefaultTolerance = 0.01

// AssertionContext gives assertions access to the scenario world.
type AssertionContext struct {
	Devices map[string]process.Device
	Streams map[string]*process.Stream
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Op)
			if event.Device != "" {
				fmt.Fprintf(&buf, " device=%s", event.Device)
			}
			if event.Stream != "" {
				fmt.Fprintf(&buf, " stream=%s", event.Stream)
			}
			fmt.Fprintf(&buf, " -> %s\n", event.Outcome)
		}
	}

	return buf.String()
}

func tolerance(a Assertion) float64 {
	if a.Tolerance > 0 {
		return a.Tolerance
	}
	return DefaultTolerance
}

// assertMassFlow checks a stream's final mass flow.
func assertMassFlow(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	st, ok := actx.Streams[a.Stream]
	if !ok {
		return fmt.Errorf("mass_flow: unknown stream %q", a.Stream)
	}

	tol := tolerance(a)
	if math.Abs(st.MassFlow()-*a.Value) > tol {
		return &AssertionError{
			Type:     AssertMassFlow,
			Expected: fmt.Sprintf("stream %s mass flow %g (±%g)", a.Stream, *a.Value, tol),
			Actual:   fmt.Sprintf("%g", st.MassFlow()),
			Trace:    trace,
		}
	}
	return nil
}

// assertConserved checks that a device's outputs total equals its inputs total.
func assertConserved(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	d, ok := actx.Devices[a.Device]
	if !ok {
		return fmt.Errorf("conserved: unknown device %q", a.Device)
	}

	in, out := process.Totals(d)
	tol := tolerance(a)
	if math.Abs(in-out) > tol {
		return &AssertionError{
			Type:     AssertConserved,
			Expected: fmt.Sprintf("device %s outputs total %g (±%g)", a.Device, in, tol),
			Actual:   fmt.Sprintf("%g", out),
			Trace:    trace,
		}
	}
	return nil
}

// assertConnections checks connected stream counts.
func assertConnections(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	d, ok := actx.Devices[a.Device]
	if !ok {
		return fmt.Errorf("connections: unknown device %q", a.Device)
	}

	if a.Inputs != nil && d.InputCount() != *a.Inputs {
		return &AssertionError{
			Type:     AssertConnections,
			Expected: fmt.Sprintf("device %s with %d inputs", a.Device, *a.Inputs),
			Actual:   fmt.Sprintf("%d inputs", d.InputCount()),
			Trace:    trace,
		}
	}
	if a.Outputs != nil && d.OutputCount() != *a.Outputs {
		return &AssertionError{
			Type:     AssertConnections,
			Expected: fmt.Sprintf("device %s with %d outputs", a.Device, *a.Outputs),
			Actual:   fmt.Sprintf("%d outputs", d.OutputCount()),
			Trace:    trace,
		}
	}
	return nil
}

// assertPhase checks a device's lifecycle phase.
func assertPhase(actx *AssertionContext, trace []TraceEvent, a Assertion) error {
	d, ok := actx.Devices[a.Device]
	if !ok {
		return fmt.Errorf("phase: unknown device %q", a.Device)
	}

	if got := string(d.Phase()); got != a.Phase {
		return &AssertionError{
			Type:     AssertPhase,
			Expected: fmt.Sprintf("device %s in phase %s", a.Device, a.Phase),
			Actual:   got,
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions and returns the failure messages.
// Returns an empty slice if every assertion holds.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	if actx == nil {
		actx = &AssertionContext{}
	}

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertMassFlow:
			err = assertMassFlow(actx, result.Trace, assertion)
		case AssertConserved:
			err = assertConserved(actx, result.Trace, assertion)
		case AssertConnections:
			err = assertConnections(actx, result.Trace, assertion)
		case AssertPhase:
			err = assertPhase(actx, result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
