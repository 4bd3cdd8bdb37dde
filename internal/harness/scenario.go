package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chemflow/internal/process"
)

// Scenario defines a flowsheet test scenario.
// A scenario builds a small world of streams and devices, executes steps
// against it and asserts on the resulting stream values and device state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Sheet is an optional CUE flowsheet (file or directory) whose streams
	// and devices are built and wired before the steps run. Relative paths
	// are resolved against the scenario file or the base path.
	Sheet string `yaml:"sheet,omitempty"`

	// Devices declares unconnected devices in addition to the sheet's.
	Devices []DeviceDecl `yaml:"devices,omitempty"`

	// Streams declares streams in addition to the sheet's.
	// Streams without a name are named s1, s2, ... in declaration order.
	Streams []StreamDecl `yaml:"streams,omitempty"`

	// Steps run in order. Each step may state the outcome it expects.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	// Supported types: mass_flow, conserved, connections, phase
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// DeviceDecl declares a device by kind and capacity.
type DeviceDecl struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`

	// InputCount is the mixer input capacity.
	InputCount int `yaml:"input_count,omitempty"`

	// OutputCount is the divider output capacity.
	OutputCount int `yaml:"output_count,omitempty"`

	// Double selects a two-output reactor.
	Double bool `yaml:"double,omitempty"`
}

// StreamDecl declares a stream with an optional initial mass flow.
type StreamDecl struct {
	Name     string  `yaml:"name,omitempty"`
	MassFlow float64 `yaml:"mass_flow,omitempty"`
}

// Step is one operation against the scenario world.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Device is the target device ID.
	Device string `yaml:"device,omitempty"`

	// Stream is the target stream name.
	Stream string `yaml:"stream,omitempty"`

	// Value is the mass flow for set_mass_flow.
	Value *float64 `yaml:"value,omitempty"`

	// Index is the slot for get_input and get_output.
	Index *int `yaml:"index,omitempty"`

	// Expect states the expected outcome. Nil means the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// Error is one of the Outcome* constants.
	Error string `yaml:"error"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "mass_flow": a stream's mass flow equals Value within Tolerance
	// - "conserved": a device's outputs total equals its inputs total
	// - "connections": a device has Inputs / Outputs connected streams
	// - "phase": a device is in Phase
	Type string `yaml:"type"`

	// Stream is the stream name (used by mass_flow).
	Stream string `yaml:"stream,omitempty"`

	// Device is the device ID (used by conserved, connections, phase).
	Device string `yaml:"device,omitempty"`

	// Value is the expected mass flow (used by mass_flow).
	Value *float64 `yaml:"value,omitempty"`

	// Tolerance is the absolute tolerance; defaults to 0.01.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Inputs and Outputs are expected connection counts (used by connections).
	Inputs  *int `yaml:"inputs,omitempty"`
	Outputs *int `yaml:"outputs,omitempty"`

	// Phase is the expected lifecycle phase (used by phase).
	Phase string `yaml:"phase,omitempty"`
}

// Step operations.
const (
	OpAddInput    = "add_input"
	OpAddOutput   = "add_output"
	OpUpdate      = "update"
	OpSetMassFlow = "set_mass_flow"
	OpRun         = "run"
	OpGetInput    = "get_input"
	OpGetOutput   = "get_output"
)

// Step outcomes.
const (
	OutcomeOK                    = "ok"
	OutcomeCapacityExceeded      = "capacity_exceeded"
	OutcomePreconditionViolation = "precondition_violation"
	OutcomeIndexOutOfRange       = "index_out_of_range"
	OutcomeError                 = "error"
)

// Assertion type constants.
const (
	AssertMassFlow    = "mass_flow"
	AssertConserved   = "conserved"
	AssertConnections = "connections"
	AssertPhase       = "phase"
)

var validOutcomes = []string{
	OutcomeOK,
	OutcomeCapacityExceeded,
	OutcomePreconditionViolation,
	OutcomeIndexOutOfRange,
}

var validPhases = []string{
	string(process.PhaseConnecting),
	string(process.PhaseReady),
	string(process.PhaseComputed),
}

// LoadScenario reads and parses a scenario YAML file.
// Relative sheet paths resolve against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the sheet path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve sheet path relative to base path BEFORE validation
	if scenario.Sheet != "" && !filepath.IsAbs(scenario.Sheet) && basePath != "" {
		scenario.Sheet = filepath.Join(basePath, scenario.Sheet)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Sheet != "" {
		if _, err := os.Stat(s.Sheet); os.IsNotExist(err) {
			return fmt.Errorf("sheet not found: %s", s.Sheet)
		}
	}

	ids := make(map[string]bool, len(s.Devices))
	for i, d := range s.Devices {
		if d.ID == "" {
			return fmt.Errorf("devices[%d]: id is required", i)
		}
		if ids[d.ID] {
			return fmt.Errorf("devices[%d]: duplicate id %q", i, d.ID)
		}
		ids[d.ID] = true
		if !slices.Contains(process.Kinds, process.Kind(d.Kind)) {
			return fmt.Errorf("devices[%d]: unknown kind %q", i, d.Kind)
		}
	}

	names := make(map[string]bool, len(s.Streams))
	for i, st := range s.Streams {
		if st.Name == "" {
			continue
		}
		if names[st.Name] {
			return fmt.Errorf("streams[%d]: duplicate name %q", i, st.Name)
		}
		names[st.Name] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpAddInput, OpAddOutput:
		if st.Device == "" || st.Stream == "" {
			return fmt.Errorf("steps[%d]: device and stream are required for %s", index, st.Op)
		}
	case OpUpdate:
		if st.Device == "" {
			return fmt.Errorf("steps[%d]: device is required for update", index)
		}
	case OpSetMassFlow:
		if st.Stream == "" {
			return fmt.Errorf("steps[%d]: stream is required for set_mass_flow", index)
		}
		if st.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for set_mass_flow", index)
		}
	case OpRun:
	case OpGetInput, OpGetOutput:
		if st.Device == "" {
			return fmt.Errorf("steps[%d]: device is required for %s", index, st.Op)
		}
		if st.Index == nil {
			return fmt.Errorf("steps[%d]: index is required for %s", index, st.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Expect != nil && !slices.Contains(validOutcomes, st.Expect.Error) {
		return fmt.Errorf("steps[%d].expect: unknown error %q", index, st.Expect.Error)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertMassFlow:
		if a.Stream == "" {
			return fmt.Errorf("assertions[%d]: stream is required for mass_flow", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for mass_flow", index)
		}
	case AssertConserved:
		if a.Device == "" {
			return fmt.Errorf("assertions[%d]: device is required for conserved", index)
		}
	case AssertConnections:
		if a.Device == "" {
			return fmt.Errorf("assertions[%d]: device is required for connections", index)
		}
		if a.Inputs == nil && a.Outputs == nil {
			return fmt.Errorf("assertions[%d]: inputs or outputs is required for connections", index)
		}
	case AssertPhase:
		if a.Device == "" {
			return fmt.Errorf("assertions[%d]: device is required for phase", index)
		}
		if !slices.Contains(validPhases, a.Phase) {
			return fmt.Errorf("assertions[%d]: unknown phase %q", index, a.Phase)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
