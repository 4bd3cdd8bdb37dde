package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content to dir/test.yaml and returns the path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalScenario = `
name: test_scenario
description: "Test scenario for validation"
devices:
  - id: m1
    kind: mixer
    input_count: 2
streams:
  - name: a
    mass_flow: 10.0
steps:
  - op: add_input
    device: m1
    stream: a
assertions:
  - type: connections
    device: m1
    inputs: 1
`

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), minimalScenario)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Devices, 1)
	assert.Equal(t, "mixer", scenario.Devices[0].Kind)
	assert.Equal(t, 2, scenario.Devices[0].InputCount)
	require.Len(t, scenario.Streams, 1)
	assert.Equal(t, 10.0, scenario.Streams[0].MassFlow)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, OpAddInput, scenario.Steps[0].Op)
	require.Len(t, scenario.Assertions, 1)
	require.NotNil(t, scenario.Assertions[0].Inputs)
	assert.Equal(t, 1, *scenario.Assertions[0].Inputs)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "name: [unclosed")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownFieldsRejected(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: "assertion instead of assertions"
steps:
  - op: run
assertion:
  - type: phase
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field assertion not found")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
steps: [{op: run}]`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
steps: [{op: run}]`,
			wantErr: "description is required",
		},
		{
			name: "missing steps",
			content: `
name: x
description: "x"`,
			wantErr: "steps list is required",
		},
		{
			name: "missing sheet",
			content: `
name: x
description: "x"
sheet: nowhere.cue
steps: [{op: run}]`,
			wantErr: "sheet not found",
		},
		{
			name: "device without id",
			content: `
name: x
description: "x"
devices: [{kind: mixer}]
steps: [{op: run}]`,
			wantErr: "devices[0]: id is required",
		},
		{
			name: "duplicate device",
			content: `
name: x
description: "x"
devices: [{id: a, kind: mixer}, {id: a, kind: reactor}]
steps: [{op: run}]`,
			wantErr: `devices[1]: duplicate id "a"`,
		},
		{
			name: "unknown kind",
			content: `
name: x
description: "x"
devices: [{id: p, kind: pump}]
steps: [{op: run}]`,
			wantErr: `devices[0]: unknown kind "pump"`,
		},
		{
			name: "duplicate stream",
			content: `
name: x
description: "x"
streams: [{name: a}, {name: a}]
steps: [{op: run}]`,
			wantErr: `streams[1]: duplicate name "a"`,
		},
		{
			name: "missing op",
			content: `
name: x
description: "x"
steps: [{device: m}]`,
			wantErr: "steps[0]: op is required",
		},
		{
			name: "unknown op",
			content: `
name: x
description: "x"
steps: [{op: explode}]`,
			wantErr: `steps[0]: unknown op "explode"`,
		},
		{
			name: "add_input without stream",
			content: `
name: x
description: "x"
steps: [{op: add_input, device: m}]`,
			wantErr: "steps[0]: device and stream are required for add_input",
		},
		{
			name: "set_mass_flow without value",
			content: `
name: x
description: "x"
steps: [{op: set_mass_flow, stream: a}]`,
			wantErr: "steps[0]: value is required for set_mass_flow",
		},
		{
			name: "get_output without index",
			content: `
name: x
description: "x"
steps: [{op: get_output, device: r}]`,
			wantErr: "steps[0]: index is required for get_output",
		},
		{
			name: "unknown expected error",
			content: `
name: x
description: "x"
steps: [{op: run, expect: {error: exploded}}]`,
			wantErr: `steps[0].expect: unknown error "exploded"`,
		},
		{
			name: "assertion without type",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{stream: a}]`,
			wantErr: "assertions[0]: type is required",
		},
		{
			name: "mass_flow without value",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{type: mass_flow, stream: a}]`,
			wantErr: "assertions[0]: value is required for mass_flow",
		},
		{
			name: "connections without counts",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{type: connections, device: m}]`,
			wantErr: "assertions[0]: inputs or outputs is required",
		},
		{
			name: "unknown phase",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{type: phase, device: m, phase: melting}]`,
			wantErr: `assertions[0]: unknown phase "melting"`,
		},
		{
			name: "negative tolerance",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{type: conserved, device: m, tolerance: -1}]`,
			wantErr: "tolerance must be non-negative",
		},
		{
			name: "unknown assertion type",
			content: `
name: x
description: "x"
steps: [{op: run}]
assertions: [{type: trace_contains}]`,
			wantErr: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_SheetRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plant.cue"), []byte(`device: r: { kind: "reactor" }`), 0644))
	path := writeScenario(t, dir, `
name: x
description: "x"
sheet: plant.cue
steps: [{op: run}]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "plant.cue"), scenario.Sheet)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "plant.cue"), []byte(`device: r: { kind: "reactor" }`), 0644))
	path := writeScenario(t, t.TempDir(), `
name: x
description: "x"
sheet: plant.cue
steps: [{op: run}]
`)

	scenario, err := LoadScenarioWithBasePath(path, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "plant.cue"), scenario.Sheet)
}

func TestLoadScenario_ExpectClause(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: x
description: "x"
devices: [{id: r, kind: reactor}]
streams: [{name: a}, {name: b}]
steps:
  - op: add_output
    device: r
    stream: a
  - op: add_output
    device: r
    stream: b
    expect:
      error: capacity_exceeded
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Nil(t, scenario.Steps[0].Expect)
	require.NotNil(t, scenario.Steps[1].Expect)
	assert.Equal(t, OutcomeCapacityExceeded, scenario.Steps[1].Expect.Error)
}

func TestLoadScenario_UnnamedStreamsAllowed(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: x
description: "x"
streams: [{mass_flow: 1.0}, {}]
steps: [{op: set_mass_flow, stream: s1, value: 2.0}]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, scenario.Streams, 2)
	assert.Empty(t, scenario.Streams[0].Name)
}

func TestAssertionConstants(t *testing.T) {
	assert.Equal(t, "mass_flow", AssertMassFlow)
	assert.Equal(t, "conserved", AssertConserved)
	assert.Equal(t, "connections", AssertConnections)
	assert.Equal(t, "phase", AssertPhase)
}
