package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixerSheet = `
stream: {
	feed_a: mass_flow: 10.0
	feed_b: mass_flow: 5
	mixed: {}
}
device: {
	m1: {
		kind:    "mixer"
		inputs:  ["feed_a", "feed_b"]
		outputs: ["mixed"]
	}
}
`

func compile(t *testing.T, src string) *Sheet {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	s, err := CompileSheet(v)
	require.NoError(t, err)
	return s
}

func TestCompileSheetBasic(t *testing.T) {
	s := compile(t, mixerSheet)

	require.Len(t, s.Streams, 3)
	assert.Equal(t, "feed_a", s.Streams[0].Name)
	assert.Equal(t, 10.0, s.Streams[0].MassFlow)
	assert.True(t, s.Streams[0].HasFlow)
	assert.Equal(t, 5.0, s.Streams[1].MassFlow, "int literals are accepted")
	assert.False(t, s.Streams[2].HasFlow)

	require.Len(t, s.Devices, 1)
	d := s.Devices[0]
	assert.Equal(t, "m1", d.ID)
	assert.Equal(t, "mixer", d.Kind)
	assert.Equal(t, []string{"feed_a", "feed_b"}, d.Inputs)
	assert.Equal(t, []string{"mixed"}, d.Outputs)
	assert.Nil(t, d.InputCount)

	in, out := d.Capacities()
	assert.Equal(t, 2, in)
	assert.Equal(t, 1, out)
}

func TestCompileSheetKeepsDeclarationOrder(t *testing.T) {
	s := compile(t, `
		stream: { z: {}, a: {}, m: {} }
		device: {
			second: { kind: "reactor" }
			first:  { kind: "reactor" }
		}
	`)

	var names []string
	for _, st := range s.Streams {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
	assert.Equal(t, "second", s.Devices[0].ID)
	assert.Equal(t, "first", s.Devices[1].ID)
}

func TestCompileSheetCapacityFields(t *testing.T) {
	s := compile(t, `
		device: {
			m: { kind: "mixer", input_count: 4 }
			d: { kind: "divider", output_count: 3 }
			r: { kind: "reactor", double: true }
		}
	`)

	tests := []struct {
		id      string
		wantIn  int
		wantOut int
	}{
		{"m", 4, 1},
		{"d", 1, 3},
		{"r", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, ok := s.Device(tt.id)
			require.True(t, ok)
			in, out := d.Capacities()
			assert.Equal(t, tt.wantIn, in)
			assert.Equal(t, tt.wantOut, out)
		})
	}
}

func TestCompileSheetName(t *testing.T) {
	s := compile(t, `name: "plant"`)
	assert.Equal(t, "plant", s.Name)
	assert.Empty(t, s.Devices)
}

func TestCompileSheetMissingKind(t *testing.T) {
	v := cuecontext.New().CompileString(`device: m1: { inputs: [] }`)
	require.NoError(t, v.Err())

	_, err := CompileSheet(v)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "device.m1.kind", compileErr.Field)
	assert.Contains(t, compileErr.Message, "kind is required")
}

func TestCompileSheetMassFlowNotNumber(t *testing.T) {
	v := cuecontext.New().CompileString(`stream: s1: mass_flow: "ten"`)
	require.NoError(t, v.Err())

	_, err := CompileSheet(v)
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "stream.s1.mass_flow", compileErr.Field)
}

func TestCompileSheetInputsNotList(t *testing.T) {
	v := cuecontext.New().CompileString(`device: m1: { kind: "mixer", inputs: "s1" }`)
	require.NoError(t, v.Err())

	_, err := CompileSheet(v)
	assert.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "device.m1.kind", Message: "kind is required"}
	assert.Equal(t, "device.m1.kind: kind is required", err.Error())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixer.cue")
	require.NoError(t, os.WriteFile(path, []byte(mixerSheet), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mixer", s.Name)
	assert.Len(t, s.Devices, 1)
	assert.Greater(t, s.Devices[0].Pos.Line(), 0)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.cue"))

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadFileCompileError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`device: m1: { inputs: [] }`), 0o644))

	_, err := LoadFile(path)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeCompile, loadErr.Code)
	assert.Contains(t, loadErr.Message, "kind is required")
}

func TestLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plant")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "streams.cue"), []byte(`package plant

stream: {
	feed: mass_flow: 8.0
	out: {}
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "devices.cue"), []byte(`package plant

device: r1: {
	kind:    "reactor"
	inputs:  ["feed"]
	outputs: ["out"]
}
`), 0o644))

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "plant", s.Name)
	assert.Len(t, s.Streams, 2)
	require.Len(t, s.Devices, 1)
	assert.Equal(t, "reactor", s.Devices[0].Kind)
}

func TestLoadDirErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})

	t.Run("no files", func(t *testing.T) {
		_, err := LoadDir(t.TempDir())
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
	})

	t.Run("not a directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		_, err := LoadDir(path)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, ErrCodeNotFound, loadErr.Code)
	})
}
