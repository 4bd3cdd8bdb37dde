package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderProducersFirst(t *testing.T) {
	s := compile(t, `
		stream: { feed: {}, mid: {}, out: {} }
		device: {
			downstream: { kind: "reactor", inputs: ["mid"], outputs: ["out"] }
			upstream:   { kind: "reactor", inputs: ["feed"], outputs: ["mid"] }
		}
	`)

	order, err := s.Order()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, order)
}

func TestOrderKeepsDeclarationOrderForIndependentDevices(t *testing.T) {
	s := compile(t, `
		stream: { a: {}, b: {}, c: {}, a2: {}, b2: {}, c2: {} }
		device: {
			r3: { kind: "reactor", inputs: ["c"], outputs: ["c2"] }
			r1: { kind: "reactor", inputs: ["a"], outputs: ["a2"] }
			r2: { kind: "reactor", inputs: ["b"], outputs: ["b2"] }
		}
	`)

	order, err := s.Order()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestOrderDiamond(t *testing.T) {
	s := compile(t, `
		stream: { feed: {}, l: {}, r: {}, l2: {}, r2: {}, out: {} }
		device: {
			join:  { kind: "mixer", inputs: ["l2", "r2"], outputs: ["out"] }
			right: { kind: "reactor", inputs: ["r"], outputs: ["r2"] }
			left:  { kind: "reactor", inputs: ["l"], outputs: ["l2"] }
			split: { kind: "divider", inputs: ["feed"], outputs: ["l", "r"] }
		}
	`)

	order, err := s.Order()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2, 0}, order)
}

func TestOrderCycle(t *testing.T) {
	s := compile(t, `
		stream: { s1: {}, s2: {} }
		device: {
			b: { kind: "reactor", inputs: ["s1"], outputs: ["s2"] }
			a: { kind: "reactor", inputs: ["s2"], outputs: ["s1"] }
		}
	`)

	_, err := s.Order()
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, [][]string{{"b", "a"}}, cycleErr.Cycles)
	assert.Equal(t, "cyclic flowsheet: b -> a", err.Error())
}

func TestOrderSelfLoop(t *testing.T) {
	s := compile(t, `
		stream: { s: {} }
		device: r: { kind: "reactor", inputs: ["s"], outputs: ["s"] }
	`)

	_, err := s.Order()
	var selfErr *SelfLoopError
	require.ErrorAs(t, err, &selfErr)
	assert.Equal(t, "r", selfErr.Device)
	assert.Equal(t, "s", selfErr.Stream)
}

func TestProducersFirstWins(t *testing.T) {
	s := compile(t, `
		device: {
			r1: { kind: "reactor", outputs: ["x"] }
			r2: { kind: "reactor", outputs: ["x"] }
		}
	`)
	assert.Equal(t, map[string]int{"x": 0}, s.Producers())
}

func TestHash(t *testing.T) {
	a := compile(t, mixerSheet)
	b := compile(t, mixerSheet)
	b.Name = "renamed"

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb, "name does not contribute")
	assert.Len(t, ha, 64)

	b.Streams[0].MassFlow = 11.0
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
