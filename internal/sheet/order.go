package sheet

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// SelfLoopError reports a device that reads a stream it also writes.
type SelfLoopError struct {
	Device string
	Stream string
}

func (e *SelfLoopError) Error() string {
	return fmt.Sprintf("device %q reads its own output stream %q", e.Device, e.Stream)
}

// CycleError reports devices that feed each other, directly or not.
// Each entry of Cycles is one strongly connected group, by device ID.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = strings.Join(c, " -> ")
	}
	return "cyclic flowsheet: " + strings.Join(parts, "; ")
}

// Producers maps each stream name to the index of the first device that
// lists it as an output.
func (s *Sheet) Producers() map[string]int {
	producers := make(map[string]int)
	for i, d := range s.Devices {
		for _, name := range d.Outputs {
			if _, ok := producers[name]; !ok {
				producers[name] = i
			}
		}
	}
	return producers
}

// Order returns device indices in an order where every producer runs before
// its consumers. Devices with no dependency between them keep declaration
// order. A device consuming its own output yields *SelfLoopError; any other
// cycle yields *CycleError.
func (s *Sheet) Order() ([]int, error) {
	g := simple.NewDirectedGraph()
	for i := range s.Devices {
		g.AddNode(simple.Node(int64(i)))
	}

	producers := s.Producers()
	for j, d := range s.Devices {
		for _, name := range d.Inputs {
			p, ok := producers[name]
			if !ok {
				continue
			}
			if p == j {
				return nil, &SelfLoopError{Device: d.ID, Stream: name}
			}
			g.SetEdge(simple.Edge{F: simple.Node(int64(p)), T: simple.Node(int64(j))})
		}
	}

	sorted, err := topo.SortStabilized(g, byID)
	if err != nil {
		var unorderable topo.Unorderable
		if !errors.As(err, &unorderable) {
			return nil, err
		}
		return nil, s.cycleError(unorderable)
	}

	order := make([]int, len(sorted))
	for i, n := range sorted {
		order[i] = int(n.ID())
	}
	return order, nil
}

func byID(nodes []graph.Node) {
	slices.SortFunc(nodes, func(a, b graph.Node) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
}

func (s *Sheet) cycleError(components topo.Unorderable) *CycleError {
	ce := &CycleError{}
	for _, comp := range components {
		ids := make([]int, len(comp))
		for i, n := range comp {
			ids[i] = int(n.ID())
		}
		slices.Sort(ids)
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = s.Devices[id].ID
		}
		ce.Cycles = append(ce.Cycles, names)
	}
	slices.SortFunc(ce.Cycles, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return ce
}
