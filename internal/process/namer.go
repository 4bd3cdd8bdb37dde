package process

import (
	"strconv"

	"github.com/google/uuid"
)

// Namer supplies stream identities for callers that do not name streams
// themselves. Namers are injected, never global.
type Namer interface {
	Next() string
}

// SequenceNamer produces prefix+1, prefix+2, ... in order.
//
// Not safe for concurrent use.
type SequenceNamer struct {
	prefix string
	seq    int64
}

// NewSequenceNamer creates a namer whose first name is prefix+"1".
// An empty prefix defaults to "s".
func NewSequenceNamer(prefix string) *SequenceNamer {
	if prefix == "" {
		prefix = "s"
	}
	return &SequenceNamer{prefix: prefix}
}

// Next increments the counter and returns the resulting name.
func (n *SequenceNamer) Next() string {
	n.seq++
	return n.prefix + strconv.FormatInt(n.seq, 10)
}

// Current returns the last issued sequence number (0 before the first call).
func (n *SequenceNamer) Current() int64 {
	return n.seq
}

// Reset rewinds the counter so the next name is prefix+"1" again.
func (n *SequenceNamer) Reset() {
	n.seq = 0
}

// UUIDNamer names streams with time-sortable UUIDv7 strings.
// It is stateless and safe for concurrent use.
type UUIDNamer struct{}

// Next returns a new hyphenated UUIDv7.
//
// Panics if the random source fails.
func (UUIDNamer) Next() string {
	return uuid.Must(uuid.NewV7()).String()
}
