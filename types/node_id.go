package types

import (
	"bytes"

	"github.com/google/uuid"
)

// NodeId is the 128-bit opaque identity of a cluster member. It wraps
// uuid.UUID, whose in-memory representation is already the canonical
// 16-byte big-endian form, so comparisons below are byte-order-stable
// and platform-independent without any extra encoding step.
type NodeId uuid.UUID

// ZeroNodeId is the "no id" sentinel used for an absent epoch_id.
var ZeroNodeId NodeId

// NewNodeId generates a random NodeId.
func NewNodeId() NodeId {
	return NodeId(uuid.New())
}

func (id NodeId) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero value.
func (id NodeId) IsZero() bool {
	return id == ZeroNodeId
}

// Compare returns -1, 0, or 1 as id is less than, equal to, or greater
// than other, using lexicographic comparison of the canonical 16-byte
// big-endian form. This is the deterministic tie-break called for in
// the ranking and legitimacy design notes.
func (id NodeId) Compare(other NodeId) int {
	return bytes.Compare(id[:], other[:])
}
