package election

import "github.com/quorumforge/elections/types"

// State enumerates the coordinator's phase.
type State int

const (
	Idle State = iota
	ElectingLeader
	Leader
	Acceptor
	Shutdown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ElectingLeader:
		return "ElectingLeader"
	case Leader:
		return "Leader"
	case Acceptor:
		return "Acceptor"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// doneKey identifies one (view, leader) pair for the "at most one
// ElectionsDone per pair" invariant.
type doneKey struct {
	view   int32
	leader types.NodeId
}
