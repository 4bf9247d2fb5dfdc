package types

// VNodeState enumerates the lifecycle states a gossip member can be
// reported in. The election core only ever inspects a handful of these
// (Leader, and whatever the caller uses for "regular voting member");
// the rest are carried so MemberInfo round-trips whatever the gossip
// layer actually reports.
type VNodeState int

const (
	VNodeUnknown VNodeState = iota
	VNodeInitializing
	VNodeDiscoverLeader
	VNodeUnbuffered
	VNodeCatchingUp
	VNodeClone
	VNodeFollower
	VNodePreLeader
	VNodeLeader
	VNodeManager
	VNodeShuttingDown
	VNodeShutdown
	VNodePreReadOnlyReplica
	VNodeReadOnlyReplica
	VNodeResigningLeader
)

func (s VNodeState) String() string {
	switch s {
	case VNodeInitializing:
		return "Initializing"
	case VNodeDiscoverLeader:
		return "DiscoverLeader"
	case VNodeUnbuffered:
		return "Unbuffered"
	case VNodeCatchingUp:
		return "CatchingUp"
	case VNodeClone:
		return "Clone"
	case VNodeFollower:
		return "Follower"
	case VNodePreLeader:
		return "PreLeader"
	case VNodeLeader:
		return "Leader"
	case VNodeManager:
		return "Manager"
	case VNodeShuttingDown:
		return "ShuttingDown"
	case VNodeShutdown:
		return "Shutdown"
	case VNodePreReadOnlyReplica:
		return "PreReadOnlyReplica"
	case VNodeReadOnlyReplica:
		return "ReadOnlyReplica"
	case VNodeResigningLeader:
		return "ResigningLeader"
	default:
		return "Unknown"
	}
}
