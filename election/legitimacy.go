package election

import "github.com/quorumforge/elections/types"

// IsLegitimateLeader reports whether candidate may safely become leader
// of the current view, applied by acceptors on every incoming Proposal.
// A live, non-resigning previous leader holds its seat unless candidate
// is that same leader, has strictly advanced the epoch, or is healing an
// epoch fork; otherwise a self-proposal is always accepted, and any
// other candidate must dominate own, the acceptor's own fingerprint.
// self is the acceptor's own id, used to special-case proposing itself.
func IsLegitimateLeader(
	candidate types.LeaderCandidate,
	self types.NodeId,
	own types.LeaderCandidate,
	servers []types.MemberInfo,
	lastElectedLeader *types.NodeId,
	resigningLeaderInstanceId *types.NodeId,
) bool {
	if lastElectedLeader != nil {
		if resigningLeaderInstanceId == nil || *resigningLeaderInstanceId != *lastElectedLeader {
			if prev, ok := types.FindMember(servers, *lastElectedLeader); ok && prev.IsAlive && prev.State == types.VNodeLeader {
				prevCandidate := prev.Candidate()
				if candidate.InstanceId == prevCandidate.InstanceId {
					return true
				}
				if candidate.EpochNumber > prevCandidate.EpochNumber {
					return true
				}
				if candidate.EpochNumber == prevCandidate.EpochNumber && candidate.EpochId != prevCandidate.EpochId {
					// epoch fork: same generation number, different lineage,
					// must be healed by accepting the new proposal.
					return true
				}
				return false
			}
		}
	}

	if candidate.InstanceId == self {
		return true
	}

	return candidate.Dominates(own)
}
