package election

import "github.com/quorumforge/elections/types"

// GetBestLeaderCandidate picks the leader candidate a proposer with a
// quorum of PrepareOk replies should propose: the previous leader if it
// is still sticky, otherwise whichever candidate ranks highest by log
// completeness. It is a pure function of its inputs, so it is safe to
// call from tests as well as from the coordinator's Prepare-Ok handler.
func GetBestLeaderCandidate(
	prepareOkReceived map[types.NodeId]PrepareOk,
	servers []types.MemberInfo,
	lastElectedLeader *types.NodeId,
	resigningLeaderInstanceId *types.NodeId,
) (types.LeaderCandidate, bool) {
	if sticky, ok := stickyPreviousLeader(prepareOkReceived, servers, lastElectedLeader, resigningLeaderInstanceId); ok {
		return sticky, true
	}

	var best types.LeaderCandidate
	found := false
	for _, ok := range prepareOkReceived {
		c := ok.Candidate()
		if !found || types.RankLess(best, c) {
			best = c
			found = true
		}
	}
	return best, found
}

func stickyPreviousLeader(
	prepareOkReceived map[types.NodeId]PrepareOk,
	servers []types.MemberInfo,
	lastElectedLeader *types.NodeId,
	resigningLeaderInstanceId *types.NodeId,
) (types.LeaderCandidate, bool) {
	if lastElectedLeader == nil {
		return types.LeaderCandidate{}, false
	}
	if resigningLeaderInstanceId != nil && *resigningLeaderInstanceId == *lastElectedLeader {
		return types.LeaderCandidate{}, false
	}
	if ok, present := prepareOkReceived[*lastElectedLeader]; present {
		return ok.Candidate(), true
	}
	if member, present := types.FindMember(servers, *lastElectedLeader); present && member.IsAlive && member.State == types.VNodeLeader {
		return member.Candidate(), true
	}
	return types.LeaderCandidate{}, false
}
