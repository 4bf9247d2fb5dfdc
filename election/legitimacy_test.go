package election

import (
	"testing"

	"github.com/quorumforge/elections/types"
	"github.com/stretchr/testify/assert"
)

func TestIsLegitimateLeader_NoPreviousLeaderDefersToDominance(t *testing.T) {
	self := types.NewNodeId()
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 1, LastCommitPosition: 100}
	worse := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 1, LastCommitPosition: 50}
	better := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 1, LastCommitPosition: 500}

	assert.False(t, IsLegitimateLeader(worse, self, own, nil, nil, nil), "a candidate behind our own log must not be legitimate")
	assert.True(t, IsLegitimateLeader(better, self, own, nil, nil, nil), "a candidate ahead of our own log must be legitimate")
}

func TestIsLegitimateLeader_SelfProposalAlwaysAccepted(t *testing.T) {
	self := types.NewNodeId()
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 9, LastCommitPosition: 9000}
	candidate := types.LeaderCandidate{InstanceId: self, EpochNumber: 0, LastCommitPosition: 0}

	assert.True(t, IsLegitimateLeader(candidate, self, own, nil, nil, nil), "a node must accept a proposal that names itself, regardless of fingerprint")
}

func TestIsLegitimateLeader_StaleLeaderHoldsAgainstWeakerChallenger(t *testing.T) {
	self := types.NewNodeId()
	prevLeader := types.NewNodeId()
	servers := []types.MemberInfo{
		{InstanceId: prevLeader, State: types.VNodeLeader, IsAlive: true, EpochNumber: 5, LastCommitPosition: 1000},
	}
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 1, LastCommitPosition: 1}
	challenger := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 5, LastCommitPosition: 999}

	assert.False(t, IsLegitimateLeader(challenger, self, own, servers, &prevLeader, nil), "a live previous leader must not be displaced by a same-epoch, lower-completeness challenger")
}

func TestIsLegitimateLeader_HigherEpochChallengerDisplacesStaleLeader(t *testing.T) {
	self := types.NewNodeId()
	prevLeader := types.NewNodeId()
	servers := []types.MemberInfo{
		{InstanceId: prevLeader, State: types.VNodeLeader, IsAlive: true, EpochNumber: 5, LastCommitPosition: 1000},
	}
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 1, LastCommitPosition: 1}
	challenger := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 6, LastCommitPosition: 1}

	assert.True(t, IsLegitimateLeader(challenger, self, own, servers, &prevLeader, nil), "a strictly higher epoch must always displace the previous leader")
}

func TestIsLegitimateLeader_EpochForkIsHealed(t *testing.T) {
	self := types.NewNodeId()
	prevLeader := types.NewNodeId()
	forkedEpochId := types.NewNodeId()
	servers := []types.MemberInfo{
		{InstanceId: prevLeader, State: types.VNodeLeader, IsAlive: true, EpochNumber: 5, EpochId: types.NewNodeId(), LastCommitPosition: 1000},
	}
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 1, LastCommitPosition: 1}
	challenger := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 5, EpochId: forkedEpochId, LastCommitPosition: 1}

	assert.True(t, IsLegitimateLeader(challenger, self, own, servers, &prevLeader, nil), "same epoch number but a differing epoch id must be treated as a fork and healed")
}

func TestIsLegitimateLeader_ResigningPreviousLeaderLosesStickiness(t *testing.T) {
	self := types.NewNodeId()
	prevLeader := types.NewNodeId()
	servers := []types.MemberInfo{
		{InstanceId: prevLeader, State: types.VNodeLeader, IsAlive: true, EpochNumber: 5, LastCommitPosition: 1000},
	}
	own := types.LeaderCandidate{InstanceId: self, EpochNumber: 1, LastCommitPosition: 1}
	challenger := types.LeaderCandidate{InstanceId: types.NewNodeId(), EpochNumber: 5, LastCommitPosition: 1}

	assert.True(t, IsLegitimateLeader(challenger, self, own, servers, &prevLeader, &prevLeader), "a leader mid-resignation must not block a weaker challenger from being accepted")
}
