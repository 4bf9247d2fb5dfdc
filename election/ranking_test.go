package election

import (
	"testing"

	"github.com/quorumforge/elections/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateOk(view int32, epoch int32, commit int64) PrepareOk {
	return PrepareOk{
		View:               view,
		ServerId:           types.NewNodeId(),
		EpochNumber:        epoch,
		LastCommitPosition: commit,
	}
}

func TestGetBestLeaderCandidate_PicksHighestFingerprint(t *testing.T) {
	low := candidateOk(1, 1, 100)
	high := candidateOk(1, 1, 500)
	received := map[types.NodeId]PrepareOk{
		low.ServerId:  low,
		high.ServerId: high,
	}

	best, ok := GetBestLeaderCandidate(received, nil, nil, nil)
	require.True(t, ok)
	assert.Equal(t, high.ServerId, best.InstanceId, "must pick the fingerprint with more committed log")
}

func TestGetBestLeaderCandidate_NoCandidates(t *testing.T) {
	_, ok := GetBestLeaderCandidate(map[types.NodeId]PrepareOk{}, nil, nil, nil)
	assert.False(t, ok)
}

func TestGetBestLeaderCandidate_StickyPreviousLeaderWithPrepareOk(t *testing.T) {
	prevLeader := types.NewNodeId()
	stale := PrepareOk{ServerId: prevLeader, EpochNumber: 1, LastCommitPosition: 10}
	fresher := candidateOk(1, 5, 900)
	received := map[types.NodeId]PrepareOk{
		stale.ServerId:   stale,
		fresher.ServerId: fresher,
	}

	best, ok := GetBestLeaderCandidate(received, nil, &prevLeader, nil)
	require.True(t, ok)
	assert.Equal(t, prevLeader, best.InstanceId, "a live previous leader with a PrepareOk on file must stick even if outranked")
}

func TestGetBestLeaderCandidate_StickyPreviousLeaderFromLiveMembers(t *testing.T) {
	prevLeader := types.NewNodeId()
	servers := []types.MemberInfo{
		{InstanceId: prevLeader, State: types.VNodeLeader, IsAlive: true},
	}
	fresher := candidateOk(1, 5, 900)
	received := map[types.NodeId]PrepareOk{fresher.ServerId: fresher}

	best, ok := GetBestLeaderCandidate(received, servers, &prevLeader, nil)
	require.True(t, ok)
	assert.Equal(t, prevLeader, best.InstanceId, "must fall back to the live member list to find a still-alive previous leader")
}

func TestGetBestLeaderCandidate_ResigningPreviousLeaderIsNotSticky(t *testing.T) {
	prevLeader := types.NewNodeId()
	fresher := candidateOk(1, 5, 900)
	received := map[types.NodeId]PrepareOk{
		prevLeader:       {ServerId: prevLeader, EpochNumber: 1, LastCommitPosition: 10},
		fresher.ServerId: fresher,
	}

	best, ok := GetBestLeaderCandidate(received, nil, &prevLeader, &prevLeader)
	require.True(t, ok)
	assert.Equal(t, fresher.ServerId, best.InstanceId, "a resigning leader must not be sticky, ranking should proceed normally")
}
