package types

// MemberInfo is the gossip layer's view of one peer, refreshed wholesale
// on every GossipUpdated.
type MemberInfo struct {
	InstanceId         NodeId
	ExternalEndpoint   EndPoint
	State              VNodeState
	IsAlive            bool
	IsReadOnlyReplica  bool
	EpochNumber        int32
	EpochPosition      int64
	EpochId            NodeId
	LastCommitPosition int64
	WriterCheckpoint   int64
	ChaserCheckpoint   int64
	NodePriority       int32
}

// Candidate projects a MemberInfo down to the LeaderCandidate fingerprint
// fields it shares with a PrepareOk.
func (m MemberInfo) Candidate() LeaderCandidate {
	return LeaderCandidate{
		InstanceId:         m.InstanceId,
		ExternalEndpoint:   m.ExternalEndpoint,
		EpochNumber:        m.EpochNumber,
		EpochPosition:      m.EpochPosition,
		EpochId:            m.EpochId,
		LastCommitPosition: m.LastCommitPosition,
		WriterCheckpoint:   m.WriterCheckpoint,
		ChaserCheckpoint:   m.ChaserCheckpoint,
		NodePriority:       m.NodePriority,
	}
}

// NodeInfo describes the local node's fixed identity.
type NodeInfo struct {
	InstanceId             NodeId
	ExternalEndpoint       EndPoint
	InternalEndpoint       EndPoint
	InternalSecureEndpoint EndPoint
	ExternalSecureEndpoint EndPoint
	IsReadOnlyReplica      bool
}
