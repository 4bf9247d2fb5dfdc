package types

// LeaderCandidate is a node's log-completeness fingerprint, as carried
// in a PrepareOk and later in a Proposal/Accept.
type LeaderCandidate struct {
	InstanceId         NodeId
	ExternalEndpoint   EndPoint
	EpochNumber        int32
	EpochPosition      int64
	EpochId            NodeId
	LastCommitPosition int64
	WriterCheckpoint   int64
	ChaserCheckpoint   int64
	NodePriority       int32
}

// dominates reports whether c is at least as good as other under the
// four-field log-completeness order (epoch_number, last_commit_position,
// writer_checkpoint, chaser_checkpoint), the comparison the legitimacy
// check truncates to. Priority and id are deliberately excluded.
func (c LeaderCandidate) dominates(other LeaderCandidate) bool {
	if c.EpochNumber != other.EpochNumber {
		return c.EpochNumber > other.EpochNumber
	}
	if c.LastCommitPosition != other.LastCommitPosition {
		return c.LastCommitPosition > other.LastCommitPosition
	}
	if c.WriterCheckpoint != other.WriterCheckpoint {
		return c.WriterCheckpoint > other.WriterCheckpoint
	}
	return c.ChaserCheckpoint >= other.ChaserCheckpoint
}

// Dominates is the exported form of dominates, used by the legitimacy
// check and by tests asserting ranking-determinism/monotonicity
// properties.
func (c LeaderCandidate) Dominates(other LeaderCandidate) bool {
	return c.dominates(other)
}

// rankLess orders two candidates for GetBestLeaderCandidate: descending
// by (epoch_number, last_commit_position, writer_checkpoint,
// chaser_checkpoint, node_priority, instance_id). It returns true iff c
// ranks strictly lower than other, i.e. other should be preferred.
func rankLess(c, other LeaderCandidate) bool {
	if c.EpochNumber != other.EpochNumber {
		return c.EpochNumber < other.EpochNumber
	}
	if c.LastCommitPosition != other.LastCommitPosition {
		return c.LastCommitPosition < other.LastCommitPosition
	}
	if c.WriterCheckpoint != other.WriterCheckpoint {
		return c.WriterCheckpoint < other.WriterCheckpoint
	}
	if c.ChaserCheckpoint != other.ChaserCheckpoint {
		return c.ChaserCheckpoint < other.ChaserCheckpoint
	}
	if c.NodePriority != other.NodePriority {
		return c.NodePriority < other.NodePriority
	}
	return c.InstanceId.Compare(other.InstanceId) < 0
}

// RankLess is the exported form of rankLess.
func RankLess(c, other LeaderCandidate) bool {
	return rankLess(c, other)
}

// Best returns whichever of c/other ranks higher under RankLess.
func Best(c, other LeaderCandidate) LeaderCandidate {
	if rankLess(c, other) {
		return other
	}
	return c
}
