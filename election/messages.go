package election

import "github.com/quorumforge/elections/types"

// Message is the marker interface every election message satisfies.
// Handle dispatches on the concrete type via a type switch.
type Message interface {
	isElectionMessage()
}

// --- control messages ---

type StartElections struct{}

type ElectionsTimedOut struct {
	View int32
}

type BecomeShuttingDown struct{}

type SetNodePriority struct {
	Value int32
}

type ResignNode struct{}

type GossipUpdated struct {
	Members []types.MemberInfo
}

// SendViewChangeProof is the self-fired tick that triggers the periodic
// view-change proof broadcast, letting a lagging node heal onto the
// current view without waiting out its own progress timeout. It is
// armed once at StartElections and re-arms itself on every fire.
type SendViewChangeProof struct{}

// --- election protocol messages ---

type ViewChange struct {
	ServerId      types.NodeId
	ServerEndpoint types.EndPoint
	AttemptedView int32
}

type ViewChangeProof struct {
	ServerId       types.NodeId
	ServerEndpoint types.EndPoint
	InstalledView  int32
}

type Prepare struct {
	ServerId       types.NodeId
	ServerEndpoint types.EndPoint
	View           int32
}

type PrepareOk struct {
	View               int32
	ServerId           types.NodeId
	ServerEndpoint     types.EndPoint
	EpochNumber        int32
	EpochPosition      int64
	EpochId            types.NodeId
	LastCommitPosition int64
	WriterCheckpoint   int64
	ChaserCheckpoint   int64
	NodePriority       int32
}

// Candidate projects the fingerprint fields of a PrepareOk into a
// LeaderCandidate value, associating it with the endpoint/id of the
// server that sent the PrepareOk.
func (p PrepareOk) Candidate() types.LeaderCandidate {
	return types.LeaderCandidate{
		InstanceId:         p.ServerId,
		ExternalEndpoint:   p.ServerEndpoint,
		EpochNumber:        p.EpochNumber,
		EpochPosition:      p.EpochPosition,
		EpochId:            p.EpochId,
		LastCommitPosition: p.LastCommitPosition,
		WriterCheckpoint:   p.WriterCheckpoint,
		ChaserCheckpoint:   p.ChaserCheckpoint,
		NodePriority:       p.NodePriority,
	}
}

// PrepareOkFromCandidate builds a PrepareOk message reporting c's
// fingerprint at view.
func PrepareOkFromCandidate(view int32, c types.LeaderCandidate) PrepareOk {
	return PrepareOk{
		View:               view,
		ServerId:           c.InstanceId,
		ServerEndpoint:     c.ExternalEndpoint,
		EpochNumber:        c.EpochNumber,
		EpochPosition:      c.EpochPosition,
		EpochId:            c.EpochId,
		LastCommitPosition: c.LastCommitPosition,
		WriterCheckpoint:   c.WriterCheckpoint,
		ChaserCheckpoint:   c.ChaserCheckpoint,
		NodePriority:       c.NodePriority,
	}
}

type Proposal struct {
	ServerId       types.NodeId
	ServerEndpoint types.EndPoint
	LeaderId       types.NodeId
	LeaderEndpoint types.EndPoint
	View           int32

	EpochNumber        int32
	EpochPosition      int64
	EpochId            types.NodeId
	LastCommitPosition int64
	WriterCheckpoint   int64
	ChaserCheckpoint   int64
	NodePriority       int32
}

// Candidate projects the fingerprint fields of a Proposal into a
// LeaderCandidate value for the proposed leader.
func (p Proposal) Candidate() types.LeaderCandidate {
	return types.LeaderCandidate{
		InstanceId:         p.LeaderId,
		ExternalEndpoint:   p.LeaderEndpoint,
		EpochNumber:        p.EpochNumber,
		EpochPosition:      p.EpochPosition,
		EpochId:            p.EpochId,
		LastCommitPosition: p.LastCommitPosition,
		WriterCheckpoint:   p.WriterCheckpoint,
		ChaserCheckpoint:   p.ChaserCheckpoint,
		NodePriority:       p.NodePriority,
	}
}

// ProposalFromCandidate builds a Proposal message for candidate c,
// attributed to sender self at view.
func ProposalFromCandidate(self types.MemberInfo, c types.LeaderCandidate, view int32) Proposal {
	return Proposal{
		ServerId:           self.InstanceId,
		ServerEndpoint:     self.ExternalEndpoint,
		LeaderId:           c.InstanceId,
		LeaderEndpoint:     c.ExternalEndpoint,
		View:               view,
		EpochNumber:        c.EpochNumber,
		EpochPosition:      c.EpochPosition,
		EpochId:            c.EpochId,
		LastCommitPosition: c.LastCommitPosition,
		WriterCheckpoint:   c.WriterCheckpoint,
		ChaserCheckpoint:   c.ChaserCheckpoint,
		NodePriority:       c.NodePriority,
	}
}

type Accept struct {
	ServerId       types.NodeId
	ServerEndpoint types.EndPoint
	LeaderId       types.NodeId
	LeaderEndpoint types.EndPoint
	View           int32
}

// --- resignation messages ---

type LeaderIsResigning struct {
	LeaderId       types.NodeId
	LeaderEndpoint types.EndPoint
}

type LeaderIsResigningOk struct {
	LeaderId       types.NodeId
	LeaderEndpoint types.EndPoint
	ServerId       types.NodeId
	ServerEndpoint types.EndPoint
}

// --- outbound-only messages ---

// ElectionsDone is published locally exactly once per (view, leader)
// pair.
type ElectionsDone struct {
	View   int32
	Leader types.MemberInfo
}

// InitiateLeaderResignation is published once a resigning leader has
// collected a majority of LeaderIsResigningOk replies. The shutdown
// path of the wider system is expected to act on it; the election core
// does nothing further with it.
type InitiateLeaderResignation struct{}

// UpdateNodePriority is published whenever SetNodePriority is applied,
// so other local subsystems can observe the change without polling.
type UpdateNodePriority struct {
	Value int32
}

func (StartElections) isElectionMessage()        {}
func (ElectionsTimedOut) isElectionMessage()      {}
func (BecomeShuttingDown) isElectionMessage()     {}
func (SetNodePriority) isElectionMessage()        {}
func (ResignNode) isElectionMessage()             {}
func (GossipUpdated) isElectionMessage()          {}
func (SendViewChangeProof) isElectionMessage()    {}
func (ViewChange) isElectionMessage()             {}
func (ViewChangeProof) isElectionMessage()        {}
func (Prepare) isElectionMessage()                {}
func (PrepareOk) isElectionMessage()              {}
func (Proposal) isElectionMessage()               {}
func (Accept) isElectionMessage()                 {}
func (LeaderIsResigning) isElectionMessage()      {}
func (LeaderIsResigningOk) isElectionMessage()    {}
func (ElectionsDone) isElectionMessage()          {}
func (InitiateLeaderResignation) isElectionMessage() {}
func (UpdateNodePriority) isElectionMessage()     {}
