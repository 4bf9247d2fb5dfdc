// Package election implements the leader election core described in
// the design: a Paxos-style, rotating-coordinator state machine that
// selects exactly one authoritative writer per view among a fixed set
// of cluster members.
package election

import (
	"time"

	"github.com/quorumforge/elections/types"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// Deps bundles the collaborator ports a Coordinator needs. All fields
// except Logger are required.
type Deps struct {
	Publisher        Publisher
	Timer            TimerPort
	Transport        TransportPort
	Clock            Clock
	EpochSource      EpochSource
	CheckpointSource CheckpointSource
	Logger           logrus.FieldLogger
}

func (d Deps) validate() error {
	var errs error
	if d.Publisher == nil {
		errs = multierr.Append(errs, errConfig("publisher is required"))
	}
	if d.Timer == nil {
		errs = multierr.Append(errs, errConfig("timer is required"))
	}
	if d.Transport == nil {
		errs = multierr.Append(errs, errConfig("transport is required"))
	}
	if d.Clock == nil {
		errs = multierr.Append(errs, errConfig("clock is required"))
	}
	if d.EpochSource == nil {
		errs = multierr.Append(errs, errConfig("epoch source is required"))
	}
	if d.CheckpointSource == nil {
		errs = multierr.Append(errs, errConfig("checkpoint source is required"))
	}
	return errs
}

// Status is a point-in-time, read-only snapshot of the coordinator's
// state, safe to read from a goroutine other than the one driving
// Handle (see Coordinator.Status).
type Status struct {
	State             State
	LastAttemptedView int32
	LastInstalledView int32
	Leader            *types.NodeId
	NodePriority      int32
	Servers           []types.MemberInfo
}

// Coordinator is the Elections Coordinator: a single-owner, event-driven
// state machine. It owns no threads; every exported method must be
// invoked serially by the caller's message bus dispatcher, except
// Status, which is safe to call concurrently.
type Coordinator struct {
	cfg    Config
	self   types.NodeInfo
	logger logrus.FieldLogger

	publisher        Publisher
	timer            TimerPort
	transport        TransportPort
	clock            Clock
	epochSource      EpochSource
	checkpointSource CheckpointSource

	state             State
	lastAttemptedView int32
	lastInstalledView int32

	vcReceived                  map[types.NodeId]struct{}
	prepareOkReceived           map[types.NodeId]PrepareOk
	acceptsReceived             map[types.NodeId]struct{}
	leaderIsResigningOkReceived map[types.NodeId]struct{}
	emittedDone                 map[doneKey]struct{}

	leaderProposal            *types.LeaderCandidate
	leader                    *types.NodeId
	lastElectedLeader         *types.NodeId
	resigningLeaderInstanceId *types.NodeId
	resignationInitiated      bool

	servers      []types.MemberInfo
	nodePriority int32

	proofArmed    bool
	progressToken Token

	status atomic.Value
}

// New constructs a Coordinator. It fails fast if cfg or deps are
// invalid; once constructed the coordinator never panics.
func New(cfg Config, deps Deps) (*Coordinator, error) {
	var errs error
	if err := cfg.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := deps.validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errs
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Coordinator{
		cfg:  cfg,
		self: cfg.Self,
		logger: logger.WithFields(logrus.Fields{
			"component": "election",
			"node_id":   cfg.Self.InstanceId.String(),
		}),
		publisher:        deps.Publisher,
		timer:            deps.Timer,
		transport:        deps.Transport,
		clock:            deps.Clock,
		epochSource:      deps.EpochSource,
		checkpointSource: deps.CheckpointSource,

		state:             Idle,
		lastAttemptedView: -1,
		lastInstalledView: -1,
		nodePriority:      cfg.NodePriority,

		vcReceived:                  map[types.NodeId]struct{}{},
		prepareOkReceived:           map[types.NodeId]PrepareOk{},
		acceptsReceived:             map[types.NodeId]struct{}{},
		leaderIsResigningOkReceived: map[types.NodeId]struct{}{},
		emittedDone:                 map[doneKey]struct{}{},
	}
	c.publishStatus()
	return c, nil
}

// Status returns a snapshot of the coordinator's state. Unlike Handle,
// it is safe to call from any goroutine.
func (c *Coordinator) Status() Status {
	if s, ok := c.status.Load().(Status); ok {
		return s
	}
	return Status{State: Idle, LastAttemptedView: -1, LastInstalledView: -1}
}

func (c *Coordinator) publishStatus() {
	serversCopy := make([]types.MemberInfo, len(c.servers))
	copy(serversCopy, c.servers)
	var leader *types.NodeId
	if c.leader != nil {
		id := *c.leader
		leader = &id
	}
	c.status.Store(Status{
		State:             c.state,
		LastAttemptedView: c.lastAttemptedView,
		LastInstalledView: c.lastInstalledView,
		Leader:            leader,
		NodePriority:      c.nodePriority,
		Servers:           serversCopy,
	})
}

// Handle is the coordinator's single logical operation: it dispatches
// msg to the appropriate handler. Handlers must be invoked serially;
// the coordinator's own self-delivery of locally produced messages
// re-enters Handle on the same stack and must be tolerated.
func (c *Coordinator) Handle(msg Message) {
	if c.state == Shutdown {
		return
	}
	if c.state == Idle && !isControlMessage(msg) {
		if _, ok := msg.(StartElections); !ok {
			c.dropped(msg, "idle state accepts only StartElections")
			return
		}
	}

	switch m := msg.(type) {
	case StartElections:
		c.onStartElections()
	case ElectionsTimedOut:
		c.onElectionsTimedOut(m)
	case BecomeShuttingDown:
		c.onBecomeShuttingDown()
	case SetNodePriority:
		c.onSetNodePriority(m)
	case ResignNode:
		c.onResignNode()
	case GossipUpdated:
		c.onGossipUpdated(m)
	case SendViewChangeProof:
		c.onSendViewChangeProofTick()
	case ViewChange:
		c.onViewChange(m)
	case ViewChangeProof:
		c.onViewChangeProof(m)
	case Prepare:
		c.onPrepare(m)
	case PrepareOk:
		c.onPrepareOk(m)
	case Proposal:
		c.onProposal(m)
	case Accept:
		c.onAccept(m)
	case LeaderIsResigning:
		c.onLeaderIsResigning(m)
	case LeaderIsResigningOk:
		c.onLeaderIsResigningOk(m)
	default:
		c.logger.WithField("type", "unknown").Warn("dropping message of unrecognized type")
	}
	c.publishStatus()
}

// isControlMessage reports whether msg belongs to the control group,
// which is exempt from the Idle-state drop rule.
func isControlMessage(msg Message) bool {
	switch msg.(type) {
	case StartElections, ElectionsTimedOut, BecomeShuttingDown, SetNodePriority, ResignNode, GossipUpdated, SendViewChangeProof:
		return true
	default:
		return false
	}
}

func (c *Coordinator) dropped(msg Message, reason string) {
	c.logger.WithFields(logrus.Fields{
		"reason": reason,
		"state":  c.state.String(),
		"view":   c.lastAttemptedView,
	}).Debug("dropping election message")
}

// --- control handlers ---

func (c *Coordinator) onStartElections() {
	if c.state == ElectingLeader {
		c.logger.Debug("StartElections ignored: an attempt is already in flight")
		return
	}
	c.shiftToView(c.lastAttemptedView + 1)
	c.armProofTicker()
}

func (c *Coordinator) onElectionsTimedOut(m ElectionsTimedOut) {
	if m.View != c.lastAttemptedView {
		return // late fire for a view we've moved past
	}
	if c.leader != nil {
		return // already elected, nothing to retry
	}
	c.shiftToView(c.lastAttemptedView + 1)
}

func (c *Coordinator) onBecomeShuttingDown() {
	c.state = Shutdown
	c.logger.Info("elections coordinator shutting down")
}

func (c *Coordinator) onSetNodePriority(m SetNodePriority) {
	c.nodePriority = m.Value
	c.publisher.Publish(UpdateNodePriority{Value: m.Value})
}

func (c *Coordinator) onResignNode() {
	if c.leader == nil || *c.leader != c.self.InstanceId {
		c.logger.Warn("ResignNode ignored: this node is not the current leader")
		return
	}
	self := c.self.InstanceId
	c.resigningLeaderInstanceId = &self
	c.resignationInitiated = false
	c.leaderIsResigningOkReceived = map[types.NodeId]struct{}{}

	ok := LeaderIsResigningOk{
		LeaderId:       c.self.InstanceId,
		LeaderEndpoint: c.self.ExternalEndpoint,
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
	}
	c.Handle(ok)
	c.broadcast(LeaderIsResigning{
		LeaderId:       c.self.InstanceId,
		LeaderEndpoint: c.self.ExternalEndpoint,
	})
}

func (c *Coordinator) onGossipUpdated(m GossipUpdated) {
	c.servers = types.NormalizeServers(m.Members)
}

// --- periodic view-change proof ---

func (c *Coordinator) armProofTicker() {
	if c.proofArmed {
		return
	}
	c.proofArmed = true
	c.scheduleProofTick()
}

func (c *Coordinator) scheduleProofTick() {
	c.timer.Schedule(c.cfg.proofInterval(), func() {
		c.Handle(SendViewChangeProof{})
	})
}

func (c *Coordinator) onSendViewChangeProofTick() {
	if c.lastInstalledView >= 0 {
		c.broadcast(ViewChangeProof{
			ServerId:       c.self.InstanceId,
			ServerEndpoint: c.self.ExternalEndpoint,
			InstalledView:  c.lastInstalledView,
		})
	}
	c.scheduleProofTick()
}

// --- election protocol handlers ---

func (c *Coordinator) onViewChange(m ViewChange) {
	if m.AttemptedView <= c.lastInstalledView {
		c.dropped(m, "stale attempted_view")
		return
	}
	if m.AttemptedView > c.lastAttemptedView {
		c.shiftToView(m.AttemptedView)
		return // shiftToView self-delivers a ViewChange for the new view,
		// which re-enters this handler and records the vote below.
	}
	if m.AttemptedView != c.lastAttemptedView {
		return // stale relative to our current attempt; not counted
	}

	c.vcReceived[m.ServerId] = struct{}{}
	if c.state != ElectingLeader {
		return
	}
	if len(c.vcReceived) < c.quorum() {
		return
	}
	proposer, ok := c.proposerFor(c.lastAttemptedView)
	if ok && proposer.InstanceId == c.self.InstanceId {
		c.enterPrepareSubPhase(c.lastAttemptedView)
	}
}

func (c *Coordinator) onViewChangeProof(m ViewChangeProof) {
	if m.InstalledView <= c.lastInstalledView {
		c.dropped(m, "stale installed_view")
		return
	}
	proposer, ok := c.proposerFor(m.InstalledView)
	if ok && proposer.InstanceId == c.self.InstanceId {
		c.enterPrepareSubPhase(m.InstalledView)
		return
	}
	c.lastAttemptedView = m.InstalledView
	c.lastInstalledView = m.InstalledView
	c.state = Acceptor
	c.resetAccepts()
	c.rearmProgressTimer()
}

func (c *Coordinator) onPrepare(m Prepare) {
	if _, known := types.FindMember(c.servers, m.ServerId); !known {
		c.dropped(m, "unknown sender")
		return
	}
	if m.View != c.lastAttemptedView {
		c.dropped(m, "stale view")
		return
	}

	c.lastInstalledView = m.View
	c.state = Acceptor
	c.resetAccepts()

	if c.self.IsReadOnlyReplica {
		return
	}
	own := PrepareOkFromCandidate(m.View, c.ownCandidate())
	c.transport.Send(m.ServerEndpoint, own, c.deadline())
}

func (c *Coordinator) onPrepareOk(m PrepareOk) {
	if m.View != c.lastAttemptedView {
		c.dropped(m, "stale view")
		return
	}
	c.prepareOkReceived[m.ServerId] = m
	if c.state != ElectingLeader {
		return
	}
	if len(c.prepareOkReceived) < c.quorum() {
		return
	}
	proposer, ok := c.proposerFor(c.lastAttemptedView)
	if ok && proposer.InstanceId == c.self.InstanceId {
		c.becomeLeaderProposer(c.lastAttemptedView)
	}
}

func (c *Coordinator) onProposal(m Proposal) {
	if _, known := types.FindMember(c.servers, m.ServerId); !known {
		c.dropped(m, "unknown sender")
		return
	}
	if m.View != c.lastInstalledView {
		c.dropped(m, "stale view")
		return
	}
	if _, known := types.FindMember(c.servers, m.LeaderId); !known {
		c.dropped(m, "unknown leader")
		return
	}

	candidate := m.Candidate()
	if !IsLegitimateLeader(candidate, c.self.InstanceId, c.ownCandidate(), c.servers, c.lastElectedLeader, c.resigningLeaderInstanceId) {
		c.dropped(m, "not a legitimate leader")
		return
	}

	c.leaderProposal = &candidate
	c.resetAccepts()
	// implicit accept on behalf of the proposer, per the design note on
	// synthesized proposer accepts (harmless under set semantics).
	c.acceptsReceived[m.ServerId] = struct{}{}

	accept := Accept{
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
		LeaderId:       candidate.InstanceId,
		LeaderEndpoint: candidate.ExternalEndpoint,
		View:           m.View,
	}
	c.Handle(accept)
	c.broadcast(accept)
	if c.state != Leader {
		c.state = Acceptor
	}
}

func (c *Coordinator) onAccept(m Accept) {
	if c.leaderProposal == nil {
		return
	}
	if m.View != c.lastInstalledView {
		return
	}
	if m.LeaderId != c.leaderProposal.InstanceId {
		return
	}
	c.acceptsReceived[m.ServerId] = struct{}{}
	if len(c.acceptsReceived) < c.quorum() {
		return
	}

	key := doneKey{view: m.View, leader: m.LeaderId}
	if _, done := c.emittedDone[key]; done {
		return
	}
	c.emittedDone[key] = struct{}{}

	leaderID := m.LeaderId
	c.leader = &leaderID
	c.lastElectedLeader = &leaderID
	c.resigningLeaderInstanceId = nil

	c.publisher.Publish(ElectionsDone{View: m.View, Leader: c.resolveLeaderMember(*c.leaderProposal)})
}

// --- resignation handlers ---

func (c *Coordinator) onLeaderIsResigning(m LeaderIsResigning) {
	if c.self.IsReadOnlyReplica {
		return
	}
	c.resigningLeaderInstanceId = &m.LeaderId
	c.transport.Send(m.LeaderEndpoint, LeaderIsResigningOk{
		LeaderId:       m.LeaderId,
		LeaderEndpoint: m.LeaderEndpoint,
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
	}, c.deadline())
}

func (c *Coordinator) onLeaderIsResigningOk(m LeaderIsResigningOk) {
	if m.LeaderId != c.self.InstanceId {
		return
	}
	c.leaderIsResigningOkReceived[m.ServerId] = struct{}{}
	if c.resignationInitiated {
		return
	}
	if len(c.leaderIsResigningOkReceived) >= c.quorum() {
		c.resignationInitiated = true
		c.publisher.Publish(InitiateLeaderResignation{})
	}
}

// --- shared phase transitions ---

// shiftToView starts (or restarts) an election attempt at view: it
// clears the current attempt's phase sets, self-delivers this node's
// own ViewChange before broadcasting it to the rest of the cluster, and
// arms the progress timeout.
func (c *Coordinator) shiftToView(view int32) {
	c.lastAttemptedView = view
	c.vcReceived = map[types.NodeId]struct{}{}
	c.prepareOkReceived = map[types.NodeId]PrepareOk{}
	c.resetAccepts()
	c.state = ElectingLeader
	c.rearmProgressTimer()

	vc := ViewChange{
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
		AttemptedView:  view,
	}
	c.Handle(vc)
	c.broadcast(vc)
}

// enterPrepareSubPhase installs view as both the attempted and the
// installed view, self-delivers this node's own PrepareOk, and
// broadcasts Prepare. Reached either by a proposer that just won a
// view-change majority, or by a proposer that jumped ahead via a
// ViewChangeProof.
func (c *Coordinator) enterPrepareSubPhase(view int32) {
	c.lastAttemptedView = view
	c.lastInstalledView = view
	c.state = ElectingLeader
	c.prepareOkReceived = map[types.NodeId]PrepareOk{}
	c.resetAccepts()
	c.rearmProgressTimer()

	own := PrepareOkFromCandidate(view, c.ownCandidate())
	c.Handle(own)
	c.broadcast(Prepare{
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
		View:           view,
	})
}

// becomeLeaderProposer transitions the proposer of view into the Leader
// (Paxos-round-driver) state once it has a majority of PrepareOks. The
// chosen candidate need not be this node.
func (c *Coordinator) becomeLeaderProposer(view int32) {
	candidate, ok := GetBestLeaderCandidate(c.prepareOkReceived, c.servers, c.lastElectedLeader, c.resigningLeaderInstanceId)
	if !ok {
		c.logger.Warn("majority of PrepareOk received but no candidate could be ranked")
		return
	}
	c.state = Leader
	c.leaderProposal = &candidate
	c.resetAccepts()

	accept := Accept{
		ServerId:       c.self.InstanceId,
		ServerEndpoint: c.self.ExternalEndpoint,
		LeaderId:       candidate.InstanceId,
		LeaderEndpoint: candidate.ExternalEndpoint,
		View:           view,
	}
	c.Handle(accept)
	c.broadcast(ProposalFromCandidate(c.selfMember(), candidate, view))
}

func (c *Coordinator) resetAccepts() {
	c.acceptsReceived = map[types.NodeId]struct{}{}
}

func (c *Coordinator) rearmProgressTimer() {
	view := c.lastAttemptedView
	c.progressToken = c.timer.Schedule(c.cfg.progressTimeout(), func() {
		c.Handle(ElectionsTimedOut{View: view})
	})
}

// --- helpers ---

func (c *Coordinator) quorum() int {
	return c.cfg.ClusterSize/2 + 1
}

func (c *Coordinator) proposerFor(view int32) (types.MemberInfo, bool) {
	eligible := types.EligibleProposers(c.servers)
	n := len(eligible)
	if n == 0 {
		return types.MemberInfo{}, false
	}
	idx := int(view) % n
	if idx < 0 {
		idx += n
	}
	return eligible[idx], true
}

func (c *Coordinator) ownCandidate() types.LeaderCandidate {
	epoch, ok := c.epochSource.GetLastEpoch()
	if !ok {
		epoch = types.NoEpoch
	}
	return types.LeaderCandidate{
		InstanceId:         c.self.InstanceId,
		ExternalEndpoint:   c.self.ExternalEndpoint,
		EpochNumber:        epoch.EpochNumber,
		EpochPosition:      epoch.EpochPosition,
		EpochId:            epoch.EpochId,
		LastCommitPosition: c.checkpointSource.LastCommitPosition(),
		WriterCheckpoint:   c.checkpointSource.WriterCheckpoint(),
		ChaserCheckpoint:   c.checkpointSource.ChaserCheckpoint(),
		NodePriority:       c.nodePriority,
	}
}

func (c *Coordinator) selfMember() types.MemberInfo {
	return types.MemberInfo{
		InstanceId:        c.self.InstanceId,
		ExternalEndpoint:  c.self.ExternalEndpoint,
		State:             types.VNodeFollower,
		IsAlive:           true,
		IsReadOnlyReplica: c.self.IsReadOnlyReplica,
	}
}

func (c *Coordinator) resolveLeaderMember(candidate types.LeaderCandidate) types.MemberInfo {
	if m, ok := types.FindMember(c.servers, candidate.InstanceId); ok {
		return m
	}
	return types.MemberInfo{
		InstanceId:         candidate.InstanceId,
		ExternalEndpoint:   candidate.ExternalEndpoint,
		State:              types.VNodeLeader,
		IsAlive:            true,
		EpochNumber:        candidate.EpochNumber,
		EpochPosition:      candidate.EpochPosition,
		EpochId:            candidate.EpochId,
		LastCommitPosition: candidate.LastCommitPosition,
		WriterCheckpoint:   candidate.WriterCheckpoint,
		ChaserCheckpoint:   candidate.ChaserCheckpoint,
		NodePriority:       candidate.NodePriority,
	}
}

func (c *Coordinator) broadcast(msg Message) {
	deadline := c.deadline()
	for _, m := range c.servers {
		if m.InstanceId == c.self.InstanceId {
			continue
		}
		c.transport.Send(m.ExternalEndpoint, msg, deadline)
	}
}

func (c *Coordinator) deadline() time.Time {
	return c.clock.UTCNow().Add(c.cfg.progressTimeout())
}
