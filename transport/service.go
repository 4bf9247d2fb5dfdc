// Package transport wires the election coordinator to the network: an
// inbound net/rpc service that turns wire calls into Coordinator.Handle
// invocations, and an outbound TransportPort that turns Handle-issued
// sends into net/rpc calls against peers.
package transport

import (
	"github.com/quorumforge/elections/election"
	"github.com/sirupsen/logrus"
)

// Ack is the empty RPC result every Service method returns; net/rpc
// requires a reply pointer even when there is nothing to report back.
type Ack struct{}

// Service is registered on each node's net/rpc server. Every method
// corresponds to one election protocol or resignation message; each
// simply hands the decoded message to the local coordinator.
//
// net/rpc invokes these methods concurrently with whatever else is
// calling Handle, so the deliver function given to NewService is
// responsible for serializing delivery onto the coordinator's single
// dispatch loop.
type Service struct {
	deliver func(election.Message)
	logger  logrus.FieldLogger
}

// NewService wraps deliver, the function that hands a decoded message
// to the coordinator's single-threaded dispatch loop (see the dispatch
// package's Queue).
func NewService(deliver func(election.Message), logger logrus.FieldLogger) *Service {
	return &Service{deliver: deliver, logger: logger}
}

func (s *Service) ViewChange(args *election.ViewChange, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) ViewChangeProof(args *election.ViewChangeProof, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) Prepare(args *election.Prepare, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) PrepareOk(args *election.PrepareOk, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) Proposal(args *election.Proposal, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) Accept(args *election.Accept, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) LeaderIsResigning(args *election.LeaderIsResigning, reply *Ack) error {
	s.deliver(*args)
	return nil
}

func (s *Service) LeaderIsResigningOk(args *election.LeaderIsResigningOk, reply *Ack) error {
	s.deliver(*args)
	return nil
}
