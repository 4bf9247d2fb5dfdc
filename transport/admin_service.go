package transport

import (
	"github.com/quorumforge/elections/election"
)

// Empty is the argument type for admin RPCs that take no parameters.
type Empty struct{}

// PriorityArgs carries the new node priority for the SetPriority RPC.
type PriorityArgs struct {
	Value int32
}

// AdminService exposes the coordinator's control-message surface over
// net/rpc for adminctl. It is registered under the name "Admin",
// separately from the peer-to-peer Service, so a firewall or ACL layer
// can restrict it to operator hosts.
type AdminService struct {
	deliver func(election.Message)
	status  func() election.Status
}

func NewAdminService(deliver func(election.Message), status func() election.Status) *AdminService {
	return &AdminService{deliver: deliver, status: status}
}

func (a *AdminService) StartElections(args *Empty, reply *Ack) error {
	a.deliver(election.StartElections{})
	return nil
}

func (a *AdminService) Resign(args *Empty, reply *Ack) error {
	a.deliver(election.ResignNode{})
	return nil
}

func (a *AdminService) SetPriority(args *PriorityArgs, reply *Ack) error {
	a.deliver(election.SetNodePriority{Value: args.Value})
	return nil
}

func (a *AdminService) Status(args *Empty, reply *election.Status) error {
	*reply = a.status()
	return nil
}
