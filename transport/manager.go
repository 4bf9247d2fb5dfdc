package transport

import (
	"net"
	"net/rpc"

	"github.com/quorumforge/elections/types"
	"github.com/sirupsen/logrus"
)

// Manager starts the inbound net/rpc listener for a Service, mirroring
// the accept-and-retry loop of a plain net/rpc server: any transient
// listener error is logged and the loop re-establishes it rather than
// exiting the process.
type Manager struct {
	logger logrus.FieldLogger
}

func NewManager(logger logrus.FieldLogger) *Manager {
	return &Manager{logger: logger}
}

// Start registers service under the name "Service", plus admin under
// "Admin" if non-nil, and serves both on address forever. It blocks the
// calling goroutine; callers run it via `go manager.Start(...)`.
func (m *Manager) Start(address types.EndPoint, service *Service, admin *AdminService) error {
	server := rpc.NewServer()
	if err := server.RegisterName("Service", service); err != nil {
		return err
	}
	if admin != nil {
		if err := server.RegisterName("Admin", admin); err != nil {
			return err
		}
	}
	for {
		listener, err := net.Listen("tcp", address.String())
		if err != nil {
			return err
		}
		m.logger.WithField("address", address.String()).Info("election transport listening")
		server.Accept(listener)
		m.logger.Warn("election transport listener returned, re-establishing")
	}
}
