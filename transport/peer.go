package transport

import (
	"io"
	"net/rpc"
	"time"

	"github.com/quorumforge/elections/types"
)

// peer is a lazily-connected net/rpc client to one cluster member:
// connections are only opened on first use and transparently redialed
// on EOF.
type peer struct {
	address types.EndPoint
	client  *rpc.Client
}

func newPeer(address types.EndPoint) *peer {
	return &peer{address: address}
}

func (p *peer) call(method string, args interface{}, result interface{}) (err error) {
	for i := 0; i < 3; i++ {
		if p.client == nil {
			if p.client, err = rpc.Dial("tcp", p.address.String()); err != nil {
				p.client = nil
				time.Sleep(time.Second)
				continue
			}
		}
		if err = p.client.Call(method, args, result); err == io.EOF {
			p.client.Close()
			p.client = nil
			continue
		}
		break
	}
	return
}

func (p *peer) close() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}
