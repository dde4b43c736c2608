package netutil

import (
	"net"

	"github.com/xiaonanln/netconnutil"
	"github.com/zoneworld/zoneworld/engine/consts"
)

// Connection is a net.Conn whose writes are flushed explicitly
type Connection interface {
	netconnutil.FlushableConn
}

// NetConn adapts a net.Conn to Connection
type NetConn struct {
	net.Conn
}

// Flush does nothing since net.Conn writes are not buffered
func (n NetConn) Flush() error {
	return nil
}

// NewBufferedConnection wraps a client connection for message streams
//
// Temporary errors are retried, writes are buffered until Flush and the
// stream is snappy compressed when compress is set.
func NewBufferedConnection(conn net.Conn, compress bool) Connection {
	conn = netconnutil.NewNoTempErrorConn(conn)
	var c Connection = NetConn{conn}
	if compress {
		c = netconnutil.NewSnappyConn(c)
	}
	return netconnutil.NewBufferedConn(c, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
}
