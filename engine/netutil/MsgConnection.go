package netutil

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
)

// MsgConnection sends and receives msgpack encoded messages on a stream
//
// Messages are self delimiting so no extra framing is needed. Send is safe
// for concurrent use; Recv must be called from one goroutine.
type MsgConnection struct {
	conn     Connection
	encoder  *msgpack.Encoder
	decoder  *msgpack.Decoder
	sendLock sync.Mutex
	closed   xnsyncutil.AtomicBool
}

// NewMsgConnection creates a MsgConnection on conn
func NewMsgConnection(conn Connection) *MsgConnection {
	return &MsgConnection{
		conn:    conn,
		encoder: msgpack.NewEncoder(conn),
		decoder: msgpack.NewDecoder(conn),
	}
}

// Send encodes msg and flushes it to the remote
func (mc *MsgConnection) Send(msg interface{}) error {
	mc.sendLock.Lock()
	defer mc.sendLock.Unlock()

	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s: Send %+v", mc, msg)
	}
	if err := mc.encoder.Encode(msg); err != nil {
		return err
	}
	return mc.conn.Flush()
}

// Recv decodes the next message into msg
func (mc *MsgConnection) Recv(msg interface{}) error {
	if err := mc.decoder.Decode(msg); err != nil {
		return err
	}
	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s: Recv %+v", mc, msg)
	}
	return nil
}

// SetRecvDeadline set receive deadline
func (mc *MsgConnection) SetRecvDeadline(deadline time.Time) error {
	return mc.conn.SetReadDeadline(deadline)
}

// Close this connection
func (mc *MsgConnection) Close() error {
	mc.closed.Store(true)
	return mc.conn.Close()
}

// IsClosed returns if the connection is closed
func (mc *MsgConnection) IsClosed() bool {
	return mc.closed.Load()
}

// RemoteAddr returns the remote address
func (mc *MsgConnection) RemoteAddr() net.Addr {
	return mc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (mc *MsgConnection) LocalAddr() net.Addr {
	return mc.conn.LocalAddr()
}

func (mc *MsgConnection) String() string {
	return fmt.Sprintf("MsgConnection<%s-%s>", mc.LocalAddr(), mc.RemoteAddr())
}
