package netutil

import (
	"net"
	"time"

	"github.com/xtaci/kcp-go"
	"github.com/zoneworld/zoneworld/engine/consts"
	"github.com/zoneworld/zoneworld/engine/gwlog"
	"github.com/zoneworld/zoneworld/engine/gwutils"
)

const (
	_RESTART_TCP_SERVER_INTERVAL = 3 * time.Second
)

// TCPServerDelegate is the implementations that a TCP server should provide
type TCPServerDelegate interface {
	ServeTCPConnection(net.Conn)
}

// ServeTCPForever serves on specified address as TCP server, for ever ...
func ServeTCPForever(listenAddr string, delegate TCPServerDelegate) {
	for {
		err := serveTCPForeverOnce(listenAddr, delegate)
		gwlog.Errorf("server@%s failed with error: %v, will restart after %s", listenAddr, err, _RESTART_TCP_SERVER_INTERVAL)
		time.Sleep(_RESTART_TCP_SERVER_INTERVAL)
	}
}

func serveTCPForeverOnce(listenAddr string, delegate TCPServerDelegate) (err error) {
	defer func() {
		if e := recover(); e != nil {
			gwlog.TraceError("serveTCPImpl: paniced with error %s", e)
		}
	}()

	return ServeTCP(listenAddr, delegate)
}

// ServeTCP serves on specified address as TCP server
func ServeTCP(listenAddr string, delegate TCPServerDelegate) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	gwlog.Infof("Listening on TCP: %s ...", listenAddr)
	return ServeListener(ln, delegate)
}

// ServeListener accepts connections on ln until it fails
func ServeListener(ln net.Listener, delegate TCPServerDelegate) error {
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if IsTimeoutError(err) {
				continue
			} else {
				return err
			}
		}

		if consts.DEBUG_CLIENTS {
			gwlog.Debugf("Connection from: %s", conn.RemoteAddr())
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			tcpConn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
			tcpConn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
			tcpConn.SetNoDelay(consts.CLIENT_PROXY_SET_TCP_NO_DELAY)
		}
		go delegate.ServeTCPConnection(conn)
	}
}

// ServeKCP serves on specified address as KCP server
//
// KCP sessions are handed to the same delegate as TCP connections.
func ServeKCP(listenAddr string, delegate TCPServerDelegate) {
	kcpListener, err := kcp.ListenWithOptions(listenAddr, nil, 10, 3)
	if err != nil {
		gwlog.Panic(err)
	}

	gwlog.Infof("Listening on KCP: %s ...", listenAddr)

	gwutils.RepeatUntilPanicless(func() {
		for {
			conn, err := kcpListener.AcceptKCP()
			if err != nil {
				gwlog.Panic(err)
			}
			conn.SetReadBuffer(consts.CLIENT_PROXY_READ_BUFFER_SIZE)
			conn.SetWriteBuffer(consts.CLIENT_PROXY_WRITE_BUFFER_SIZE)
			// turbo mode
			conn.SetStreamMode(true)
			conn.SetWriteDelay(true)
			conn.SetNoDelay(1, 10, 2, 1)
			go delegate.ServeTCPConnection(conn)
		}
	})
}
