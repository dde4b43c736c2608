package proto

import (
	"github.com/zoneworld/zoneworld/engine/netutil"
)

// ZoneConnection is the client protocol on top of a message connection
type ZoneConnection struct {
	*netutil.MsgConnection
}

// NewZoneConnection creates a ZoneConnection using network connection
func NewZoneConnection(conn netutil.Connection) *ZoneConnection {
	return &ZoneConnection{
		MsgConnection: netutil.NewMsgConnection(conn),
	}
}

// SendRequest sends a request to the server
func (zc *ZoneConnection) SendRequest(req *Request) error {
	return zc.Send(req)
}

// RecvRequest receives the next request from a client
func (zc *ZoneConnection) RecvRequest() (*Request, error) {
	var req Request
	if err := zc.Recv(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// SendResult sends a result to the client
func (zc *ZoneConnection) SendResult(res *Result) error {
	return zc.Send(res)
}

// RecvResult receives the next result from the server
func (zc *ZoneConnection) RecvResult() (*Result, error) {
	var res Result
	if err := zc.Recv(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
