package uuid

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const (
	// UUID_LENGTH is length of a UUID
	UUID_LENGTH = 16
	// TOKEN_LENGTH is length of a session token
	TOKEN_LENGTH = 32
	encodeUUID   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_."
)

var (
	_UUIDEncoding = base64.NewEncoding(encodeUUID).WithPadding(base64.NoPadding)

	counter   uint32
	machineID = readMachineID()
)

// GenUUID generates a new unique id: timestamp, machine, pid and counter
//
// Used for party ids handed out by the gate when a client does not bring one.
func GenUUID() string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:], uint32(time.Now().Unix()))
	copy(b[4:7], machineID)
	pid := os.Getpid()
	b[7] = byte(pid >> 8)
	b[8] = byte(pid)
	i := atomic.AddUint32(&counter, 1)
	b[9] = byte(i >> 16)
	b[10] = byte(i >> 8)
	b[11] = byte(i)
	return _UUIDEncoding.EncodeToString(b[:])
}

// GenToken generates an unguessable session token
//
// The first 12 bytes are a GenUUID so tokens never repeat, the rest are random.
func GenToken() (string, error) {
	var b [24]byte
	if _, err := _UUIDEncoding.Decode(b[:12], []byte(GenUUID())); err != nil {
		return "", err
	}
	if _, err := io.ReadFull(rand.Reader, b[12:]); err != nil {
		return "", err
	}
	return _UUIDEncoding.EncodeToString(b[:]), nil
}

func readMachineID() []byte {
	id := make([]byte, 3)
	hostname, err1 := os.Hostname()
	if err1 != nil {
		if _, err2 := io.ReadFull(rand.Reader, id); err2 != nil {
			panic(fmt.Errorf("cannot get hostname: %v; %v", err1, err2))
		}
		return id
	}
	hw := md5.New()
	hw.Write([]byte(hostname))
	copy(id, hw.Sum(nil))
	return id
}
