package face

import (
	"bufio"
	"net"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/packet"
)

// UnixFace is a Face over a Unix stream socket, adapted from the teacher's
// unix-stream-transport.go. It is always Local scope, point-to-point.
type UnixFace struct {
	Base
	conn   net.Conn
	reader *bufio.Reader
	wmu    sync.Mutex
}

// DialUnix connects to a listening unix socket and wraps it as a Face.
func DialUnix(path string) (*UnixFace, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	return newUnixFace(conn), nil
}

// ListenUnix starts accepting unix-socket connections at path, handing
// each one to accept as a new Face.
func ListenUnix(path string, accept func(Face)) (net.Listener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			accept(newUnixFace(conn))
		}
	}()
	return ln, nil
}

func newUnixFace(conn net.Conn) *UnixFace {
	f := &UnixFace{conn: conn, reader: bufio.NewReader(conn)}
	f.Init(ScopeLocal, LinkPointToPoint)
	go f.runReceive()
	return f
}

func (f *UnixFace) String() string { return "unix://" + f.conn.RemoteAddr().String() }

// SendQueueSize returns the kernel send-queue depth for this socket (bytes
// queued but not yet delivered to the peer), probed via TIOCOUTQ, grounded
// on the teacher's UnixStreamTransport.GetSendQueueSize but simplified to
// Linux only. Returns 0 if the platform ioctl fails.
func (f *UnixFace) SendQueueSize() uint64 {
	uc, ok := f.conn.(*net.UnixConn)
	if !ok {
		return 0
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		core.Log.Warn(f, "unable to get raw connection to read send-queue size", "err", err)
		return 0
	}
	var size int
	var ctrlErr error
	err = raw.Control(func(fd uintptr) {
		size, ctrlErr = unix.IoctlGetInt(int(fd), unix.TIOCOUTQ)
	})
	if err != nil || ctrlErr != nil {
		return 0
	}
	return uint64(size)
}

func (f *UnixFace) SendInterest(i *packet.Interest) error { return f.send(frameInterest, i) }
func (f *UnixFace) SendData(d *packet.Data) error         { return f.send(frameData, d) }
func (f *UnixFace) SendNack(n *packet.Nack) error         { return f.send(frameNack, n) }

func (f *UnixFace) send(kind frameKind, payload any) error {
	if !f.IsRunning() {
		return core.ErrFaceClosed
	}
	f.wmu.Lock()
	defer f.wmu.Unlock()
	return writeFrame(f.conn, kind, payload)
}

func (f *UnixFace) runReceive() {
	for {
		kind, payload, err := readFrame(f.reader)
		if err != nil {
			f.Close()
			return
		}
		switch kind {
		case frameInterest:
			if f.handlers.OnInterest != nil {
				f.handlers.OnInterest(payload.(*packet.Interest), f.ID())
			}
		case frameData:
			if f.handlers.OnData != nil {
				f.handlers.OnData(payload.(*packet.Data), f.ID())
			}
		case frameNack:
			if f.handlers.OnNack != nil {
				f.handlers.OnNack(payload.(*packet.Nack), f.ID())
			}
		}
	}
}

func (f *UnixFace) Close() {
	if !f.MarkStopped() {
		return
	}
	f.conn.Close()
	core.Log.Debug(f, "face closed")
}
