package face

import (
	"bufio"
	"context"
	"crypto/tls"
	"sync"

	"github.com/quic-go/quic-go"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/packet"
)

// QuicFace is a Face carried over a single bidirectional QUIC stream,
// used for secured consumer/producer endpoints and inter-forwarder links
// (spec.md §6).
type QuicFace struct {
	Base
	conn   *quic.Conn
	stream *quic.Stream
	reader *bufio.Reader
	wmu    sync.Mutex
}

// DialQuic opens a QUIC connection plus its single data stream to addr.
func DialQuic(ctx context.Context, addr string, tlsConf *tls.Config) (*QuicFace, error) {
	conn, err := quic.DialAddr(ctx, addr, tlsConf, nil)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return newQuicFace(conn, stream), nil
}

// ListenQuic accepts QUIC connections on addr, handing each one's first
// stream to accept as a new Face.
func ListenQuic(ctx context.Context, addr string, tlsConf *tls.Config, accept func(Face)) (*quic.Listener, error) {
	ln, err := quic.ListenAddr(addr, tlsConf, nil)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				return
			}
			stream, err := conn.AcceptStream(ctx)
			if err != nil {
				continue
			}
			accept(newQuicFace(conn, stream))
		}
	}()
	return ln, nil
}

func newQuicFace(conn *quic.Conn, stream *quic.Stream) *QuicFace {
	f := &QuicFace{conn: conn, stream: stream, reader: bufio.NewReader(stream)}
	f.Init(ScopeNonLocal, LinkPointToPoint)
	go f.runReceive()
	return f
}

func (f *QuicFace) String() string { return "quic://" + f.conn.RemoteAddr().String() }

func (f *QuicFace) SendInterest(i *packet.Interest) error { return f.send(frameInterest, i) }
func (f *QuicFace) SendData(d *packet.Data) error         { return f.send(frameData, d) }
func (f *QuicFace) SendNack(n *packet.Nack) error         { return f.send(frameNack, n) }

func (f *QuicFace) send(kind frameKind, payload any) error {
	if !f.IsRunning() {
		return core.ErrFaceClosed
	}
	f.wmu.Lock()
	defer f.wmu.Unlock()
	return writeFrame(f.stream, kind, payload)
}

func (f *QuicFace) runReceive() {
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

func (f *QuicFace) Close() {
	if !f.MarkStopped() {
		return
	}
	f.stream.Close()
	f.conn.CloseWithError(0, "")
	core.Log.Debug(f, "face closed")
}
