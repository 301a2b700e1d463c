package face

import (
	"bufio"
	"bytes"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/packet"
)

// WebSocketFace is a Face over a gorilla/websocket connection, used for
// browser-facing consumer/producer endpoints (spec.md §6).
type WebSocketFace struct {
	Base
	conn *websocket.Conn
	wmu  sync.Mutex
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// UpgradeWebSocket upgrades an incoming HTTP request to a WebSocket Face.
func UpgradeWebSocket(w http.ResponseWriter, r *http.Request) (*WebSocketFace, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return newWebSocketFace(conn, ScopeFor("ws", host)), nil
}

// DialWebSocket connects to a remote WebSocket listener.
func DialWebSocket(url string) (*WebSocketFace, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return newWebSocketFace(conn, ScopeNonLocal), nil
}

func newWebSocketFace(conn *websocket.Conn, scope Scope) *WebSocketFace {
	f := &WebSocketFace{conn: conn}
	f.Init(scope, LinkPointToPoint)
	go f.runReceive()
	return f
}

func (f *WebSocketFace) String() string { return "ws://" + f.conn.RemoteAddr().String() }

func (f *WebSocketFace) SendInterest(i *packet.Interest) error { return f.send(frameInterest, i) }
func (f *WebSocketFace) SendData(d *packet.Data) error         { return f.send(frameData, d) }
func (f *WebSocketFace) SendNack(n *packet.Nack) error         { return f.send(frameNack, n) }

func (f *WebSocketFace) send(kind frameKind, payload any) error {
	if !f.IsRunning() {
		return core.ErrFaceClosed
	}
	var buf bytes.Buffer
	if err := writeFrame(&buf, kind, payload); err != nil {
		return err
	}
	f.wmu.Lock()
	defer f.wmu.Unlock()
	return f.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
}

func (f *WebSocketFace) runReceive() {
	for {
		mt, data, err := f.conn.ReadMessage()
		if err != nil || mt != websocket.BinaryMessage {
			f.Close()
			return
		}
		kind, payload, err := readFrame(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			continue
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

func (f *WebSocketFace) Close() {
	if !f.MarkStopped() {
		return
	}
	f.conn.Close()
	core.Log.Debug(f, "face closed")
}
