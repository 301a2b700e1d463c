package face

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/reflexndn/rfwd/packet"
)

// frameKind tags which of the three packet classes a frame carries. The
// Interest/Data/NACK TLV wire format itself is out of scope (spec.md §1);
// this length-prefixed gob framing is the minimal concrete encoding needed
// to drive real byte-stream and datagram transports.
type frameKind uint8

const (
	frameInterest frameKind = iota
	frameData
	frameNack
)

// writeFrame writes a single length-prefixed, kind-tagged frame to w.
func writeFrame(w io.Writer, kind frameKind, payload any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("face: encode frame: %w", err)
	}
	body := buf.Bytes()

	header := make([]byte, 5)
	header[0] = byte(kind)
	binary.BigEndian.PutUint32(header[1:], uint32(len(body)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// readFrame reads a single frame from r, returning its kind and decoded
// payload (one of *packet.Interest, *packet.Data, *packet.Nack).
func readFrame(r *bufio.Reader) (frameKind, any, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	kind := frameKind(header[0])
	n := binary.BigEndian.Uint32(header[1:])

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}

	dec := gob.NewDecoder(bytes.NewReader(body))
	switch kind {
	case frameInterest:
		var i packet.Interest
		if err := dec.Decode(&i); err != nil {
			return 0, nil, err
		}
		return kind, &i, nil
	case frameData:
		var d packet.Data
		if err := dec.Decode(&d); err != nil {
			return 0, nil, err
		}
		return kind, &d, nil
	case frameNack:
		var n packet.Nack
		if err := dec.Decode(&n); err != nil {
			return 0, nil, err
		}
		return kind, &n, nil
	default:
		return 0, nil, fmt.Errorf("face: unknown frame kind %d", kind)
	}
}
