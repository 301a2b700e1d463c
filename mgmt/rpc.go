package mgmt

import (
	"encoding/gob"
	"net"
	"net/url"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/table"
)

// The ControlResponse.Body field carries whichever concrete dataset type a
// module returned, through the gob wire codec (spec.md §6), so every
// payload type needs an explicit gob.Register call.
func init() {
	gob.Register([]fibRow{})
	gob.Register(table.NextHop{})
	gob.Register(CSInfo{})
	gob.Register(GeneralStatus{})
	gob.Register(StrategyList{})
}

// commandRequest is the wire shape nfdc sends over the management socket:
// a bare noun/verb/args triple, gob-encoded the same way package face
// frames Interest/Data/Nack (spec.md §6's FaceUri-addressed control
// channel, minus the NDN-TLV ControlParameters codec this build does not
// implement).
type commandRequest struct {
	Noun string
	Verb string
	Args url.Values
}

// commandResponse carries either a ControlResponse or an error string (gob
// cannot carry an `error` interface value across types it hasn't seen, so
// errors are flattened to text).
type commandResponse struct {
	Response *ControlResponse
	Err      string
}

// ServeUnix accepts nfdc connections on path, decoding one commandRequest
// per connection and replying with one commandResponse before closing it.
func ServeUnix(path string, d *Dispatcher) (net.Listener, error) {
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
			go serveConn(conn, d)
		}
	}()
	return ln, nil
}

func serveConn(conn net.Conn, d *Dispatcher) {
	defer conn.Close()

	var req commandRequest
	if err := gob.NewDecoder(conn).Decode(&req); err != nil {
		core.Log.Debug(d, "mgmt: bad request", "err", err)
		return
	}

	resp := commandResponse{}
	cr, err := d.Dispatch(req.Noun, req.Verb, req.Args)
	if err != nil {
		resp.Err = err.Error()
	} else {
		resp.Response = cr
	}

	if err := gob.NewEncoder(conn).Encode(resp); err != nil {
		core.Log.Debug(d, "mgmt: response encode failed", "err", err)
	}
}

// Call connects to a management socket at path and issues one (noun, verb,
// args) command, returning its ControlResponse.
func Call(path, noun, verb string, args url.Values) (*ControlResponse, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := gob.NewEncoder(conn).Encode(commandRequest{Noun: noun, Verb: verb, Args: args}); err != nil {
		return nil, err
	}

	var resp commandResponse
	if err := gob.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Err != "" {
		return nil, &callError{msg: resp.Err}
	}
	return resp.Response, nil
}

type callError struct{ msg string }

func (e *callError) Error() string { return e.msg }
