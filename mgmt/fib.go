package mgmt

import (
	"net/url"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/fw"
	"github.com/reflexndn/rfwd/table"
)

// FIBModule is the "fib" management noun: add-nexthop, remove-nexthop,
// list (spec.md §6), adapted from the teacher's fw/mgmt/fib.go.
type FIBModule struct {
	fwd   *fw.Forwarder
	faces *face.Table
}

func (f *FIBModule) Noun() string { return "fib" }

func (f *FIBModule) String() string { return "mgmt-fib" }

type fibNextHopParams struct {
	Name   string `schema:"name,required"`
	FaceId uint64 `schema:"face"`
	Cost   int    `schema:"cost"`
}

func (f *FIBModule) Dispatch(verb string, args url.Values) (*ControlResponse, error) {
	switch verb {
	case "add-nexthop":
		return f.add(args)
	case "remove-nexthop":
		return f.remove(args)
	case "list":
		return f.list()
	}
	return nil, core.ErrNoSuchCommand{Noun: f.Noun(), Verb: verb}
}

// add registers or updates a FIB nexthop (spec.md §6), grounded on
// FIBModule.add in fw/mgmt/fib.go.
func (f *FIBModule) add(args url.Values) (*ControlResponse, error) {
	var p fibNextHopParams
	if err := decodeParams(&p, args); err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect"}, nil
	}
	name, err := enc.NameFromStr(p.Name)
	if err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect (bad name)"}, nil
	}
	if f.faces.Get(p.FaceId) == nil {
		return &ControlResponse{Code: 410, Text: "Face does not exist"}, nil
	}
	entry := f.fwd.Table.Fib.AddNextHop(name, p.FaceId, p.Cost)
	core.Log.Info(f, "created nexthop", "name", name.String(), "faceid", p.FaceId, "cost", p.Cost)
	return &ControlResponse{Code: 200, Text: "OK", Body: entry}, nil
}

// remove drops a FIB nexthop, grounded on FIBModule.remove.
func (f *FIBModule) remove(args url.Values) (*ControlResponse, error) {
	var p fibNextHopParams
	if err := decodeParams(&p, args); err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect"}, nil
	}
	name, err := enc.NameFromStr(p.Name)
	if err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect (bad name)"}, nil
	}
	f.fwd.Table.Fib.RemoveNextHop(name, p.FaceId)
	core.Log.Info(f, "removed nexthop", "name", name.String(), "faceid", p.FaceId)
	return &ControlResponse{Code: 200, Text: "OK"}, nil
}

// fibRow is one row of the "fib list" dataset.
type fibRow struct {
	Name     string
	NextHops []table.NextHop
}

// list reports every FIB entry, grounded on FIBModule.list.
func (f *FIBModule) list() (*ControlResponse, error) {
	entries := f.fwd.Table.Fib.AllEntries()
	rows := make([]fibRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, fibRow{Name: e.Name.String(), NextHops: e.NextHops})
	}
	return &ControlResponse{Code: 200, Text: "OK", Body: rows}, nil
}
