package cmd

import (
	"net"
	"time"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/face"
	"github.com/reflexndn/rfwd/fw"
	"github.com/reflexndn/rfwd/mgmt"
	"github.com/reflexndn/rfwd/table"
)

// Options configures a Daemon's construction, gathering the flags the
// "start" subcommand exposes (spec.md §6), analogous to the teacher's
// CmdYaNFD config plus its --cpu-profile/--mem-profile/--block-profile
// flag set (fw/cmd/cmd.go).
type Options struct {
	UnixSocket      string
	MgmtSocket      string
	CsCapacity      int
	DnlDir          string
	DnlLifetime     time.Duration
	ForwarderConfig core.Config
}

// Daemon bundles the Table, Face table, Forwarder and the two listeners
// (data-plane and management) that make up a running process, mirroring
// the teacher's YaNFD struct in fw/cmd/yanfd.go.
type Daemon struct {
	Table *table.Table
	Faces *face.Table
	Fwd   *fw.Forwarder
	Mgmt  *mgmt.Dispatcher

	dataListener net.Listener
	mgmtListener net.Listener
}

func (d *Daemon) String() string { return "daemon" }

// NewDaemon constructs every piece but does not yet bind a socket.
func NewDaemon(opts Options) (*Daemon, error) {
	sched := fw.NewScheduler()
	tbl, err := table.New(table.Options{
		CsCapacity:  opts.CsCapacity,
		DnlLifetime: opts.DnlLifetime,
		DnlDir:      opts.DnlDir,
		NewTimer:    sched.NewTimer,
	})
	if err != nil {
		return nil, err
	}

	faces := face.NewTable()
	fwd, err := fw.NewForwarder(tbl, faces, opts.ForwarderConfig)
	if err != nil {
		tbl.Close()
		return nil, err
	}

	faces.OnAfterAdd(func(f face.Face) {
		f.SetHandlers(face.Handlers{
			OnInterest: fwd.HandleInterest,
			OnData:     fwd.HandleData,
			OnNack:     fwd.HandleNack,
		})
	})

	return &Daemon{
		Table: tbl,
		Faces: faces,
		Fwd:   fwd,
		Mgmt:  mgmt.NewDispatcher(fwd, faces),
	}, nil
}

// Start binds the data-plane unix socket (accepted connections become
// Faces) and the management unix socket nfdc talks to.
func (d *Daemon) Start(opts Options) error {
	ln, err := face.ListenUnix(opts.UnixSocket, func(f face.Face) {
		d.Faces.Add(f)
	})
	if err != nil {
		return err
	}
	d.dataListener = ln

	mln, err := mgmt.ServeUnix(opts.MgmtSocket, d.Mgmt)
	if err != nil {
		ln.Close()
		return err
	}
	d.mgmtListener = mln

	core.Log.Info(d, "daemon started", "data-socket", opts.UnixSocket, "mgmt-socket", opts.MgmtSocket)
	return nil
}

// Stop closes both listeners, every Face, and the Table's Dead-Nonce List.
func (d *Daemon) Stop() {
	if d.dataListener != nil {
		d.dataListener.Close()
	}
	if d.mgmtListener != nil {
		d.mgmtListener.Close()
	}
	for _, f := range d.Faces.List() {
		d.Faces.Remove(f.ID())
	}
	d.Table.Close()
	core.Log.Info(d, "daemon stopped")
}
