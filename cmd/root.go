// Package cmd wires spf13/cobra commands onto a Daemon: "start" boots the
// forwarder, and the "fib"/"cs"/"strategy-choice"/"status" verbs of the
// nfdc group send commands to a running daemon's management socket (spec.md
// §6), adapted from the teacher's fw/cmd.CmdYaNFD plus tools/nfdc.
package cmd

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/mgmt"
)

var opts = Options{
	ForwarderConfig: core.DefaultConfig(),
}

// RootCmd is the "rfwd" CLI's entry point, registering the run group
// ("start") and the management group ("nfdc", holding the "fib", "cs",
// "strategy-choice" and "status" verbs),
// mirroring CmdYaNFD's GroupID split between daemon and nfdc-style verbs.
var RootCmd = &cobra.Command{
	Use:   "rfwd",
	Short: "Reflexive Interest NDN forwarding daemon",
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the forwarding daemon",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&opts.UnixSocket, "unix-socket", "/tmp/rfwd.sock", "Data-plane unix socket path")
	startCmd.Flags().StringVar(&opts.MgmtSocket, "mgmt-socket", "/tmp/rfwd-mgmt.sock", "Management unix socket path")
	startCmd.Flags().IntVar(&opts.CsCapacity, "cs-capacity", 1024, "Content Store capacity, 0 for unbounded")
	startCmd.Flags().StringVar(&opts.DnlDir, "dnl-dir", "", "Dead Nonce List storage directory, empty for in-memory")
	startCmd.Flags().DurationVar(&opts.DnlLifetime, "dnl-lifetime", 6*time.Second, "Dead Nonce List entry lifetime")
	startCmd.Flags().Uint8Var(&opts.ForwarderConfig.DefaultHopLimit, "default-hop-limit", 0, "HopLimit attached to Interests that lack one, 0 to disable")

	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(nfdcCmd)
}

// runStart implements CmdYaNFD.run's shape: build the daemon, bind its
// sockets, then block on SIGINT/SIGTERM before tearing down.
func runStart(cmd *cobra.Command, args []string) error {
	d, err := NewDaemon(opts)
	if err != nil {
		return err
	}
	if err := d.Start(opts); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	core.Log.Info(d, "received signal, exiting", "signal", sig)

	d.Stop()
	return nil
}

// nfdcCmd groups the management verbs, each issuing one request over the
// --mgmt-socket flag's unix socket via mgmt.Call.
var nfdcCmd = &cobra.Command{
	Use:   "nfdc",
	Short: "Send a management command to a running daemon",
}

var nfdcSocket string

func init() {
	nfdcCmd.PersistentFlags().StringVar(&nfdcSocket, "mgmt-socket", "/tmp/rfwd-mgmt.sock", "Management unix socket path")
	nfdcCmd.AddCommand(
		nfdcVerbCmd("fib", "add-nexthop", "name", "face", "cost"),
		nfdcVerbCmd("fib", "remove-nexthop", "name", "face"),
		nfdcVerbCmd("fib", "list"),
		nfdcVerbCmd("cs", "info"),
		nfdcVerbCmd("strategy-choice", "set", "name", "strategy", "version"),
		nfdcVerbCmd("strategy-choice", "unset", "name"),
		nfdcVerbCmd("strategy-choice", "list"),
		nfdcVerbCmd("status", "general"),
	)
}

// nfdcVerbCmd builds one "nfdc <noun>-<verb> [key=value ...]" subcommand,
// parsing its positional args the same key=value way as the teacher's
// ExecCmd (tools/nfdc/nfdc_cmd.go), then decoding them with gorilla/schema
// on the daemon side.
func nfdcVerbCmd(noun, verb string, knownKeys ...string) *cobra.Command {
	allowed := make(map[string]bool, len(knownKeys))
	for _, k := range knownKeys {
		allowed[k] = true
	}
	return &cobra.Command{
		Use:   fmt.Sprintf("%s-%s [key=value ...]", noun, verb),
		Short: fmt.Sprintf("%s %s", noun, verb),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := url.Values{}
			for _, kv := range args {
				key, val, ok := splitKV(kv)
				if !ok {
					return fmt.Errorf("invalid argument %q, expected key=value", kv)
				}
				if len(allowed) > 0 && !allowed[key] {
					return fmt.Errorf("unknown argument key %q for %s %s", key, noun, verb)
				}
				values.Set(key, val)
			}
			resp, err := mgmt.Call(nfdcSocket, noun, verb, values)
			if err != nil {
				return err
			}
			fmt.Printf("Status=%d (%s)\n", resp.Code, resp.Text)
			if resp.Body != nil {
				fmt.Printf("%+v\n", resp.Body)
			}
			return nil
		},
	}
}

func splitKV(s string) (key, val string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
