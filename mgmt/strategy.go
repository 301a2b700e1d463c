package mgmt

import (
	"net/url"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/enc"
	"github.com/reflexndn/rfwd/fw"
)

// StrategyModule is the "strategy-choice" management noun: set, unset,
// list, adapted from the teacher's fw/mgmt/strategy-choice.go.
type StrategyModule struct {
	fwd *fw.Forwarder
}

func (s *StrategyModule) Noun() string { return "strategy-choice" }

func (s *StrategyModule) String() string { return "mgmt-strategy" }

type strategyParams struct {
	Name     string `schema:"name,required"`
	Strategy string `schema:"strategy,required"`
	Version  uint64 `schema:"version"`
}

func (s *StrategyModule) Dispatch(verb string, args url.Values) (*ControlResponse, error) {
	switch verb {
	case "set":
		return s.set(args)
	case "unset":
		return s.unset(args)
	case "list":
		return s.list()
	}
	return nil, core.ErrNoSuchCommand{Noun: s.Noun(), Verb: verb}
}

// set installs strategy as name's prefix override, grounded on
// StrategyChoiceModule.set.
func (s *StrategyModule) set(args url.Values) (*ControlResponse, error) {
	var p strategyParams
	if err := decodeParams(&p, args); err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect"}, nil
	}
	name, err := enc.NameFromStr(p.Name)
	if err != nil {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect (bad name)"}, nil
	}
	versions, ok := fw.StrategyVersions[p.Strategy]
	if !ok {
		return &ControlResponse{Code: 404, Text: "Unknown strategy"}, nil
	}
	version := p.Version
	if version == 0 {
		for _, v := range versions {
			if v > version {
				version = v
			}
		}
	}
	strat, err := fw.NewStrategy(s.fwd, p.Strategy, version)
	if err != nil {
		return &ControlResponse{Code: 404, Text: "Unknown strategy version"}, nil
	}
	s.fwd.SetStrategy(name, strat)
	core.Log.Info(s, "set strategy", "name", name.String(), "strategy", p.Strategy, "version", version)
	return &ControlResponse{Code: 200, Text: "OK"}, nil
}

// unset reverts name to the forwarder-wide default strategy, grounded on
// StrategyChoiceModule.unset.
func (s *StrategyModule) unset(args url.Values) (*ControlResponse, error) {
	name, err := enc.NameFromStr(args.Get("name"))
	if err != nil || len(name) == 0 {
		return &ControlResponse{Code: 400, Text: "ControlParameters is incorrect (empty Name)"}, nil
	}
	s.fwd.UnsetStrategy(name)
	core.Log.Info(s, "unset strategy", "name", name.String())
	return &ControlResponse{Code: 200, Text: "OK"}, nil
}

// StrategyList is the "strategy-choice list" dataset body.
type StrategyList struct {
	Default string
	Choices map[string]string
}

// list reports every prefix-override choice plus the default, grounded on
// StrategyChoiceModule.list.
func (s *StrategyModule) list() (*ControlResponse, error) {
	return &ControlResponse{Code: 200, Text: "OK", Body: StrategyList{
		Default: s.fwd.DefaultStrategy(),
		Choices: s.fwd.StrategyChoices(),
	}}, nil
}
