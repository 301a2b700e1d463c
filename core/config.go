package core

import (
	"github.com/goccy/go-yaml"
)

// Config holds the forwarder section of the configuration file (spec.md
// §6). Grounded on Forwarder::processConfig in forwarder.cpp, which only
// recognizes a single "forwarder" section with one key, default_hop_limit,
// and rejects anything else.
type Config struct {
	// DefaultHopLimit is attached to Interests that lack a HopLimit on CS
	// miss / RI egress (spec.md §4.5, §4.6). Zero means "do not attach".
	DefaultHopLimit uint8

	// InsertPitEntryForRI controls the open-question behavior from
	// spec.md §9: whether the RI's own PIT entry (inserted by the normal
	// onIncomingInterest path before the RI branch is detected) is kept.
	// Default true reproduces the original source's observable behavior.
	InsertPitEntryForRI bool

	// DeadNonceListLifetimeMs is the lifetime the incoming-Interest pipeline
	// compares against an Interest's lifetime when deciding whether to add
	// its Nonce to the Dead Nonce List (spec.md §3, §8 invariant 5). The
	// DNL's own entry TTL is table.Options.DnlLifetime.
	DeadNonceListLifetimeMs int64
}

// DefaultConfig returns the configuration the forwarder starts with absent
// any file, matching the original source's unconfigured defaults.
func DefaultConfig() Config {
	return Config{
		DefaultHopLimit:         0,
		InsertPitEntryForRI:     true,
		DeadNonceListLifetimeMs: 6_000,
	}
}

type forwarderSection struct {
	DefaultHopLimit     *uint8 `yaml:"default_hop_limit"`
	InsertPitEntryForRI *bool  `yaml:"insert_pit_entry_for_ri"`
	DeadNonceListLifeMs *int64 `yaml:"dead_nonce_list_lifetime_ms"`
}

type configFile struct {
	Forwarder map[string]any `yaml:"forwarder"`
}

// LoadConfig parses the "forwarder" section of a YAML configuration
// document. Unknown keys fail with a descriptive ErrConfig. The returned
// Config is computed from a copy of base without mutating any
// caller-visible state, so a caller can validate a document as a dry run
// and decide separately whether to apply it -- the same split as
// processConfig(section, isDryRun, ...) in the original source, which
// parses into a local Config and only assigns m_config when !isDryRun.
func LoadConfig(data []byte, base Config) (Config, error) {
	var raw configFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return base, ErrConfig{Section: "forwarder", Reason: err.Error()}
	}

	known := map[string]bool{
		"default_hop_limit":          true,
		"insert_pit_entry_for_ri":    true,
		"dead_nonce_list_lifetime_ms": true,
	}
	for key := range raw.Forwarder {
		if !known[key] {
			return base, ErrConfig{Section: "forwarder", Key: key, Reason: "unrecognized option"}
		}
	}

	cfg := base
	if v, ok := raw.Forwarder["default_hop_limit"]; ok {
		n, err := asUint8(v)
		if err != nil {
			return base, ErrConfig{Section: "forwarder", Key: "default_hop_limit", Reason: err.Error()}
		}
		cfg.DefaultHopLimit = n
	}
	if v, ok := raw.Forwarder["insert_pit_entry_for_ri"]; ok {
		b, ok := v.(bool)
		if !ok {
			return base, ErrConfig{Section: "forwarder", Key: "insert_pit_entry_for_ri", Reason: "expected boolean"}
		}
		cfg.InsertPitEntryForRI = b
	}
	if v, ok := raw.Forwarder["dead_nonce_list_lifetime_ms"]; ok {
		n, err := asInt64(v)
		if err != nil {
			return base, ErrConfig{Section: "forwarder", Key: "dead_nonce_list_lifetime_ms", Reason: err.Error()}
		}
		cfg.DeadNonceListLifetimeMs = n
	}

	return cfg, nil
}

func asUint8(v any) (uint8, error) {
	n, err := asInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, ErrInvalidValue{Item: "default_hop_limit", Value: n}
	}
	return uint8(n), nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, ErrInvalidValue{Item: "number", Value: v}
	}
}
