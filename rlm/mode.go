package rlm

import (
	"fmt"
	"strings"
)

// Mode selects the system-prompt template and whether the sub-call
// callables are injected into the sandbox at all. Modes are configuration,
// not subtypes.
type Mode int

const (
	// ModeStandard advertises the full sub-call, fan-out, and hive surface.
	ModeStandard Mode = iota
	// ModeConservative allows sub-calls but pressures the model to batch
	// them economically.
	ModeConservative
	// ModeNoSubcalls is the ablation mode: llm_query and parallel_query
	// are not injected into the sandbox.
	ModeNoSubcalls
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "standard"
	case ModeConservative:
		return "conservative"
	case ModeNoSubcalls:
		return "no_subcalls"
	default:
		return "unknown"
	}
}

// SubcallsEnabled reports whether the mode permits delegation.
func (m Mode) SubcallsEnabled() bool {
	return m != ModeNoSubcalls
}

// ParseMode parses a mode from string (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "standard", "":
		return ModeStandard, nil
	case "conservative":
		return ModeConservative, nil
	case "no_subcalls", "nosubcalls":
		return ModeNoSubcalls, nil
	default:
		return 0, fmt.Errorf("unknown prompt mode: %s", s)
	}
}
