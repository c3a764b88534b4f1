// Package config handles optional budiv.toml host configuration: the
// scheduler's frame rate and process ceiling. It is loaded once by cmd/budiv
// and never reaches the compiler or the VM core, which stay free of any
// config dependency (SPEC_FULL "Ambient stack").
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Host is the shape of budiv.toml.
type Host struct {
	Scheduler Scheduler `toml:"scheduler"`
}

// Scheduler configures the host frame clock (§4.E, §4.G).
type Scheduler struct {
	FPS         int `toml:"fps"`
	MaxProcesses int `toml:"max_processes"`
}

// Default returns the host configuration used when no file is given: 60
// host frames per second, no process ceiling.
func Default() Host {
	return Host{Scheduler: Scheduler{FPS: 60, MaxProcesses: 0}}
}

// Load parses path as TOML, falling back to Default for any field left
// unset (a zero FPS after parsing means "use the default", not "stopped").
func Load(path string) (Host, error) {
	h := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Host{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &h); err != nil {
		return Host{}, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if h.Scheduler.FPS <= 0 {
		h.Scheduler.FPS = 60
	}
	return h, nil
}
