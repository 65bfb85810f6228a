package common

import (
	"errors"
	"sync"
)

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module has been halted by the embedding
// settlement layer.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the module is halted. A nil view or empty
// module name always passes.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Pauses is a concurrency-safe PauseView backed by an in-memory switchboard.
type Pauses struct {
	mu     sync.RWMutex
	halted map[string]bool
}

// NewPauses constructs an empty switchboard with every module running.
func NewPauses() *Pauses {
	return &Pauses{halted: make(map[string]bool)}
}

// SetPaused toggles the halt switch for the named module.
func (p *Pauses) SetPaused(module string, paused bool) {
	if p == nil || module == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted == nil {
		p.halted = make(map[string]bool)
	}
	p.halted[module] = paused
}

// IsPaused implements PauseView.
func (p *Pauses) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.halted[module]
}
