package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named native module is currently paused.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the named module is paused. A nil view means no
// pause switches are wired and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
