package stable

import (
	"errors"
	"sync/atomic"
)

// ErrReentrantCall indicates an operation was invoked while another operation
// on the same engine instance was still in progress, typically via a callback
// from an external collaborator. The inner call aborts; it is never queued.
var ErrReentrantCall = errors.New("stable engine: operation already in progress")

// opGuard is the re-entrancy latch. It is acquired at every mutating entry
// point and released on all exit paths, including early aborts.
type opGuard struct {
	busy atomic.Bool
}

func (g *opGuard) acquire() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (g *opGuard) release() {
	g.busy.Store(false)
}
