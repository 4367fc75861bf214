package listener

import (
	"context"
	"sync"
	"time"

	"vizarcade.dev/pkg/constants"
)

var _ Drainable = (*Drainer)(nil)

// Drainer is embedded by listeners: once drained, new requests are rejected
// and those still in flight are cancelled after the drain wait.
type Drainer struct {
	cancellable *CancellableRequestMap
	drainWait   time.Duration

	mutex   sync.RWMutex
	drained bool
}

func NewDrainer(drainWait time.Duration) *Drainer {
	if drainWait <= 0 {
		drainWait = constants.DefaultDrainWaitTime
	}

	return &Drainer{
		cancellable: NewCancellableRequestMap(),
		drainWait:   drainWait,
	}
}

func (d *Drainer) Cancellable() *CancellableRequestMap {
	return d.cancellable
}

func (d *Drainer) HasDrained() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return d.drained
}

func (d *Drainer) Drain(ctx context.Context) error {
	d.mutex.Lock()
	d.drained = true
	d.mutex.Unlock()

	d.cancellable.CancelAllAfterWithContext(ctx, d.drainWait)

	return nil
}
