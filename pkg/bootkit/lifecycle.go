package bootkit

import (
	"context"
	"sync"
)

// LifeCycle collects start and stop hooks while runnables are being set up.
type LifeCycle interface {
	Append(hook LifeCycleHook)
}

type LifeCycleHook struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

type lifeCycler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ lifeCycler = LifeCycleHook{}

func (h LifeCycleHook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}

	return h.OnStart(ctx)
}

func (h LifeCycleHook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}

	return h.OnStop(ctx)
}

type lifeCycle struct {
	mutex sync.Mutex
	hooks []lifeCycler
}

func newLifeCycle() *lifeCycle {
	return &lifeCycle{
		hooks: make([]lifeCycler, 0),
	}
}

func (l *lifeCycle) Append(hook LifeCycleHook) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.hooks = append(l.hooks, hook)
}

func (l *lifeCycle) GetHooks() []lifeCycler {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return append([]lifeCycler(nil), l.hooks...)
}
