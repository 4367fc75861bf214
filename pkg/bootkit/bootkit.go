package bootkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo/mutable"

	"vizarcade.dev/pkg/utils"
)

const (
	DefaultStartTimeout = time.Second * 15
	DefaultStopTimeout  = time.Second * 30
)

// Runnable wires one part of the process, typically a server, by appending
// hooks to the lifecycle. It must not block.
type Runnable func(ctx context.Context, lifeCycle LifeCycle) error

type BootKit struct {
	options     *bootkitOptions
	parallelRun []Runnable
	lifeCycle   *lifeCycle

	selfCtx    context.Context
	selfCancel context.CancelFunc

	mutex sync.Mutex
}

func New(options ...Option) *BootKit {
	applyOptions := &bootkitApplyOptions{
		bootkit: &bootkitOptions{
			startTimeout: DefaultStartTimeout,
			stopTimeout:  DefaultStopTimeout,
		},
	}

	for _, opt := range options {
		opt.apply(applyOptions)
	}

	selfCtx, selfCancel := context.WithCancel(context.Background())

	return &BootKit{
		options:     applyOptions.bootkit,
		parallelRun: make([]Runnable, 0),
		lifeCycle:   newLifeCycle(),
		selfCtx:     selfCtx,
		selfCancel:  selfCancel,
	}
}

func (b *BootKit) Add(invokeFn Runnable) *BootKit {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.parallelRun = append(b.parallelRun, invokeFn)

	return b
}

func waitDoneOrContextDone(ctx context.Context, wg *sync.WaitGroup, errChan <-chan error) error {
	select {
	case <-waitGroupToChan(wg):
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}

	return nil
}

func callRunnable(ctx context.Context, runnable []Runnable, lifecycle LifeCycle) error {
	wg := &sync.WaitGroup{}
	errChan := make(chan error, len(runnable))

	for _, r := range runnable {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := r(ctx, lifecycle)
			if err != nil {
				errChan <- err
			}
		}()
	}

	return waitDoneOrContextDone(ctx, wg, errChan)
}

func callStartHook(ctx context.Context, startWg *sync.WaitGroup, errChan chan<- error, hooks []lifeCycler) {
	for _, r := range hooks {
		startWg.Add(1)

		go func() {
			defer startWg.Done()

			err := r.Start(ctx)
			if err != nil {
				errChan <- err
			}
		}()
	}
}

// callStopHooks launches the stop hooks concurrently, most recently appended
// first, and collects every error.
func callStopHooks(ctx context.Context, hooks []lifeCycler) error {
	wg := &sync.WaitGroup{}
	errChan := make(chan error, len(hooks))

	reversed := utils.Clone(hooks)
	mutable.Reverse(reversed)

	for _, hook := range reversed {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := hook.Stop(ctx)
			if err != nil {
				errChan <- err
			}
		}()
	}

	select {
	case <-waitGroupToChan(wg):
	case <-ctx.Done():
		return ctx.Err()
	}

	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func waitGroupToChan(wg *sync.WaitGroup) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	return done
}

func (b *BootKit) watchSignals() {
	sigs := make(chan os.Signal, 2) //nolint:mnd
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		cancelled := false

		for sig := range sigs {
			// A second signal skips the graceful shutdown.
			if cancelled {
				fmt.Fprintln(os.Stderr, "received second signal, force terminated")
				os.Exit(1)
			}

			slog.Info("Received signal, shutting down ...", "signal", sig.String())
			b.selfCancel()

			cancelled = true
		}
	}()
}

// Start runs every runnable, starts the collected hooks and blocks until a
// hook fails, every hook returns, or the process is asked to stop. Stop hooks
// always run before Start returns.
func (b *BootKit) Start() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	setupCtx, cancel := context.WithTimeout(b.selfCtx, b.options.startTimeout)
	defer cancel()

	err := callRunnable(setupCtx, b.parallelRun, b.lifeCycle)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to run: %w", err), b.stop())
	}

	hooks := b.lifeCycle.GetHooks()
	startWg := &sync.WaitGroup{}
	errChan := make(chan error, len(hooks))

	callStartHook(b.selfCtx, startWg, errChan, hooks)
	b.watchSignals()

	var startErr error

	select {
	case err := <-errChan:
		startErr = fmt.Errorf("failed to start: %w", err)
	case <-waitGroupToChan(startWg):
	case <-b.selfCtx.Done():
	}

	return errors.Join(startErr, b.stop())
}

func (b *BootKit) stop() error {
	hooks := b.lifeCycle.GetHooks()
	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.options.stopTimeout)
	defer cancel()

	err := callStopHooks(ctx, hooks)
	if err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}

	return nil
}

// Stop asks a running Start to shut down. It returns once Start has finished
// running the stop hooks.
func (b *BootKit) Stop() {
	b.selfCancel()

	b.mutex.Lock()
	defer b.mutex.Unlock()
}
