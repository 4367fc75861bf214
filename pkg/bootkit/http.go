package bootkit

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
)

// HTTPServerHook serves server on ln until stopped, then shuts it down
// gracefully within the stop context.
func HTTPServerHook(name string, server *http.Server, ln net.Listener) LifeCycleHook {
	return LifeCycleHook{
		OnStart: func(context.Context) error {
			slog.Info("Starting "+name+" ...", "addr", ln.Addr().String())

			err := server.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping " + name + " ...")

			err := server.Shutdown(ctx)
			if err != nil {
				return err
			}

			slog.Info(name + " stopped gracefully.")

			return nil
		},
	}
}
