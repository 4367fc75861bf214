package gateway

import (
	"context"
	"net"
	"net/http"
	"time"

	"vizarcade.dev/config"
	"vizarcade.dev/pkg/bootkit"
	"vizarcade.dev/pkg/listener"
	"vizarcade.dev/pkg/listener/manager/acr"
	"vizarcade.dev/pkg/listener/manager/theme"
)

const (
	readHeaderTimeout = time.Second * 10
	// Leaves room for the slowest upstream call plus the request body upload.
	writeTimeout = time.Minute
)

func NewGatewayServer(cfg *config.Config, lifecycle bootkit.LifeCycle) (*http.Server, error) {
	mux := listener.NewMux()
	mux.Register(acr.NewRecognitionListenerConfigs(cfg, lifecycle))
	mux.Register(theme.NewThemeListenerConfigs(cfg, lifecycle))

	return mux.BuildServer(&http.Server{
		Addr:              cfg.Listener.Addr,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       time.Minute,
		WriteTimeout:      writeTimeout,
	})
}

func StartGateway(_ context.Context, lifecycle bootkit.LifeCycle, cfg *config.Config) error {
	server, err := NewGatewayServer(cfg, lifecycle)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listener.Addr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.HTTPServerHook("gateway", server, ln))

	return nil
}
