package admin

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"sigs.k8s.io/yaml"

	"vizarcade.dev/config"
	"vizarcade.dev/pkg/bootkit"
	"vizarcade.dev/pkg/listener"
	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/utils"
)

var _ listener.Listener = (*debugListener)(nil)

type debugListener struct {
	cfg *config.Config
}

func NewAdminListener(cfg *config.Config) (listener.Listener, error) {
	return &debugListener{cfg: cfg}, nil
}

func (d *debugListener) healthz(writer http.ResponseWriter, _ *http.Request) {
	utils.WriteJSONForHTTP(http.StatusOK, map[string]string{"status": "ok"}, writer)
}

// configDump renders the effective configuration with secrets masked.
func (d *debugListener) configDump(writer http.ResponseWriter, _ *http.Request) {
	bs, err := yaml.Marshal(d.cfg.Redacted())
	if err != nil {
		internalErr := object.NewErrorInternalError(err)
		utils.WriteJSONForHTTP(internalErr.Status, internalErr, writer)

		return
	}

	writer.Header().Set("Content-Type", "application/yaml")
	_, _ = writer.Write(bs)
}

func (d *debugListener) RegisterRoutes(mux *mux.Router) error {
	mux.HandleFunc("/healthz", d.healthz).Methods(http.MethodGet)
	mux.HandleFunc("/config_dump", d.configDump).Methods(http.MethodGet)

	return nil
}

func NewAdminServer(_ context.Context, cfg *config.Config, lifecycle bootkit.LifeCycle) error {
	if cfg.Listener.AdminAddr == "" {
		return nil
	}

	m := listener.NewMux()
	m.Register(NewAdminListener(cfg))

	server, err := m.BuildServer(&http.Server{Addr: cfg.Listener.AdminAddr, ReadHeaderTimeout: time.Second * 10}) //nolint:mnd
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Listener.AdminAddr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.HTTPServerHook("admin server", server, ln))

	return nil
}
