package listener

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/utils"
)

// Listener owns a set of routes on the shared gateway router.
type Listener interface {
	RegisterRoutes(mux *mux.Router) error
}

// Drainable listeners stop accepting work on shutdown and cancel what is
// still in flight once the drain wait elapses.
type Drainable interface {
	Drain(ctx context.Context) error
	HasDrained() bool
}

// HandlerFunc returns either a response for the response handler to encode
// or an error that it maps to a status code.
type HandlerFunc func(writer http.ResponseWriter, request *http.Request) (any, error)

type Middleware func(HandlerFunc) HandlerFunc

// WithMiddlewares composes middlewares so that the first one is the outermost.
func WithMiddlewares(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}

		return next
	}
}

func HTTPHandlerFunc(fn HandlerFunc) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		_, _ = fn(writer, request)
	}
}

type Mux struct {
	router    *mux.Router
	listeners []Listener
	errs      []error
}

func NewMux() *Mux {
	return &Mux{
		router:    mux.NewRouter(),
		listeners: make([]Listener, 0),
	}
}

// Register accepts the constructor result directly so callers can write
// m.Register(NewSomething(...)); errors surface from BuildServer.
func (m *Mux) Register(l Listener, err error) {
	if err != nil {
		m.errs = append(m.errs, err)
		return
	}

	m.listeners = append(m.listeners, l)
}

func (m *Mux) BuildServer(server *http.Server) (*http.Server, error) {
	if len(m.errs) > 0 {
		return nil, fmt.Errorf("failed to create listener: %w", m.errs[0])
	}

	for _, l := range m.listeners {
		err := l.RegisterRoutes(m.router)
		if err != nil {
			return nil, fmt.Errorf("failed to register routes for %T: %w", l, err)
		}
	}

	m.router.NotFoundHandler = http.HandlerFunc(NotFound)
	server.Handler = m.router

	return server, nil
}

func NotFound(writer http.ResponseWriter, _ *http.Request) {
	notFound := object.NewErrorNotFound()
	utils.WriteJSONForHTTP(notFound.Status, notFound, writer)
}
