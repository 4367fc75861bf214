package acr

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vizarcade.dev/config"
	"vizarcade.dev/pkg/bootkit"
	"vizarcade.dev/pkg/constants"
	"vizarcade.dev/pkg/listener"
	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/types/acrcloud"
	"vizarcade.dev/pkg/utils"
)

var _ listener.Listener = (*RecognitionListener)(nil)
var _ listener.Drainable = (*RecognitionListener)(nil)

type RecognitionListener struct {
	*listener.Drainer

	cfg    config.ListenerConfig
	client *acrcloud.Client
}

func NewRecognitionListenerConfigs(cfg *config.Config, lifecycle bootkit.LifeCycle, opts ...acrcloud.ClientOption) (listener.Listener, error) {
	creds := acrcloud.Credentials{
		Host:         cfg.ACRCloud.Host,
		AccessKey:    cfg.ACRCloud.AccessKey,
		AccessSecret: cfg.ACRCloud.AccessSecret,
	}

	l := &RecognitionListener{
		Drainer: listener.NewDrainer(cfg.Listener.DrainWait),
		cfg:     cfg.Listener,
		client:  acrcloud.NewClient(creds, append([]acrcloud.ClientOption{acrcloud.WithTimeout(cfg.ACRCloud.Timeout)}, opts...)...),
	}

	if !creds.IsComplete() {
		slog.Warn("ACRCloud credentials are incomplete, song recognition is disabled")
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStop: l.Drain,
	})

	return l, nil
}

func (l *RecognitionListener) commonMiddlewares(cors listener.CORSOptions) []listener.Middleware {
	return []listener.Middleware{
		listener.WithCancellable(l.Cancellable()),
		listener.WithInitMetadata(),
		listener.WithRequestID(),
		listener.WithAccessLog(l.cfg.AccessLog),
		listener.WithRequestTimer(),
		listener.WithCORS(cors),
	}
}

func (l *RecognitionListener) RegisterRoutes(mux *mux.Router) error {
	origins := l.cfg.CORS.AllowedOrigins

	statusMiddlewares := listener.WithMiddlewares(append(
		l.commonMiddlewares(listener.CORSOptions{AllowedOrigins: origins}),
		listener.WithResponseHandler(listener.ResponseHandler()),
		listener.WithRecoverWithError(),
		listener.WithRejectAfterDrainedWithError(l),
	)...)

	identifyMiddlewares := listener.WithMiddlewares(append(
		l.commonMiddlewares(listener.CORSOptions{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}),
		listener.WithOptions(),
		listener.WithResponseHandler(listener.ResponseHandler()),
		listener.WithRecoverWithError(),
		listener.WithRejectAfterDrainedWithError(l),
		listener.WithAllowedMethods(http.MethodPost),
	)...)

	mux.HandleFunc(constants.RecognitionConfigPath, listener.HTTPHandlerFunc(statusMiddlewares(l.status)))
	mux.HandleFunc(constants.RecognitionProxyPath, listener.HTTPHandlerFunc(identifyMiddlewares(l.identify)))

	return nil
}

type Status struct {
	Enabled  bool   `json:"enabled"`
	ProxyURL string `json:"proxyUrl"`
}

// status answers every method, the front end only needs to know whether to
// offer recognition at all.
func (l *RecognitionListener) status(_ http.ResponseWriter, _ *http.Request) (any, error) {
	return Status{
		Enabled:  l.client.Credentials().IsComplete(),
		ProxyURL: constants.RecognitionProxyPath,
	}, nil
}

func (l *RecognitionListener) identify(writer http.ResponseWriter, request *http.Request) (any, error) {
	if !l.client.Credentials().IsComplete() {
		slog.Error("ACRCloud credentials are not configured", "path", request.URL.Path)
		return nil, object.NewErrorRecognitionNotConfigured()
	}

	_, body, err := utils.ReadAsJSONWithClose(http.MaxBytesReader(writer, request.Body, constants.MaxRequestBodyBytes))
	if err != nil {
		return nil, object.NewErrorMissingAudio().WithCause(err)
	}

	audio := utils.GetByJSONPath[string](body, "{ .audio }")
	if strings.TrimSpace(audio) == "" {
		return nil, object.NewErrorMissingAudio()
	}

	sample, err := acrcloud.DecodeAudio(audio)
	if err != nil {
		return nil, object.NewErrorInvalidAudio(err)
	}

	result, err := l.client.Identify(request.Context(), sample)
	if err != nil {
		return nil, err
	}

	if result.Matched {
		slog.Info("Recognized song", "title", result.Title, "artists", strings.Join(result.Artists, ", "))
	} else {
		slog.Info("No song match", "status", result.StatusMessage)
	}

	return object.NewJSONResponse(result.Raw), nil
}
