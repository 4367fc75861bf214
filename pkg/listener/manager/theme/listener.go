package theme

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"vizarcade.dev/config"
	"vizarcade.dev/pkg/bootkit"
	"vizarcade.dev/pkg/constants"
	"vizarcade.dev/pkg/listener"
	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/theme"
	"vizarcade.dev/pkg/types/anthropic"
	"vizarcade.dev/pkg/types/openai"
	"vizarcade.dev/pkg/utils"
)

var _ listener.Listener = (*ThemeListener)(nil)
var _ listener.Drainable = (*ThemeListener)(nil)

type ThemeListener struct {
	*listener.Drainer

	cfg     config.ListenerConfig
	apiKey  string
	service *theme.Service
}

// NewGenerator picks the text-generation backend named by cfg.Provider.
func NewGenerator(cfg config.ThemeConfig, httpClient *http.Client) (theme.Generator, error) {
	switch cfg.Provider {
	case config.ThemeProviderAnthropic, "":
		return anthropic.NewClient(anthropic.Options{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Version:        cfg.AnthropicVersion,
			Model:          cfg.Model,
			MaxTokens:      cfg.MaxTokens,
			Timeout:        cfg.Timeout,
			OverrideParams: cfg.OverrideParams,
			HTTPClient:     httpClient,
		})
	case config.ThemeProviderOpenAI:
		return openai.NewChatGenerator(openai.Options{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			Timeout:    cfg.Timeout,
			HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown theme provider %q", cfg.Provider)
	}
}

func NewThemeListenerConfigs(cfg *config.Config, lifecycle bootkit.LifeCycle) (listener.Listener, error) {
	generator, err := NewGenerator(cfg.Theme, nil)
	if err != nil {
		return nil, err
	}

	return NewThemeListener(cfg, generator, lifecycle), nil
}

func NewThemeListener(cfg *config.Config, generator theme.Generator, lifecycle bootkit.LifeCycle) *ThemeListener {
	l := &ThemeListener{
		Drainer: listener.NewDrainer(cfg.Listener.DrainWait),
		cfg:     cfg.Listener,
		apiKey:  cfg.Theme.APIKey,
		service: theme.NewService(generator),
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStop: l.Drain,
	})

	return l
}

func (l *ThemeListener) RegisterRoutes(mux *mux.Router) error {
	middlewares := listener.WithMiddlewares(
		listener.WithCancellable(l.Cancellable()),
		listener.WithInitMetadata(),
		listener.WithRequestID(),
		listener.WithAccessLog(l.cfg.AccessLog),
		listener.WithRequestTimer(),
		listener.WithResponseHandler(listener.ResponseHandler()),
		listener.WithRecoverWithError(),
		listener.WithRejectAfterDrainedWithError(l),
		listener.WithAllowedMethods(http.MethodPost),
	)

	mux.HandleFunc(constants.ThemePath, listener.HTTPHandlerFunc(middlewares(l.generate)))

	return nil
}

func (l *ThemeListener) generate(writer http.ResponseWriter, request *http.Request) (any, error) {
	_, body, err := utils.ReadAsJSONWithClose(http.MaxBytesReader(writer, request.Body, constants.MaxRequestBodyBytes))
	if err != nil {
		return nil, object.NewErrorMissingTrackOrArtist().WithCause(err)
	}

	song := theme.Song{
		TrackName:  utils.GetByJSONPath[string](body, "{ .trackName }"),
		ArtistName: utils.GetByJSONPath[string](body, "{ .artistName }"),
		Genres:     utils.GetByJSONPath[[]string](body, "{ .genres }"),
	}

	if song.TrackName == "" || song.ArtistName == "" {
		return nil, object.NewErrorMissingTrackOrArtist()
	}

	if l.apiKey == "" {
		return nil, object.NewErrorAPIKeyNotConfigured()
	}

	generated, err := l.service.Generate(request.Context(), song)
	if err != nil {
		return nil, err
	}

	return object.NewJSONResponse(generated), nil
}
