package object

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"vizarcade.dev/pkg/utils"
)

type ErrorKind string

const (
	ErrorKindClientInput        ErrorKind = "client_input"
	ErrorKindMethodNotAllowed   ErrorKind = "method_not_allowed"
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindConfiguration      ErrorKind = "configuration"
	ErrorKindUpstream           ErrorKind = "upstream"
	ErrorKindInternal           ErrorKind = "internal"
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
)

// Error is the single error type handlers hand back to the response handler.
// Only Message, UpstreamStatus and Detail reach the client; Cause stays in logs.
type Error struct {
	Kind           ErrorKind
	Status         int
	Message        string
	UpstreamStatus mo.Option[int]
	Detail         mo.Option[string]
	Cause          error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) GetKind() ErrorKind {
	return e.Kind
}

func (e *Error) GetStatus() int {
	return e.Status
}

func (e *Error) GetMessage() string {
	return e.Message
}

func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

func (e *Error) MarshalJSON() ([]byte, error) {
	body := map[string]any{
		"error": e.Message,
	}

	if e.UpstreamStatus.IsPresent() {
		body["status"] = e.UpstreamStatus.MustGet()
	}

	if e.Detail.IsPresent() {
		body["message"] = e.Detail.MustGet()
	}

	return json.Marshal(body)
}

func newError(kind ErrorKind, status int, message string) *Error {
	return &Error{
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

func NewErrorMethodNotAllowed() *Error {
	return newError(ErrorKindMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed")
}

func NewErrorNotFound() *Error {
	return newError(ErrorKindNotFound, http.StatusNotFound, "Not found")
}

func NewErrorMissingAudio() *Error {
	return newError(ErrorKindClientInput, http.StatusBadRequest, "Missing audio data")
}

func NewErrorInvalidAudio(cause error) *Error {
	return newError(ErrorKindClientInput, http.StatusBadRequest, "Invalid audio data").WithCause(cause)
}

func NewErrorMissingTrackOrArtist() *Error {
	return newError(ErrorKindClientInput, http.StatusBadRequest, "Missing trackName or artistName")
}

func NewErrorRecognitionNotConfigured() *Error {
	return newError(ErrorKindConfiguration, http.StatusInternalServerError, "ACRCloud not configured")
}

func NewErrorAPIKeyNotConfigured() *Error {
	return newError(ErrorKindConfiguration, http.StatusInternalServerError, "API key not configured")
}

func NewErrorRecognitionUpstream(upstreamStatus int) *Error {
	e := newError(ErrorKindUpstream, http.StatusBadGateway, "ACRCloud request failed")
	e.UpstreamStatus = mo.Some(upstreamStatus)

	return e
}

func NewErrorThemeGenerationFailed(cause error) *Error {
	return newError(ErrorKindInternal, http.StatusInternalServerError, "Theme generation failed").WithCause(cause)
}

// NewErrorInternalError reports the first non-nil cause in the "message" field.
func NewErrorInternalError(internalErrs ...error) *Error {
	internalErrs = append(lo.Filter(internalErrs, utils.FilterNonNil), errors.New("internal error"))
	cause := lo.Must(lo.Coalesce(internalErrs...))

	e := newError(ErrorKindInternal, http.StatusInternalServerError, "Internal error").WithCause(cause)
	e.Detail = mo.Some(cause.Error())

	return e
}

func NewErrorServiceUnavailable() *Error {
	return newError(ErrorKindServiceUnavailable, http.StatusServiceUnavailable, "Service unavailable")
}

func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return nil
}

func ErrorOrInternalError(err error) *Error {
	if e := AsError(err); e != nil {
		return e
	}

	return NewErrorInternalError(err)
}
