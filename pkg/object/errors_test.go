package object

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMarshalJSON(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      *Error
		status   int
		kind     ErrorKind
		expected string
	}{
		{
			name:     "MissingAudio",
			err:      NewErrorMissingAudio(),
			status:   http.StatusBadRequest,
			kind:     ErrorKindClientInput,
			expected: `{"error":"Missing audio data"}`,
		},
		{
			name:     "MethodNotAllowed",
			err:      NewErrorMethodNotAllowed(),
			status:   http.StatusMethodNotAllowed,
			kind:     ErrorKindMethodNotAllowed,
			expected: `{"error":"Method not allowed"}`,
		},
		{
			name:     "RecognitionNotConfigured",
			err:      NewErrorRecognitionNotConfigured(),
			status:   http.StatusInternalServerError,
			kind:     ErrorKindConfiguration,
			expected: `{"error":"ACRCloud not configured"}`,
		},
		{
			name:     "RecognitionUpstream",
			err:      NewErrorRecognitionUpstream(http.StatusUnauthorized),
			status:   http.StatusBadGateway,
			kind:     ErrorKindUpstream,
			expected: `{"error":"ACRCloud request failed","status":401}`,
		},
		{
			name:     "ThemeGenerationFailed",
			err:      NewErrorThemeGenerationFailed(errors.New("unexpected end of JSON input")),
			status:   http.StatusInternalServerError,
			kind:     ErrorKindInternal,
			expected: `{"error":"Theme generation failed"}`,
		},
		{
			name:     "InternalError",
			err:      NewErrorInternalError(nil, errors.New("dial tcp: connection refused")),
			status:   http.StatusInternalServerError,
			kind:     ErrorKindInternal,
			expected: `{"error":"Internal error","message":"dial tcp: connection refused"}`,
		},
		{
			name:     "InternalErrorWithoutCause",
			err:      NewErrorInternalError(),
			status:   http.StatusInternalServerError,
			kind:     ErrorKindInternal,
			expected: `{"error":"Internal error","message":"internal error"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bs, err := json.Marshal(tc.err)
			require.NoError(t, err)

			assert.JSONEq(t, tc.expected, string(bs))
			assert.Equal(t, tc.status, tc.err.GetStatus())
			assert.Equal(t, tc.kind, tc.err.GetKind())
		})
	}
}

func TestErrorOrInternalError(t *testing.T) {
	t.Parallel()

	t.Run("Wrapped", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("identify: %w", NewErrorRecognitionUpstream(http.StatusServiceUnavailable))

		e := ErrorOrInternalError(wrapped)
		require.True(t, IsError(wrapped))
		assert.Equal(t, http.StatusBadGateway, e.GetStatus())
		assert.Equal(t, http.StatusServiceUnavailable, e.UpstreamStatus.MustGet())
	})

	t.Run("Plain", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("boom")

		e := ErrorOrInternalError(cause)
		assert.False(t, IsError(cause))
		assert.Equal(t, ErrorKindInternal, e.GetKind())
		require.ErrorIs(t, e, cause)
		assert.Equal(t, "Internal error: boom", e.Error())
	})
}

func TestJSONResponseWriteTo(t *testing.T) {
	t.Parallel()

	body := []byte(`{"status":{"msg":"Success","code":0},"metadata":{"music":[]}}`)
	recorder := httptest.NewRecorder()

	require.NoError(t, NewJSONResponse(body).WriteTo(recorder))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, string(body), recorder.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
}
