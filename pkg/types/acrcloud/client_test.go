package acrcloud

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nekomeowww/xo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizarcade.dev/pkg/object"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()

	content, err := os.ReadFile(xo.RelativePathOf("./testdata/" + name))
	require.NoError(t, err)

	return content
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		hits.Add(1)
		handler(writer, request)
	}))
	t.Cleanup(srv.Close)

	creds := testCreds
	creds.Host = strings.TrimPrefix(srv.URL, "https://")

	client := NewClient(creds,
		WithHTTPClient(srv.Client()),
		WithClock(func() time.Time { return time.Unix(1700000000, 0) }),
		WithTimeout(time.Second*5),
	)

	return client, &hits
}

func TestClient_Identify(t *testing.T) {
	t.Parallel()

	t.Run("Matched", func(t *testing.T) {
		t.Parallel()

		sample := []byte("fake webm payload")
		matchedResponse := readTestdata(t, "identify_matched.json")

		client, hits := newTestClient(t, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/v1/identify", request.URL.Path)

			mediaType, params, err := mime.ParseMediaType(request.Header.Get("Content-Type"))
			assert.NoError(t, err)
			assert.Equal(t, "multipart/form-data", mediaType)
			assert.Equal(t, "----VIZarcade1700000000000", params["boundary"])

			body, err := io.ReadAll(request.Body)
			assert.NoError(t, err)
			assert.Equal(t, int64(len(body)), request.ContentLength)

			form, err := multipart.NewReader(strings.NewReader(string(body)), params["boundary"]).ReadForm(1 << 20)
			assert.NoError(t, err)
			assert.Equal(t, []string{"test-access-key"}, form.Value["access_key"])
			assert.Equal(t, []string{"Mg53J3jzxfq7QUv54h6/9j8aZ20="}, form.Value["signature"])
			assert.Equal(t, []string{"1700000000"}, form.Value["timestamp"])
			assert.Equal(t, []string{strconv.Itoa(len(sample))}, form.Value["sample_bytes"])
			assert.Len(t, form.File["sample"], 1)

			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write(matchedResponse)
		})

		result, err := client.Identify(context.Background(), sample)
		require.NoError(t, err)

		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, string(matchedResponse), string(result.Raw))
		assert.True(t, result.Matched)
		assert.Equal(t, "Levitating", result.Title)
		assert.Equal(t, []string{"Dua Lipa", "DaBaby"}, result.Artists)
		assert.Equal(t, "Success", result.StatusMessage)
	})

	t.Run("NoMatch", func(t *testing.T) {
		t.Parallel()

		noResult := readTestdata(t, "identify_no_result.json")

		client, _ := newTestClient(t, func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write(noResult)
		})

		result, err := client.Identify(context.Background(), []byte("x"))
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Equal(t, "No result", result.StatusMessage)
	})

	t.Run("MissingStatus", func(t *testing.T) {
		t.Parallel()

		missingStatus := readTestdata(t, "identify_missing_status.json")

		client, _ := newTestClient(t, func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write(missingStatus)
		})

		result, err := client.Identify(context.Background(), []byte("x"))
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Equal(t, "unknown", result.StatusMessage)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		t.Parallel()

		client, hits := newTestClient(t, func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.Identify(context.Background(), []byte("x"))
		require.Error(t, err)

		vizErr := object.AsError(err)
		require.NotNil(t, vizErr)
		assert.Equal(t, http.StatusBadGateway, vizErr.Status)
		assert.Equal(t, http.StatusUnauthorized, vizErr.UpstreamStatus.OrEmpty())
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(writer http.ResponseWriter, _ *http.Request) {
			_, _ = writer.Write([]byte(`<html>oops</html>`))
		})

		_, err := client.Identify(context.Background(), []byte("x"))
		require.Error(t, err)

		vizErr := object.AsError(err)
		require.NotNil(t, vizErr)
		assert.Equal(t, http.StatusInternalServerError, vizErr.Status)
		assert.Equal(t, object.ErrorKindInternal, vizErr.Kind)
	})

	t.Run("Timeout", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, func(_ http.ResponseWriter, request *http.Request) {
			select {
			case <-request.Context().Done():
			case <-time.After(time.Second * 2):
			}
		})
		client.timeout = time.Millisecond * 50

		_, err := client.Identify(context.Background(), []byte("x"))
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, object.AsError(err).Status)
	})
}
