package metadata

import (
	"context"
	"net/http"
	"time"
)

type requestMetadataContextKey struct{}

// RequestMetadata accumulates per-request facts for the access log.
type RequestMetadata struct {
	RequestID string

	RequestAt    time.Time
	RespondAt    time.Time
	StatusCode   int
	ErrorMessage string

	UpstreamProvider           string
	UpstreamRequestAt          time.Time
	UpstreamRespondAt          time.Time
	UpstreamResponseStatusCode int
}

func InitMetadataContext(request *http.Request) context.Context {
	return context.WithValue(request.Context(), requestMetadataContextKey{}, &RequestMetadata{})
}

// RequestMetadataFromCtx never returns nil; callers outside a listener get a
// detached value that is simply discarded.
func RequestMetadataFromCtx(ctx context.Context) *RequestMetadata {
	rMeta, ok := ctx.Value(requestMetadataContextKey{}).(*RequestMetadata)
	if !ok || rMeta == nil {
		return &RequestMetadata{}
	}

	return rMeta
}
