package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/nekomeowww/fo"
	"github.com/samber/lo"

	"vizarcade.dev/pkg/constants"
	"vizarcade.dev/pkg/metadata"
	"vizarcade.dev/pkg/object"
)

func WithAccessLog(enable bool) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			resp, err := next(writer, request)

			if enable {
				rMeta := metadata.RequestMetadataFromCtx(request.Context())

				attrs := []any{
					slog.String("request_id", rMeta.RequestID),
					slog.String("method", request.Method),
					slog.String("protocol", request.Proto),
					slog.String("host", request.Host),
					slog.String("uri", request.RequestURI),
					slog.String("remote_address", request.RemoteAddr),
					slog.String("x_forwarded_for", request.Header.Get("X-Forwarded-For")),
					slog.Duration("response_duration", rMeta.RespondAt.Sub(rMeta.RequestAt)),
					slog.Int("response_status", rMeta.StatusCode),
				}

				if rMeta.UpstreamProvider != "" {
					attrs = append(attrs,
						slog.String("upstream_provider", rMeta.UpstreamProvider),
						slog.Int("upstream_response_status_code", rMeta.UpstreamResponseStatusCode),
					)
				}

				if !rMeta.UpstreamRespondAt.IsZero() {
					attrs = append(attrs,
						slog.Duration("upstream_duration", rMeta.UpstreamRespondAt.Sub(rMeta.UpstreamRequestAt)),
					)
				}

				if rMeta.ErrorMessage != "" {
					attrs = append(attrs, slog.String("error", rMeta.ErrorMessage))
				}

				slog.Info("", attrs...)
			}

			return resp, err
		}
	}
}

func WithInitMetadata() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			return next(writer, request.WithContext(metadata.InitMetadataContext(request)))
		}
	}
}

// WithRequestID keeps a caller supplied X-Request-ID, otherwise generates one,
// and echoes it on the response.
func WithRequestID() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			requestID := strings.TrimSpace(request.Header.Get(constants.RequestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}

			metadata.RequestMetadataFromCtx(request.Context()).RequestID = requestID
			writer.Header().Set(constants.RequestIDHeader, requestID)

			return next(writer, request)
		}
	}
}

type CORSOptions struct {
	// AllowedOrigins are doublestar patterns matched against the Origin header.
	// A literal "*" answers with a wildcard regardless of the request.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func (o CORSOptions) allowOrigin(origin string) (string, bool) {
	if len(o.AllowedOrigins) == 0 || lo.Contains(o.AllowedOrigins, "*") {
		return "*", true
	}

	if origin == "" {
		return "", false
	}

	_, matched := lo.Find(o.AllowedOrigins, func(pattern string) bool {
		ok, err := doublestar.Match(pattern, origin)
		return err == nil && ok
	})

	return origin, matched
}

// WithCORS sets the CORS headers before the rest of the chain runs, so error
// responses carry them too.
func WithCORS(options CORSOptions) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			header := writer.Header()

			allowed, ok := options.allowOrigin(request.Header.Get("Origin"))
			if ok {
				header.Set("Access-Control-Allow-Origin", allowed)

				if allowed != "*" {
					header.Add("Vary", "Origin")
				}

				if len(options.AllowedMethods) > 0 {
					header.Set("Access-Control-Allow-Methods", strings.Join(options.AllowedMethods, ", "))
				}

				if len(options.AllowedHeaders) > 0 {
					header.Set("Access-Control-Allow-Headers", strings.Join(options.AllowedHeaders, ", "))
				}
			}

			return next(writer, request)
		}
	}
}

// WithOptions answers pre-flight requests with 200 and an empty body.
func WithOptions() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			if request.Method == http.MethodOptions {
				metadata.RequestMetadataFromCtx(request.Context()).StatusCode = http.StatusOK
				writer.WriteHeader(http.StatusOK)

				return nil, nil
			}

			return next(writer, request)
		}
	}
}

func WithAllowedMethods(methods ...string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			if !lo.Contains(methods, request.Method) {
				return nil, object.NewErrorMethodNotAllowed()
			}

			return next(writer, request)
		}
	}
}

func WithRecoverWithError() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					var url string
					if request != nil && request.URL != nil {
						url = request.URL.String()
					}

					slog.Error("Recovered from panic",
						slog.Any("panic", r),
						slog.String("url", url),
						slog.String("stack", string(debug.Stack())),
					)

					resp = nil
					err = object.NewErrorInternalError(fmt.Errorf("panic: %v", r))
				}
			}()

			return next(writer, request)
		}
	}
}

const drainPollInterval = time.Millisecond * 50

type CancellableRequestMap struct {
	mutex            sync.Mutex
	requestCancelMap map[*http.Request]context.CancelFunc
}

func NewCancellableRequestMap() *CancellableRequestMap {
	return &CancellableRequestMap{
		requestCancelMap: make(map[*http.Request]context.CancelFunc),
	}
}

func (l *CancellableRequestMap) Add(req *http.Request, cancel context.CancelFunc) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.requestCancelMap[req] = cancel
}

func (l *CancellableRequestMap) Remove(req *http.Request) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.requestCancelMap, req)
}

func (l *CancellableRequestMap) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.requestCancelMap)
}

func (l *CancellableRequestMap) CancelAll() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, cancel := range l.requestCancelMap {
		cancel()
	}
}

// CancelAllAfterWithContext gives in-flight requests until timeout (or the end
// of ctx) to finish on their own, then cancels whatever is left.
func (l *CancellableRequestMap) CancelAllAfterWithContext(ctx context.Context, timeout time.Duration) {
	_ = fo.Invoke0(ctx, func() error {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		ticker := time.NewTicker(drainPollInterval)
		defer ticker.Stop()

		for l.Len() > 0 {
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}

		return nil
	})

	l.CancelAll()
}

func WithCancellable(cancellable *CancellableRequestMap) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			ctx, cancel := context.WithCancel(request.Context())
			defer cancel()

			cancellable.Add(request, cancel)
			defer cancellable.Remove(request)

			return next(writer, request.WithContext(ctx))
		}
	}
}

func WithRejectAfterDrainedWithError(d Drainable) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			if d.HasDrained() {
				return nil, object.NewErrorServiceUnavailable()
			}

			return next(writer, request)
		}
	}
}

func WithRequestTimer() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			metadata.RequestMetadataFromCtx(request.Context()).RequestAt = time.Now()
			resp, err := next(writer, request)
			metadata.RequestMetadataFromCtx(request.Context()).RespondAt = time.Now()

			return resp, err
		}
	}
}

func WithResponseHandler(fn func(resp any, err error, writer http.ResponseWriter, request *http.Request)) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			resp, err := next(writer, request)
			fn(resp, err, writer, request)

			return nil, nil
		}
	}
}
