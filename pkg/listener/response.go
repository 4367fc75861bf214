package listener

import (
	"log/slog"
	"net/http"

	"vizarcade.dev/pkg/metadata"
	"vizarcade.dev/pkg/object"
	"vizarcade.dev/pkg/utils"
)

type responseWriterTo interface {
	WriteTo(writer http.ResponseWriter) error
}

// ResponseHandler encodes whatever the handler chain returned. Responses that
// know how to write themselves do so, anything else is encoded as JSON with
// status 200. Errors are mapped through object.ErrorOrInternalError.
func ResponseHandler() func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
	return func(resp any, err error, writer http.ResponseWriter, request *http.Request) {
		rMeta := metadata.RequestMetadataFromCtx(request.Context())

		if err == nil {
			if resp == nil {
				return
			}

			if writerTo, ok := resp.(responseWriterTo); ok {
				rMeta.StatusCode = http.StatusOK
				if statuser, ok := resp.(interface{ GetStatus() int }); ok {
					rMeta.StatusCode = statuser.GetStatus()
				}

				if err := writerTo.WriteTo(writer); err != nil {
					slog.Error("failed to write response", "error", err)
				}

				return
			}

			rMeta.StatusCode = http.StatusOK
			utils.WriteJSONForHTTP(http.StatusOK, resp, writer)

			return
		}

		vizErr := object.ErrorOrInternalError(err)

		switch {
		case vizErr.Kind == object.ErrorKindUpstream:
			slog.Error("upstream returned an error",
				"status", vizErr.Status,
				"upstream_status", vizErr.UpstreamStatus.OrEmpty(),
				"message", vizErr.Message,
			)
		case vizErr.Status >= http.StatusInternalServerError:
			slog.Error("failed to handle request", "error", vizErr, "cause", vizErr.Cause, "kind", vizErr.Kind)
		case vizErr.Cause != nil:
			slog.Debug("rejected request", "error", vizErr, "kind", vizErr.Kind)
		}

		rMeta.StatusCode = vizErr.Status
		rMeta.ErrorMessage = vizErr.Error()

		utils.WriteJSONForHTTP(vizErr.Status, vizErr, writer)
	}
}
