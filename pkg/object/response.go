package object

import (
	"encoding/json"
	"net/http"

	"vizarcade.dev/pkg/utils"
)

// JSONResponse carries an already encoded JSON document that is written
// to the client byte for byte.
type JSONResponse struct {
	Status int
	Body   json.RawMessage
}

func NewJSONResponse(body []byte) *JSONResponse {
	return &JSONResponse{
		Status: http.StatusOK,
		Body:   body,
	}
}

func (r *JSONResponse) MarshalJSON() ([]byte, error) {
	if r == nil || len(r.Body) == 0 {
		return []byte("null"), nil
	}

	return r.Body, nil
}

func (r *JSONResponse) GetStatus() int {
	if r == nil || r.Status == 0 {
		return http.StatusOK
	}

	return r.Status
}

func (r *JSONResponse) WriteTo(writer http.ResponseWriter) error {
	if r == nil {
		return nil
	}

	return utils.WriteRawJSONForHTTP(r.GetStatus(), r.Body, writer)
}
