package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	"k8s.io/client-go/util/jsonpath"
)

// ReadAsJSONWithClose reads the whole body, closes it, and parses it as a JSON
// object. The returned buffer holds the raw bytes as read.
func ReadAsJSONWithClose(readCloser io.ReadCloser) (*bytes.Buffer, map[string]any, error) {
	if readCloser == nil {
		return nil, nil, io.ErrUnexpectedEOF
	}

	defer func() { _ = readCloser.Close() }()

	buffer := new(bytes.Buffer)

	_, err := buffer.ReadFrom(readCloser)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read body: %w", err)
	}

	var parsed map[string]any

	err = json.Unmarshal(buffer.Bytes(), &parsed)
	if err != nil {
		return buffer, nil, fmt.Errorf("failed to unmarshal body: %w", err)
	}

	return buffer, parsed, nil
}

func WriteJSONForHTTP(status int, resp any, writer http.ResponseWriter) {
	bs, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)

		status = http.StatusInternalServerError
		bs = []byte(`{"error":"Internal error"}`)
	}

	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)

	_, _ = writer.Write(bs)
}

func WriteRawJSONForHTTP(status int, body []byte, writer http.ResponseWriter) error {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(status)

	_, err := writer.Write(body)

	return err
}

// FromMap converts a decoded JSON value into T by re-encoding it.
func FromMap[T any](m any) (*T, error) {
	bs, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	var out T

	err = json.Unmarshal(bs, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func findByJSONPath(data any, template string) (any, bool) {
	jp := jsonpath.New("").AllowMissingKeys(true)

	err := jp.Parse(template)
	if err != nil {
		return nil, false
	}

	results, err := jp.FindResults(data)
	if err != nil || len(results) == 0 || len(results[0]) == 0 {
		return nil, false
	}

	value := results[0][0]
	if !value.IsValid() {
		return nil, false
	}

	switch value.Kind() { //nolint:exhaustive
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		if value.IsNil() {
			return nil, false
		}
	}

	if !value.CanInterface() {
		return nil, false
	}

	return value.Interface(), true
}

// GetByJSONPath evaluates a kubectl style JSONPath template (e.g. "{ .status.code }")
// against data and converts the first match into T. Missing keys, nulls and values
// that cannot be represented as T yield the zero value.
func GetByJSONPath[T any](data any, template string) T {
	var empty T

	value, ok := findByJSONPath(data, template)
	if !ok {
		return empty
	}

	typed, ok := value.(T)
	if ok {
		return typed
	}

	converted, err := FromMap[T](value)
	if err != nil {
		return empty
	}

	return *converted
}
