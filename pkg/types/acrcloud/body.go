package acrcloud

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"time"
)

const (
	boundaryPrefix = "----VIZarcade"

	sampleFieldName   = "sample"
	sampleFileName    = "audio.webm"
	sampleContentType = "audio/webm"
)

// Boundary derives the multipart boundary from the wall clock in milliseconds.
func Boundary(now time.Time) string {
	return boundaryPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

type IdentifyBody struct {
	Boundary    string
	ContentType string
	Bytes       []byte
}

// BuildIdentifyBody encodes the signed text fields followed by the audio
// sample as a single multipart/form-data document.
func BuildIdentifyBody(creds Credentials, sample []byte, timestamp int64, boundary string) (*IdentifyBody, error) {
	buffer := new(bytes.Buffer)
	writer := multipart.NewWriter(buffer)

	err := writer.SetBoundary(boundary)
	if err != nil {
		return nil, fmt.Errorf("invalid multipart boundary %q: %w", boundary, err)
	}

	fields := [][2]string{
		{"access_key", creds.AccessKey},
		{"data_type", DataTypeAudio},
		{"signature_version", SignatureVersion},
		{"signature", Sign(creds.AccessKey, creds.AccessSecret, timestamp)},
		{"sample_bytes", strconv.Itoa(len(sample))},
		{"timestamp", strconv.FormatInt(timestamp, 10)},
	}

	for _, field := range fields {
		err := writer.WriteField(field[0], field[1])
		if err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", field[0], err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, sampleFieldName, sampleFileName))
	header.Set("Content-Type", sampleContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create sample part: %w", err)
	}

	_, err = part.Write(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to write sample: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	return &IdentifyBody{
		Boundary:    boundary,
		ContentType: writer.FormDataContentType(),
		Bytes:       buffer.Bytes(),
	}, nil
}
