package acrcloud

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/base64"
	"strconv"
	"strings"
)

const (
	IdentifyMethod   = "POST"
	IdentifyPath     = "/v1/identify"
	DataTypeAudio    = "audio"
	SignatureVersion = "1"
)

type Credentials struct {
	Host         string
	AccessKey    string
	AccessSecret string
}

// IsComplete reports whether every credential is non-empty. Recognition is
// only offered when it is.
func (c Credentials) IsComplete() bool {
	return c.Host != "" && c.AccessKey != "" && c.AccessSecret != ""
}

// StringToSign joins the fixed request attributes with the access key and
// timestamp, one per line.
func StringToSign(accessKey string, timestamp int64) string {
	return strings.Join([]string{
		IdentifyMethod,
		IdentifyPath,
		accessKey,
		DataTypeAudio,
		SignatureVersion,
		strconv.FormatInt(timestamp, 10),
	}, "\n")
}

// Sign returns base64(HMAC-SHA1(accessSecret, StringToSign(accessKey, timestamp))).
func Sign(accessKey, accessSecret string, timestamp int64) string {
	mac := hmac.New(sha1.New, []byte(accessSecret))
	_, _ = mac.Write([]byte(StringToSign(accessKey, timestamp)))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
