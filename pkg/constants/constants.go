package constants

import "time"

const (
	DefaultDrainWaitTime = time.Second * 5
)

const (
	RecognitionConfigPath = "/api/acr-config"
	RecognitionProxyPath  = "/api/acr-identify"
	ThemePath             = "/api/theme"
)

const (
	RequestIDHeader = "X-Request-ID"
)

const (
	// MaxRequestBodyBytes caps JSON request bodies; a few seconds of webm audio
	// encoded as base64 stays far below it.
	MaxRequestBodyBytes = 16 << 20
)
