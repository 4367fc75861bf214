package acrcloud

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/vincent-petithory/dataurl"
)

var (
	ErrEmptyAudio = errors.New("audio is empty")

	audioEncodings = []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
)

// DecodeAudio accepts either plain base64 (standard or URL alphabet, padded
// or not, whitespace ignored) or a data: URL as produced by FileReader.
func DecodeAudio(audio string) ([]byte, error) {
	audio = strings.TrimSpace(audio)

	if strings.HasPrefix(audio, "data:") {
		decoded, err := dataurl.DecodeString(audio)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data url: %w", err)
		}

		if len(decoded.Data) == 0 {
			return nil, ErrEmptyAudio
		}

		return decoded.Data, nil
	}

	audio = strings.Map(func(r rune) rune {
		return lo.Ternary(unicode.IsSpace(r), -1, r)
	}, audio)

	if audio == "" {
		return nil, ErrEmptyAudio
	}

	var lastErr error

	for _, encoding := range audioEncodings {
		decoded, err := encoding.DecodeString(audio)
		if err == nil {
			if len(decoded) == 0 {
				return nil, ErrEmptyAudio
			}

			return decoded, nil
		}

		lastErr = err
	}

	return nil, fmt.Errorf("failed to decode base64 audio: %w", lastErr)
}
