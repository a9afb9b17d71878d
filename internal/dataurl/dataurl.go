// Package dataurl handles the `data:<mime>;base64,<payload>` strings exchanged with clients.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const base64Marker = ";base64,"

var (
	// ErrNotDataURL is returned when a string lacks the data: scheme or the base64 marker.
	ErrNotDataURL = errors.New("not a base64 data URL")
	// ErrInvalidBase64 is returned when the payload does not decode as standard base64.
	ErrInvalidBase64 = errors.New("invalid base64 payload")
)

// DataURL is a parsed base64 data URL.
type DataURL struct {
	MimeType string
	Data     string // base64, without prefix
}

// String renders the data URL.
func (d DataURL) String() string {
	return Encode(d.MimeType, d.Data)
}

// Decode returns the raw bytes of the payload.
func (d DataURL) Decode() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	return raw, nil
}

// Encode builds `data:<mime>;base64,<data>` from an already base64-encoded payload.
func Encode(mimeType, data string) string {
	return "data:" + mimeType + base64Marker + data
}

// EncodeBytes base64-encodes raw and wraps it in a data URL.
func EncodeBytes(mimeType string, raw []byte) string {
	return Encode(mimeType, base64.StdEncoding.EncodeToString(raw))
}

// Parse splits a data URL into its MIME type and base64 payload.
func Parse(s string) (DataURL, error) {
	if !strings.HasPrefix(s, "data:") {
		return DataURL{}, ErrNotDataURL
	}
	idx := strings.Index(s, base64Marker)
	if idx == -1 {
		return DataURL{}, ErrNotDataURL
	}
	return DataURL{
		MimeType: s[len("data:"):idx],
		Data:     s[idx+len(base64Marker):],
	}, nil
}

// Strip removes a leading `data:...;base64,` prefix if present and returns the payload.
// Strings without the prefix are returned unchanged.
func Strip(s string) string {
	if d, err := Parse(s); err == nil {
		return d.Data
	}
	return s
}
