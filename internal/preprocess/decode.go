package preprocess

import (
	"bytes"
	"encoding/base64"
	"fmt"
	_ "image/gif" // Register GIF decoder
	"image/png"
	"strings"

	"github.com/gen2brain/heic"
)

// DecodePayload converts a wire-form image payload into raw bytes.
// Accepted forms: standard base64 and data URLs
// ("data:image/png;base64,...").
func DecodePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty image payload")
	}

	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL: no comma separator")
		}
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image payload: %w", err)
	}
	return data, nil
}

// NormalizeInput converts HEIC frames (common from phone cameras) to PNG
// so the standard decoders can handle them. Other formats pass through
// untouched.
func NormalizeInput(data []byte) ([]byte, error) {
	if !isHEIC(data) {
		return data, nil
	}

	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode HEIC image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encode HEIC frame: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEIC sniffs the ftyp box brands used by HEIC/HEIF containers.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
