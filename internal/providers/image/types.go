package image

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// Provider names accepted by configuration.
const (
	ProviderPollinations = "pollinations"
	ProviderReplicate    = "replicate"
	ProviderBanana       = "banana"
	ProviderStability    = "stability"
	ProviderGemini       = "gemini"
	ProviderMock         = "mock"
)

var (
	ErrMissingAPIKey       = errors.New("image: api key not configured")
	ErrTimeout             = errors.New("image: generation timed out")
	ErrPromptBlocked       = errors.New("image: prompt blocked by safety filter")
	ErrSafetyFinish        = errors.New("image: generation stopped for safety")
	ErrModalityUnsupported = errors.New("image: model does not support image output")
	ErrMalformedImage      = errors.New("image: provider returned a malformed image")
	ErrEmptyResult         = errors.New("image: provider returned no image")
)

// GenerateRequest is the provider-neutral input.
type GenerateRequest struct {
	Prompt string
	Seed   int
	Width  int
	Height int
	// ReferenceImage is optional raw base64 or a data URL.
	ReferenceImage string
}

// Image is a generated result. Exactly one of URL or Base64 is set.
type Image struct {
	URL      string
	Base64   string
	MIME     string
	Seed     int
	Prompt   string
	Provider string
}

// Src returns a value usable as an <img> source.
func (i *Image) Src() string {
	if i.URL != "" {
		return i.URL
	}
	mime := i.MIME
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + i.Base64
}

// Generator is the contract implemented by every image backend.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (*Image, error)
}

// SplitDataURL separates a data URL into MIME type and base64 payload. Plain
// base64 input is returned unchanged with an empty MIME type.
func SplitDataURL(s string) (mime, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", ""
	}
	meta := strings.TrimPrefix(s[:comma], "data:")
	mime = strings.TrimSuffix(meta, ";base64")
	return mime, s[comma+1:]
}

// DecodeReference decodes a reference image into bytes and MIME type.
func DecodeReference(ref string) ([]byte, string, error) {
	mime, payload := SplitDataURL(ref)
	if payload == "" {
		return nil, "", ErrMalformedImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	if mime == "" {
		mime = sniffMIME(data)
	}
	return data, mime, nil
}

func sniffMIME(data []byte) string {
	switch {
	case len(data) >= 8 && string(data[1:4]) == "PNG":
		return "image/png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg"
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "image/webp"
	case len(data) >= 4 && string(data[0:4]) == "GIF8":
		return "image/gif"
	default:
		return "image/png"
	}
}

func normalizeFormat(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	switch mime {
	case "image/jpeg", "image/jpg":
		return "image/jpeg"
	case "":
		return "image/png"
	default:
		if strings.HasPrefix(mime, "image/") {
			return mime
		}
		return "image/png"
	}
}
