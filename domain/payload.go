package domain

import (
	"bytes"
	"chat-relay/domain/mimetypes"
	"chat-relay/errors"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

const dataURIPrefix = "data:"

var validate = validator.New()

// Payload is the content of a message: exactly one of Text or Image is set.
// Image is either an http(s) URL or a base64 data URI.
type Payload struct {
	Text  string `validate:"required_without=Image,excluded_with=Image"`
	Image string `validate:"required_without=Text,excluded_with=Text"`
}

// PayloadLimits caps the size of a message. A zero field disables its cap.
type PayloadLimits struct {
	MaxTextBytes  int
	MaxImageBytes int
}

// Normalize trims surrounding whitespace so that blank text counts as absent.
func (p Payload) Normalize() Payload {
	return Payload{Text: strings.TrimSpace(p.Text), Image: strings.TrimSpace(p.Image)}
}

// IsInline reports whether the image is carried inline as a data URI.
func (p Payload) IsInline() bool {
	return strings.HasPrefix(p.Image, dataURIPrefix)
}

// ValidatePayload checks the exactly-one-of rule and the image reference.
// Text is capped at MaxTextBytes. Inline images are decoded, capped at
// MaxImageBytes and must sniff as an allowed image format.
func ValidatePayload(p Payload, limits PayloadLimits) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if p.Image == "" {
		if limits.MaxTextBytes > 0 && len(p.Text) > limits.MaxTextBytes {
			return fmt.Errorf("%w: text exceeds %d bytes", errors.ErrInvalidPayload, limits.MaxTextBytes)
		}
		return nil
	}
	if !p.IsInline() {
		if err := validate.Var(p.Image, "http_url"); err != nil {
			return fmt.Errorf("%w: image must be an http(s) url or a data uri", errors.ErrInvalidPayload)
		}
		return nil
	}
	declared, raw, err := decodeDataURI(p.Image)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if _, ok := mimetypes.MatchesImage(declared); !ok {
		return fmt.Errorf("%w: unsupported image type %s", errors.ErrInvalidPayload, declared)
	}
	if limits.MaxImageBytes > 0 && len(raw) > limits.MaxImageBytes {
		return fmt.Errorf("%w: image exceeds %d bytes", errors.ErrInvalidPayload, limits.MaxImageBytes)
	}
	detected := mimetype.Detect(raw).String()
	if _, ok := mimetypes.MatchesImage(detected); !ok {
		return fmt.Errorf("%w: unsupported image type %s", errors.ErrInvalidPayload, detected)
	}
	return nil
}

// decodeDataURI extracts the media type and the bytes of "data:<mediatype>;base64,<data>".
func decodeDataURI(uri string) (string, []byte, error) {
	header, data, ok := strings.Cut(strings.TrimPrefix(uri, dataURIPrefix), ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data uri")
	}
	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("data uri must be base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("data uri: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil, fmt.Errorf("empty image")
	}
	return mediaType, raw, nil
}
