package domain_test

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func pngDataURI(size int) string {
	raw := append(bytes.Clone(pngSignature), bytes.Repeat([]byte{0x01}, size-len(pngSignature))...)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
}

func TestValidatePayload(t *testing.T) {
	limits := domain.PayloadLimits{MaxTextBytes: 16, MaxImageBytes: 1024}

	tests := []struct {
		name    string
		payload domain.Payload
		wantErr bool
	}{
		{"Text only", domain.Payload{Text: "hello"}, false},
		{"PNG data uri", domain.Payload{Image: pngDataURI(512)}, false},
		{"PNG data uri at the cap", domain.Payload{Image: pngDataURI(1024)}, false},
		{"https url", domain.Payload{Image: "https://cdn.example.com/cat.png"}, false},
		{"http url", domain.Payload{Image: "http://cdn.example.com/cat.png"}, false},
		{"Neither text nor image", domain.Payload{}, true},
		{"Both text and image", domain.Payload{Text: "hi", Image: "https://cdn.example.com/cat.png"}, true},
		{"Text over the cap", domain.Payload{Text: strings.Repeat("a", 17)}, true},
		{"ftp url", domain.Payload{Image: "ftp://files.example.com/cat.png"}, true},
		{"Plain text data uri", domain.Payload{Image: "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))}, true},
		{"Text bytes declared as png", domain.Payload{Image: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))}, true},
		{"PNG bytes declared as text", domain.Payload{Image: strings.Replace(pngDataURI(64), "image/png", "text/plain", 1)}, true},
		{"Image over the cap", domain.Payload{Image: pngDataURI(1025)}, true},
		{"Not base64 encoded", domain.Payload{Image: "data:image/png," + string(pngSignature)}, true},
		{"Invalid base64", domain.Payload{Image: "data:image/png;base64,%%%not-base64%%%"}, true},
		{"Empty data uri", domain.Payload{Image: "data:image/png;base64,"}, true},
		{"Missing comma", domain.Payload{Image: "data:image/png;base64"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			// When
			err := domain.ValidatePayload(tt.payload, limits)

			// Then
			if tt.wantErr {
				req.Error(err)
				req.True(errors.Is(err, errors.ErrInvalidPayload))
				req.Equal("InvalidPayload", errors.Kind(err))
				return
			}
			req.NoError(err)
		})
	}
}

func TestValidatePayload_Zero_Limits_Disable_The_Caps(t *testing.T) {
	req := require.New(t)

	// Given a text and an image well over any sensible cap
	text := domain.Payload{Text: strings.Repeat("a", 1<<16)}
	image := domain.Payload{Image: pngDataURI(1 << 16)}

	// Then both pass without limits
	req.NoError(domain.ValidatePayload(text, domain.PayloadLimits{}))
	req.NoError(domain.ValidatePayload(image, domain.PayloadLimits{}))
}

func TestPayload_Normalize_Treats_Blank_Text_As_Absent(t *testing.T) {
	req := require.New(t)

	// Given
	p := domain.Payload{Text: "   ", Image: " https://cdn.example.com/cat.png "}.Normalize()

	// Then
	req.Empty(p.Text)
	req.Equal("https://cdn.example.com/cat.png", p.Image)
	req.False(p.IsInline())
	req.NoError(domain.ValidatePayload(p, domain.PayloadLimits{}))
}
