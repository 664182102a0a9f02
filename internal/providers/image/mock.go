package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// DefaultMockDelay imitates a remote call.
const DefaultMockDelay = 800 * time.Millisecond

// Mock returns a placeholder SVG and never fails except on cancellation.
type Mock struct {
	Delay time.Duration
}

func NewMock(delay time.Duration) *Mock {
	if delay < 0 {
		delay = 0
	}
	return &Mock{Delay: delay}
}

func (m *Mock) Name() string { return ProviderMock }

func (m *Mock) Generate(ctx context.Context, req GenerateRequest) (*Image, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	hue := req.Seed % 360
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">`+
		`<stop offset="0" stop-color="hsl(%d,70%%,45%%)"/><stop offset="1" stop-color="hsl(%d,70%%,20%%)"/>`+
		`</linearGradient></defs><rect width="100%%" height="100%%" fill="url(#g)"/>`+
		`<text x="50%%" y="50%%" fill="#fff" font-family="monospace" font-size="32" text-anchor="middle">seed %d · %dx%d</text></svg>`,
		req.Width, req.Height, req.Width, req.Height, hue, (hue+60)%360, req.Seed, req.Width, req.Height)
	return &Image{
		Base64:   base64.StdEncoding.EncodeToString([]byte(svg)),
		MIME:     "image/svg+xml",
		Seed:     req.Seed,
		Prompt:   req.Prompt,
		Provider: ProviderMock,
	}, nil
}

var _ Generator = (*Mock)(nil)
