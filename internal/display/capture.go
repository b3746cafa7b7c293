package display

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// Grabber captures the raw pixel buffer of the primary display.
type Grabber interface {
	Capture() (image.Image, error)
}

// Capturer captures the primary display, normalizes it to the logical
// resolution, and encodes it for embedding in a tool result. It holds no
// mutable state but the underlying Grabber is not assumed reentrant;
// callers serialize access (the computer tool does).
type Capturer struct {
	scaler  Scaler
	grabber Grabber
}

// NewCapturer wires a capturer to its display backend.
func NewCapturer(scaler Scaler, grabber Grabber) *Capturer {
	return &Capturer{scaler: scaler, grabber: grabber}
}

// Capture grabs the display, resizes to the logical resolution when
// scaling is enabled, and returns the frame as base64-encoded PNG. The
// controller therefore always sees images at the fixed logical size
// regardless of the actual display.
func (c *Capturer) Capture() (string, error) {
	img, err := c.grabber.Capture()
	if err != nil {
		return "", fmt.Errorf("capture display: %w", err)
	}

	if c.scaler.Enabled() {
		w, h := c.scaler.LogicalSize()
		if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
			dst := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
			img = dst
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
