package encoding

import (
	"bytes"
	"image"

	"deskcast/internal/core/ports"

	"github.com/gen2brain/x264-go"
)

// H264Factory builds x264 encoders tuned for low-latency screen streaming.
type H264Factory struct{}

// NewH264Factory returns the x264-backed encoder factory.
func NewH264Factory() *H264Factory {
	return &H264Factory{}
}

// NewEncoder creates an encoder for a fixed frame size and rate.
func (f *H264Factory) NewEncoder(width, height, fps int) (ports.Encoder, error) {
	buffer := bytes.NewBuffer(nil)
	opts := x264.Options{
		Width:     width,
		Height:    height,
		FrameRate: fps,
		Tune:      "zerolatency",
		Preset:    "veryfast",
		Profile:   "baseline",
		LogLevel:  x264.LogWarning,
	}
	encoder, err := x264.NewEncoder(buffer, &opts)
	if err != nil {
		return nil, err
	}
	return &h264Encoder{
		buffer:  buffer,
		encoder: encoder,
	}, nil
}

type h264Encoder struct {
	buffer  *bytes.Buffer
	encoder *x264.Encoder
}

// Encode compresses one frame into an H.264 payload.
func (e *h264Encoder) Encode(frame *image.RGBA) ([]byte, error) {
	if err := e.encoder.Encode(frame); err != nil {
		return nil, err
	}
	if err := e.encoder.Flush(); err != nil {
		return nil, err
	}
	payload := append([]byte(nil), e.buffer.Bytes()...)
	e.buffer.Reset()
	return payload, nil
}

// Close flushes and closes the inner x264 encoder.
func (e *h264Encoder) Close() error {
	return e.encoder.Close()
}
