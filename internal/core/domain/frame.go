package domain

import "image"

// Frame is one captured screen image with its presentation timestamp.
// The producer hands over exclusive ownership on publish; consumers must not
// mutate the pixel buffer.
type Frame struct {
	Image *image.RGBA
	PTS   int64
}

// BlankFrame returns an all-black frame at the given resolution with PTS 0.
// Used as a substitute when a viewer is waiting and capture has not produced
// anything yet.
func BlankFrame(width, height int) *Frame {
	return &Frame{
		Image: image.NewRGBA(image.Rect(0, 0, width, height)),
		PTS:   0,
	}
}
