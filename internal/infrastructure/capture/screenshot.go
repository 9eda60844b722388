package capture

import (
	"fmt"
	"image"

	"deskcast/internal/core/ports"

	"github.com/kbinani/screenshot"
)

// Service enumerates host displays and creates grabbers for them.
type Service struct{}

// NewService returns the screenshot-backed capture service.
func NewService() *Service {
	return &Service{}
}

// NumDisplays returns the number of active displays.
func (s *Service) NumDisplays() int {
	return screenshot.NumActiveDisplays()
}

// NewGrabber creates a grabber for the given display. Out-of-range indexes
// fall back to the primary display.
func (s *Service) NewGrabber(display int) (ports.ScreenGrabber, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, fmt.Errorf("no active displays")
	}
	if display < 0 || display >= n {
		display = 0
	}
	return &displayGrabber{bounds: screenshot.GetDisplayBounds(display)}, nil
}

type displayGrabber struct {
	bounds image.Rectangle
}

// Grab captures the display's current pixels.
func (g *displayGrabber) Grab() (*image.RGBA, error) {
	return screenshot.CaptureRect(g.bounds)
}
