package services

import (
	"image"
	"sync"
	"time"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"go.uber.org/zap"
)

// captureJoinTimeout bounds how long Stop waits for the capture goroutine.
const captureJoinTimeout = 2 * time.Second

// FrameSource runs one dedicated capture goroutine producing frames at the
// active preset's rate, resized to the active preset's resolution.
type FrameSource struct {
	grabber   ports.ScreenGrabber
	bridge    *FrameBridge
	collector ports.Collector
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	preset     domain.QualityPreset
	profile    domain.QualityProfile
	running    bool
	stopCh     chan struct{}
	doneCh     chan struct{}
	frameCount int64
}

// NewFrameSource creates a source at the given preset. The capture goroutine
// does not start until Start is called.
func NewFrameSource(
	grabber ports.ScreenGrabber,
	bridge *FrameBridge,
	preset domain.QualityPreset,
	collector ports.Collector,
	logger *zap.SugaredLogger,
) *FrameSource {
	return &FrameSource{
		grabber:   grabber,
		bridge:    bridge,
		collector: collector,
		logger:    logger,
		preset:    preset,
		profile:   preset.Profile(),
	}
}

// Start spins up the capture goroutine. Calling Start on a running source is
// a no-op.
func (s *FrameSource) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.captureLoop(s.stopCh, s.doneCh)
	s.logger.Infow("capture started",
		"preset", s.preset,
		"width", s.profile.Width,
		"height", s.profile.Height,
		"fps", s.profile.FPS,
	)
}

// Stop signals the capture goroutine and waits for it with a bounded join.
// Exceeding the bound is logged and accepted; Stop never blocks shutdown
// indefinitely.
func (s *FrameSource) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(captureJoinTimeout):
		s.logger.Warnw("capture goroutine did not stop within join timeout",
			"timeout", captureJoinTimeout,
		)
	}
}

// SetQuality swaps the active profile. Takes effect on the next captured
// frame; the capture goroutine is not restarted.
func (s *FrameSource) SetQuality(preset domain.QualityPreset) {
	s.mu.Lock()
	s.preset = preset
	s.profile = preset.Profile()
	s.mu.Unlock()
	s.logger.Infow("quality changed",
		"preset", preset,
		"width", preset.Profile().Width,
		"height", preset.Profile().Height,
		"fps", preset.Profile().FPS,
	)
}

// Quality returns the active preset and its profile.
func (s *FrameSource) Quality() (domain.QualityPreset, domain.QualityProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset, s.profile
}

func (s *FrameSource) captureLoop(stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			s.logger.Debug("capture goroutine stopped")
			return
		default:
		}

		loopStart := time.Now()
		preset, profile := s.Quality()

		img, err := s.grabber.Grab()
		if err != nil {
			// A single failed grab never terminates the source.
			s.logger.Warnw("screen grab failed", "error", err)
		} else {
			bounds := img.Bounds()
			if bounds.Dx() != profile.Width || bounds.Dy() != profile.Height {
				img = resizeNearest(img, profile.Width, profile.Height)
			}
			s.mu.Lock()
			pts := s.frameCount
			s.frameCount++
			s.mu.Unlock()
			s.bridge.Publish(&domain.Frame{Image: img, PTS: pts})
			s.collector.FrameCaptured(string(preset))
		}

		// If the iteration overran the frame budget, skip the sleep and let
		// the stream degrade instead of bursting to catch up.
		sleep := profile.FrameInterval() - time.Since(loopStart)
		if sleep > 0 {
			select {
			case <-stopCh:
				s.logger.Debug("capture goroutine stopped")
				return
			case <-time.After(sleep):
			}
		}
	}
}

// resizeNearest scales src to exactly targetW x targetH with nearest-neighbor
// index mapping. Works for both upscale and downscale at O(target pixels).
func resizeNearest(src *image.RGBA, targetW, targetH int) *image.RGBA {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	for y := 0; y < targetH; y++ {
		sy := y * srcH / targetH
		srcRow := src.PixOffset(bounds.Min.X, bounds.Min.Y+sy)
		dstRow := dst.PixOffset(0, y)
		for x := 0; x < targetW; x++ {
			si := srcRow + (x*srcW/targetW)*4
			di := dstRow + x*4
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
