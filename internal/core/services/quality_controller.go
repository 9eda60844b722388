package services

import (
	"sync"
	"time"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"go.uber.org/zap"
)

const (
	rttWindowSize  = 30
	minAdaptSample = 5
	adaptInterval  = 3 * time.Second
)

// QualityController adapts a FrameSource's tier from viewer RTT telemetry.
// It keeps a capped rolling window of samples and recomputes at most once per
// interval, and only once enough samples exist; both conditions together damp
// oscillation.
type QualityController struct {
	source    *FrameSource
	collector ports.Collector
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu        sync.Mutex
	samples   []float64
	lastAdapt time.Time
}

// NewQualityController creates a controller driving the given source.
func NewQualityController(source *FrameSource, collector ports.Collector, logger *zap.SugaredLogger) *QualityController {
	return &QualityController{
		source:    source,
		collector: collector,
		logger:    logger,
		now:       time.Now,
		samples:   make([]float64, 0, rttWindowSize),
	}
}

// Report appends an RTT sample and recomputes the tier when due.
func (c *QualityController) Report(rttMs float64) {
	c.collector.ObserveRTT(rttMs)

	c.mu.Lock()
	c.samples = append(c.samples, rttMs)
	if len(c.samples) > rttWindowSize {
		c.samples = c.samples[1:]
	}

	now := c.now()
	if now.Sub(c.lastAdapt) < adaptInterval || len(c.samples) < minAdaptSample {
		c.mu.Unlock()
		return
	}
	c.lastAdapt = now

	var sum float64
	for _, s := range c.samples {
		sum += s
	}
	avg := sum / float64(len(c.samples))
	c.mu.Unlock()

	target := presetForRTT(avg)
	current, _ := c.source.Quality()
	if target == current {
		return
	}

	c.logger.Infow("adaptive quality switch",
		"avg_rtt_ms", avg,
		"from", current,
		"to", target,
	)
	c.source.SetQuality(target)
	c.collector.QualitySwitched(string(current), string(target))
}

// presetForRTT maps an average RTT onto the tier ladder.
func presetForRTT(avgMs float64) domain.QualityPreset {
	switch {
	case avgMs > 200:
		return domain.QualityLow
	case avgMs > 100:
		return domain.QualityMedium
	case avgMs > 50:
		return domain.QualityHigh
	default:
		return domain.QualityUltra
	}
}
