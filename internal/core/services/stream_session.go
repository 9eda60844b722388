package services

import (
	"sync"
	"time"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"go.uber.org/zap"
)

// frameWaitTimeout bounds how long the delivery loop waits for a frame before
// substituting a blank one. A viewer never stalls indefinitely on its first
// frame.
const frameWaitTimeout = time.Second

// StreamSession bundles one viewer's capture source, frame bridge, quality
// controller and peer connection, and owns their combined lifecycle.
type StreamSession struct {
	id        string
	createdAt time.Time
	source    *FrameSource
	bridge    *FrameBridge
	quality   *QualityController
	pc        ports.PeerConnection
	encoders  ports.EncoderFactory
	collector ports.Collector
	logger    *zap.SugaredLogger

	mu    sync.Mutex
	state domain.SessionState

	deliverOnce  sync.Once
	shutdownOnce sync.Once
	stopCh       chan struct{}
}

func newStreamSession(
	id string,
	source *FrameSource,
	bridge *FrameBridge,
	quality *QualityController,
	pc ports.PeerConnection,
	encoders ports.EncoderFactory,
	collector ports.Collector,
	logger *zap.SugaredLogger,
) *StreamSession {
	return &StreamSession{
		id:        id,
		createdAt: time.Now(),
		source:    source,
		bridge:    bridge,
		quality:   quality,
		pc:        pc,
		encoders:  encoders,
		collector: collector,
		logger:    logger.With("connection_id", id),
		state:     domain.SessionCreating,
		stopCh:    make(chan struct{}),
	}
}

// ID returns the session's connection id.
func (s *StreamSession) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *StreamSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *StreamSession) setState(state domain.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// QualityInfo returns the active quality snapshot.
func (s *StreamSession) QualityInfo() domain.QualityInfo {
	preset, _ := s.source.Quality()
	return preset.Info()
}

// Stats returns the live peer-connection and quality status.
func (s *StreamSession) Stats() *domain.SessionStats {
	return &domain.SessionStats{
		ConnectionState: s.pc.ConnectionState(),
		ICEState:        s.pc.ICEState(),
		Quality:         s.QualityInfo(),
	}
}

// Summary returns the listing view of the session.
func (s *StreamSession) Summary() domain.SessionSummary {
	return domain.SessionSummary{
		ConnectionID: s.id,
		State:        string(s.State()),
		Quality:      s.QualityInfo(),
		CreatedAt:    s.createdAt,
	}
}

// ReportRTT routes viewer latency telemetry to the quality controller.
func (s *StreamSession) ReportRTT(rttMs float64) {
	s.quality.Report(rttMs)
}

// SetQuality applies a validated preset to the capture source.
func (s *StreamSession) SetQuality(preset domain.QualityPreset) {
	s.source.SetQuality(preset)
}

// AddICECandidate forwards a trickled candidate to the peer connection.
func (s *StreamSession) AddICECandidate(candidate domain.ICECandidate) error {
	return s.pc.AddICECandidate(candidate)
}

// startDelivery launches the frame delivery loop, once.
func (s *StreamSession) startDelivery() {
	s.deliverOnce.Do(func() {
		go s.deliverLoop()
	})
}

// deliverLoop is the asynchronous consumer: it lazily starts the capture
// goroutine, then pulls the latest frame from the bridge, encodes it and
// writes it to the peer connection until the session shuts down.
func (s *StreamSession) deliverLoop() {
	s.source.Start()

	var (
		enc        ports.Encoder
		encW, encH int
	)
	defer func() {
		if enc != nil {
			if err := enc.Close(); err != nil {
				s.logger.Debugw("encoder close failed", "error", err)
			}
		}
	}()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		frame, ok := s.bridge.AwaitNext(frameWaitTimeout)
		preset, profile := s.source.Quality()
		if !ok {
			frame = domain.BlankFrame(profile.Width, profile.Height)
		}

		// x264 encoders are fixed-size; rebuild when the tier swap changes
		// the incoming resolution.
		bounds := frame.Image.Bounds()
		if enc == nil || bounds.Dx() != encW || bounds.Dy() != encH {
			if enc != nil {
				enc.Close()
			}
			next, err := s.encoders.NewEncoder(bounds.Dx(), bounds.Dy(), profile.FPS)
			if err != nil {
				s.logger.Errorw("encoder init failed",
					"width", bounds.Dx(),
					"height", bounds.Dy(),
					"error", err,
				)
				return
			}
			enc = next
			encW, encH = bounds.Dx(), bounds.Dy()
		}

		encodeStart := time.Now()
		payload, err := enc.Encode(frame.Image)
		if err != nil {
			s.logger.Warnw("frame encode failed", "pts", frame.PTS, "error", err)
			continue
		}
		s.collector.ObserveEncode(time.Since(encodeStart))
		if len(payload) == 0 {
			continue
		}

		if err := s.pc.WriteVideo(payload, profile.FrameInterval()); err != nil {
			// Expected while the connection is tearing down.
			s.logger.Debugw("video write failed", "error", err)
			continue
		}
		s.collector.FrameDelivered(string(preset))
	}
}

// shutdown stops capture, releases the peer connection and marks the session
// cleaned up. Safe under duplicate and concurrent invocation.
func (s *StreamSession) shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.stopCh)
		s.source.Stop()
		if err := s.pc.Close(); err != nil {
			s.logger.Debugw("peer connection close failed", "error", err)
		}
		s.setState(domain.SessionCleanedUp)
		s.logger.Infow("session cleaned up")
	})
}
