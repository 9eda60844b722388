package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"go.uber.org/zap"
)

// ScreenService is the signaling gateway: it owns session creation,
// trickle candidates, quality changes, stats and teardown for all viewers.
type ScreenService struct {
	peers     ports.PeerFactory
	capture   ports.CaptureService
	encoders  ports.EncoderFactory
	registry  *SessionRegistry
	collector ports.Collector
	logger    *zap.SugaredLogger

	display        int
	defaultQuality domain.QualityPreset
	counter        atomic.Uint64
}

// NewScreenService wires the gateway with its collaborators. display selects
// which monitor is captured for every session; defaultQuality is used when an
// offer does not request a tier.
func NewScreenService(
	peers ports.PeerFactory,
	capture ports.CaptureService,
	encoders ports.EncoderFactory,
	collector ports.Collector,
	display int,
	defaultQuality domain.QualityPreset,
	logger *zap.SugaredLogger,
) *ScreenService {
	return &ScreenService{
		peers:          peers,
		capture:        capture,
		encoders:       encoders,
		registry:       NewSessionRegistry(),
		collector:      collector,
		logger:         logger,
		display:        display,
		defaultQuality: defaultQuality,
	}
}

// CreateOffer handles an incoming viewer offer: it builds the session, applies
// the remote description and returns the local answer. An unknown quality name
// falls back to medium rather than failing the request. A negotiation failure
// leaves no session registered.
func (s *ScreenService) CreateOffer(ctx context.Context, sdp, sdpType, quality string) (*domain.OfferResult, error) {
	preset := s.defaultQuality
	if quality != "" {
		preset = domain.PresetOrDefault(quality)
	}
	id := domain.NewSessionID(s.counter.Add(1))

	grabber, err := s.capture.NewGrabber(s.display)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCaptureUnavailable, err)
	}

	bridge := NewFrameBridge()
	source := NewFrameSource(grabber, bridge, preset, s.collector, s.logger)
	controller := NewQualityController(source, s.collector, s.logger)

	pc, err := s.peers.NewPeerConnection(ports.PeerCallbacks{
		OnConnectionStateChange: func(state string) {
			s.OnConnectionStateChange(id, state)
		},
		OnICEStateChange: func(state string) {
			s.logger.Infow("ice state changed", "connection_id", id, "ice_state", state)
		},
		OnRTTReport: func(rttMs float64) {
			s.ReportRTT(id, rttMs)
		},
		OnQualityChange: func(name string) {
			if _, err := s.ChangeQuality(context.Background(), id, name); err != nil {
				s.logger.Debugw("telemetry quality change rejected",
					"connection_id", id,
					"quality", name,
					"error", err,
				)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNegotiationFailed, err)
	}

	session := newStreamSession(id, source, bridge, controller, pc, s.encoders, s.collector, s.logger)

	localSDP, localType, err := pc.Negotiate(sdp, sdpType)
	if err != nil {
		// No partial state survives a failed handshake.
		session.shutdown()
		return nil, fmt.Errorf("%w: %v", domain.ErrNegotiationFailed, err)
	}
	session.setState(domain.SessionNegotiating)

	s.registry.Add(session)
	s.collector.SessionOpened()
	s.logger.Infow("session created",
		"connection_id", id,
		"preset", preset,
	)

	return &domain.OfferResult{
		ConnectionID: id,
		SDP:          localSDP,
		Type:         localType,
		Quality:      session.QualityInfo(),
	}, nil
}

// AddICECandidate applies a trickled candidate to an existing session. An
// empty candidate payload signals end-of-candidates and is a no-op success.
func (s *ScreenService) AddICECandidate(ctx context.Context, connectionID string, candidate domain.ICECandidate) error {
	session, ok := s.registry.Get(connectionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if candidate.Candidate == "" {
		return nil
	}
	if err := session.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidCandidate, err)
	}
	return nil
}

// ChangeQuality validates the tier name and applies it to the session's
// capture source.
func (s *ScreenService) ChangeQuality(ctx context.Context, connectionID, quality string) (domain.QualityInfo, error) {
	session, ok := s.registry.Get(connectionID)
	if !ok {
		return domain.QualityInfo{}, domain.ErrSessionNotFound
	}
	preset, err := domain.ParseQualityPreset(quality)
	if err != nil {
		return domain.QualityInfo{}, err
	}
	session.SetQuality(preset)
	return session.QualityInfo(), nil
}

// GetStats returns the live status for one session.
func (s *ScreenService) GetStats(ctx context.Context, connectionID string) (*domain.SessionStats, error) {
	session, ok := s.registry.Get(connectionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Stats(), nil
}

// StopStream tears down one session. Stopping an unknown or already-stopped
// id is a silent success.
func (s *ScreenService) StopStream(ctx context.Context, connectionID string) error {
	s.cleanup(connectionID)
	return nil
}

// Sessions lists the active sessions.
func (s *ScreenService) Sessions(ctx context.Context) []domain.SessionSummary {
	ids := s.registry.IDs()
	summaries := make([]domain.SessionSummary, 0, len(ids))
	for _, id := range ids {
		if session, ok := s.registry.Get(id); ok {
			summaries = append(summaries, session.Summary())
		}
	}
	return summaries
}

// ActiveSessions returns the number of registered sessions.
func (s *ScreenService) ActiveSessions() int {
	return s.registry.Len()
}

// ReportRTT routes a viewer latency sample to its session's controller.
func (s *ScreenService) ReportRTT(connectionID string, rttMs float64) {
	if session, ok := s.registry.Get(connectionID); ok {
		session.ReportRTT(rttMs)
	}
}

// OnConnectionStateChange tracks peer-connection state transitions and tears
// the session down on terminal states. Duplicate and concurrent invocations
// are safe.
func (s *ScreenService) OnConnectionStateChange(connectionID, state string) {
	session, ok := s.registry.Get(connectionID)
	if !ok {
		return
	}
	s.logger.Infow("connection state changed",
		"connection_id", connectionID,
		"state", state,
	)

	next := domain.SessionState(state)
	switch {
	case next == domain.SessionConnected:
		session.setState(domain.SessionConnected)
		session.startDelivery()
	case next.Terminal():
		session.setState(next)
		s.cleanup(connectionID)
	}
}

// CleanupAll tears down every active session; used at process shutdown so no
// capture goroutine or peer connection outlives the server.
func (s *ScreenService) CleanupAll(ctx context.Context) {
	ids := s.registry.IDs()
	for _, id := range ids {
		s.cleanup(id)
	}
	s.logger.Infow("all sessions cleaned up", "count", len(ids))
}

// cleanup removes and shuts down one session. Idempotent: losing the removal
// race means another caller already owns the teardown.
func (s *ScreenService) cleanup(connectionID string) {
	session, ok := s.registry.Remove(connectionID)
	if !ok {
		return
	}
	session.shutdown()
	s.collector.SessionClosed()
}
