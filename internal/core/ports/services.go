package ports

import (
	"context"
	"image"
	"io"
	"time"

	"deskcast/internal/core/domain"
)

// ScreenGrabber captures the current screen pixels of one display.
type ScreenGrabber interface {
	Grab() (*image.RGBA, error)
}

// CaptureService creates grabbers for the displays attached to the host.
type CaptureService interface {
	NewGrabber(display int) (ScreenGrabber, error)
	NumDisplays() int
}

// Encoder turns raw frames into compressed video payloads.
type Encoder interface {
	io.Closer
	Encode(*image.RGBA) ([]byte, error)
}

// EncoderFactory creates encoders for a fixed frame size and rate.
type EncoderFactory interface {
	NewEncoder(width, height, fps int) (Encoder, error)
}

// PeerCallbacks are invoked by the peer connection for out-of-band events.
// Callbacks may fire from transport goroutines; handlers must be safe to call
// concurrently and after session teardown.
type PeerCallbacks struct {
	OnConnectionStateChange func(state string)
	OnICEStateChange        func(state string)
	OnRTTReport             func(rttMs float64)
	OnQualityChange         func(preset string)
}

// PeerConnection is one negotiated media session to a single viewer.
type PeerConnection interface {
	// Negotiate applies the viewer's offer and returns the local answer.
	Negotiate(remoteSDP, remoteType string) (localSDP, localType string, err error)
	AddICECandidate(candidate domain.ICECandidate) error
	WriteVideo(payload []byte, duration time.Duration) error
	ConnectionState() string
	ICEState() string
	Close() error
}

// PeerFactory creates configured peer connections.
type PeerFactory interface {
	NewPeerConnection(callbacks PeerCallbacks) (PeerConnection, error)
}

// Collector receives streaming metrics.
type Collector interface {
	SessionOpened()
	SessionClosed()
	FrameCaptured(preset string)
	FrameDelivered(preset string)
	QualitySwitched(from, to string)
	ObserveRTT(rttMs float64)
	ObserveEncode(d time.Duration)
}

// ScreenService is the signaling surface the transport layers call into.
type ScreenService interface {
	CreateOffer(ctx context.Context, sdp, sdpType, quality string) (*domain.OfferResult, error)
	AddICECandidate(ctx context.Context, connectionID string, candidate domain.ICECandidate) error
	ChangeQuality(ctx context.Context, connectionID, quality string) (domain.QualityInfo, error)
	GetStats(ctx context.Context, connectionID string) (*domain.SessionStats, error)
	StopStream(ctx context.Context, connectionID string) error
	Sessions(ctx context.Context) []domain.SessionSummary
	CleanupAll(ctx context.Context)
}
