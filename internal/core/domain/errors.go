package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a connection id has no active session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidQuality is returned for unknown quality preset names where a
	// fallback is not allowed.
	ErrInvalidQuality = errors.New("invalid quality preset")

	// ErrInvalidCandidate is returned when a trickled candidate cannot be applied.
	ErrInvalidCandidate = errors.New("invalid ice candidate")

	// ErrNegotiationFailed is returned when the peer connection handshake fails.
	ErrNegotiationFailed = errors.New("webrtc negotiation failed")

	// ErrCaptureUnavailable is returned when no display can be captured.
	ErrCaptureUnavailable = errors.New("no capturable display")
)
