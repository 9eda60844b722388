package domain

import (
	"fmt"
	"time"
)

// SessionState tracks a stream session through its lifecycle.
type SessionState string

const (
	SessionCreating     SessionState = "creating"
	SessionNegotiating  SessionState = "negotiating"
	SessionConnected    SessionState = "connected"
	SessionFailed       SessionState = "failed"
	SessionClosed       SessionState = "closed"
	SessionDisconnected SessionState = "disconnected"
	SessionCleanedUp    SessionState = "cleaned_up"
)

// Terminal reports whether the peer connection state requires session cleanup.
func (s SessionState) Terminal() bool {
	return s == SessionFailed || s == SessionClosed || s == SessionDisconnected
}

// NewSessionID builds a unique, identifier-safe connection id from a process
// local counter and the current unix time.
func NewSessionID(counter uint64) string {
	return fmt.Sprintf("screen_%d_%d", counter, time.Now().Unix())
}

// ICECandidate is a trickled network-path candidate from the viewer.
type ICECandidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
}

// OfferResult is the answer returned for an accepted viewer offer.
type OfferResult struct {
	ConnectionID string      `json:"connection_id"`
	SDP          string      `json:"sdp"`
	Type         string      `json:"type"`
	Quality      QualityInfo `json:"quality"`
}

// SessionStats is the live status snapshot for one session.
type SessionStats struct {
	ConnectionState string      `json:"connection_state"`
	ICEState        string      `json:"ice_state"`
	Quality         QualityInfo `json:"quality"`
}

// SessionSummary describes an active session in listings.
type SessionSummary struct {
	ConnectionID string      `json:"connection_id"`
	State        string      `json:"state"`
	Quality      QualityInfo `json:"quality"`
	CreatedAt    time.Time   `json:"created_at"`
}
