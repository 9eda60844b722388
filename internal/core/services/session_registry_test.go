package services

import (
	"fmt"
	"testing"

	"deskcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func registryTestSession(t *testing.T, id string) *StreamSession {
	grabber := &fakeGrabber{width: 64, height: 36}
	bridge := NewFrameBridge()
	collector := &recordingCollector{}
	logger := zaptest.NewLogger(t).Sugar()
	source := NewFrameSource(grabber, bridge, domain.QualityLow, collector, logger)
	controller := NewQualityController(source, collector, logger)
	return newStreamSession(id, source, bridge, controller, &fakePeerConnection{}, &fakeEncoderFactory{}, collector, logger)
}

func TestSessionRegistry_AddGetRemove(t *testing.T) {
	registry := NewSessionRegistry()
	session := registryTestSession(t, "screen_1_1700000000")

	registry.Add(session)
	assert.Equal(t, 1, registry.Len())

	got, ok := registry.Get("screen_1_1700000000")
	require.True(t, ok)
	assert.Same(t, session, got)

	_, ok = registry.Get("screen_2_1700000000")
	assert.False(t, ok)

	removed, ok := registry.Remove("screen_1_1700000000")
	require.True(t, ok)
	assert.Same(t, session, removed)
	assert.Equal(t, 0, registry.Len())

	// Losing the removal race means another caller owns the teardown.
	_, ok = registry.Remove("screen_1_1700000000")
	assert.False(t, ok)
}

func TestSessionRegistry_IDs(t *testing.T) {
	registry := NewSessionRegistry()
	want := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("screen_%d_1700000000", i)
		registry.Add(registryTestSession(t, id))
		want = append(want, id)
	}

	assert.ElementsMatch(t, want, registry.IDs())
}

func TestStreamSession_InitialState(t *testing.T) {
	session := registryTestSession(t, "screen_1_1700000000")
	assert.Equal(t, domain.SessionCreating, session.State())

	summary := session.Summary()
	assert.Equal(t, "screen_1_1700000000", summary.ConnectionID)
	assert.Equal(t, "low", summary.Quality.Preset)
	assert.False(t, summary.CreatedAt.IsZero())
}

func TestStreamSession_ShutdownIdempotent(t *testing.T) {
	session := registryTestSession(t, "screen_1_1700000000")
	pc := session.pc.(*fakePeerConnection)

	session.shutdown()
	session.shutdown()

	assert.Equal(t, 1, pc.closeCount())
	assert.Equal(t, domain.SessionCleanedUp, session.State())
}
