package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQualityProfiles(t *testing.T) {
	tests := []struct {
		preset QualityPreset
		want   QualityProfile
	}{
		{QualityLow, QualityProfile{Width: 640, Height: 360, FPS: 15, BitrateKbps: 500}},
		{QualityMedium, QualityProfile{Width: 960, Height: 540, FPS: 24, BitrateKbps: 1200}},
		{QualityHigh, QualityProfile{Width: 1280, Height: 720, FPS: 30, BitrateKbps: 2500}},
		{QualityUltra, QualityProfile{Width: 1920, Height: 1080, FPS: 30, BitrateKbps: 4000}},
	}

	for _, tt := range tests {
		t.Run(string(tt.preset), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.preset.Profile())
		})
	}
}

func TestQualityProfiles_Ordering(t *testing.T) {
	// Every step up the ladder must raise resolution and bitrate; a tier swap
	// that does not change the picture would be pointless.
	ladder := []QualityPreset{QualityLow, QualityMedium, QualityHigh, QualityUltra}
	for i := 1; i < len(ladder); i++ {
		prev := ladder[i-1].Profile()
		next := ladder[i].Profile()
		assert.Greater(t, next.Width, prev.Width, "%s vs %s", ladder[i], ladder[i-1])
		assert.Greater(t, next.Height, prev.Height, "%s vs %s", ladder[i], ladder[i-1])
		assert.Greater(t, next.BitrateKbps, prev.BitrateKbps, "%s vs %s", ladder[i], ladder[i-1])
		assert.GreaterOrEqual(t, next.FPS, prev.FPS, "%s vs %s", ladder[i], ladder[i-1])
	}
}

func TestParseQualityPreset(t *testing.T) {
	preset, err := ParseQualityPreset("high")
	assert.NoError(t, err)
	assert.Equal(t, QualityHigh, preset)

	_, err = ParseQualityPreset("4k")
	assert.ErrorIs(t, err, ErrInvalidQuality)

	_, err = ParseQualityPreset("")
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestPresetOrDefault(t *testing.T) {
	assert.Equal(t, QualityLow, PresetOrDefault("low"))
	assert.Equal(t, QualityMedium, PresetOrDefault("bogus"))
	assert.Equal(t, QualityMedium, PresetOrDefault(""))
}

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, time.Second/15, QualityLow.Profile().FrameInterval())
	assert.Equal(t, time.Second/30, QualityUltra.Profile().FrameInterval())
}

func TestQualityInfo(t *testing.T) {
	info := QualityUltra.Info()
	assert.Equal(t, "ultra", info.Preset)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, 30, info.FPS)
	assert.Equal(t, 4000, info.BitrateKbps)
}

func TestSessionStateTerminal(t *testing.T) {
	assert.True(t, SessionFailed.Terminal())
	assert.True(t, SessionClosed.Terminal())
	assert.True(t, SessionDisconnected.Terminal())

	assert.False(t, SessionCreating.Terminal())
	assert.False(t, SessionNegotiating.Terminal())
	assert.False(t, SessionConnected.Terminal())
	assert.False(t, SessionCleanedUp.Terminal())
}

func TestNewSessionID(t *testing.T) {
	id := NewSessionID(7)
	assert.Regexp(t, `^screen_7_\d+$`, id)
}
