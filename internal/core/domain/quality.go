package domain

import (
	"time"
)

// QualityPreset is a named quality tier for a screen stream.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
	QualityUltra  QualityPreset = "ultra"
)

// QualityProfile bundles the resolution, frame rate and bitrate applied together
// for one preset.
type QualityProfile struct {
	Width       int
	Height      int
	FPS         int
	BitrateKbps int
}

// FrameInterval returns the target time budget for a single frame.
func (p QualityProfile) FrameInterval() time.Duration {
	return time.Second / time.Duration(p.FPS)
}

var qualityProfiles = map[QualityPreset]QualityProfile{
	QualityLow:    {Width: 640, Height: 360, FPS: 15, BitrateKbps: 500},
	QualityMedium: {Width: 960, Height: 540, FPS: 24, BitrateKbps: 1200},
	QualityHigh:   {Width: 1280, Height: 720, FPS: 30, BitrateKbps: 2500},
	QualityUltra:  {Width: 1920, Height: 1080, FPS: 30, BitrateKbps: 4000},
}

// Profile returns the profile for the preset. Only valid presets have profiles;
// callers obtain presets through ParseQualityPreset or PresetOrDefault.
func (p QualityPreset) Profile() QualityProfile {
	return qualityProfiles[p]
}

// Valid reports whether the preset names a known tier.
func (p QualityPreset) Valid() bool {
	_, ok := qualityProfiles[p]
	return ok
}

// ParseQualityPreset converts a tier name into a preset, rejecting unknown names.
func ParseQualityPreset(s string) (QualityPreset, error) {
	p := QualityPreset(s)
	if !p.Valid() {
		return "", ErrInvalidQuality
	}
	return p, nil
}

// PresetOrDefault converts a tier name into a preset, falling back to medium
// for anything unrecognized. A bad tier name never fails a request.
func PresetOrDefault(s string) QualityPreset {
	if p := QualityPreset(s); p.Valid() {
		return p
	}
	return QualityMedium
}

// QualityInfo is the wire representation of the active preset.
type QualityInfo struct {
	Preset      string `json:"preset"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	FPS         int    `json:"fps"`
	BitrateKbps int    `json:"bitrate_kbps"`
}

// Info returns the wire representation of the preset.
func (p QualityPreset) Info() QualityInfo {
	prof := p.Profile()
	return QualityInfo{
		Preset:      string(p),
		Width:       prof.Width,
		Height:      prof.Height,
		FPS:         prof.FPS,
		BitrateKbps: prof.BitrateKbps,
	}
}
