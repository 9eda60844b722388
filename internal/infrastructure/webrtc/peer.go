package webrtc

import (
	"encoding/json"
	"fmt"
	"time"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"go.uber.org/zap"
)

// Config holds WebRTC transport settings.
type Config struct {
	ICEServers []webrtc.ICEServer
	PortRange  struct {
		Min uint16
		Max uint16
	}
}

// PeerFactory creates pion peer connections configured for screen streaming.
type PeerFactory struct {
	config Config
	api    *webrtc.API
	logger *zap.SugaredLogger
}

// NewPeerFactory builds the shared pion API with the configured media engine
// and UDP port range.
func NewPeerFactory(config Config, logger *zap.SugaredLogger) (*PeerFactory, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	settingEngine := webrtc.SettingEngine{}
	if config.PortRange.Min > 0 && config.PortRange.Max > 0 {
		if err := settingEngine.SetEphemeralUDPPortRange(config.PortRange.Min, config.PortRange.Max); err != nil {
			return nil, fmt.Errorf("failed to set udp port range: %w", err)
		}
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithSettingEngine(settingEngine),
	)
	return &PeerFactory{
		config: config,
		api:    api,
		logger: logger,
	}, nil
}

// telemetryMessage is the viewer-to-server payload carried on the stats
// data channel.
type telemetryMessage struct {
	Type    string  `json:"type"`
	RTT     float64 `json:"rtt"`
	Quality string  `json:"quality"`
}

// NewPeerConnection creates a sendonly H.264 peer connection with a stats
// data channel and the given event callbacks wired up.
func (f *PeerFactory) NewPeerConnection(callbacks ports.PeerCallbacks) (ports.PeerConnection, error) {
	pc, err := f.api.NewPeerConnection(webrtc.Configuration{
		ICEServers:   f.config.ICEServers,
		SDPSemantics: webrtc.SDPSemanticsUnifiedPlan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		fmt.Sprintf("screen-%s", uuid.NewString()),
		fmt.Sprintf("deskcast-%s", uuid.NewString()),
	)
	if err != nil {
		pc.Close()
		return nil, err
	}

	transceiver, err := pc.AddTransceiverFromTrack(track, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendonly,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	ordered := false
	dc, err := pc.CreateDataChannel("stats", &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return nil, err
	}
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var tm telemetryMessage
		if err := json.Unmarshal(msg.Data, &tm); err != nil {
			f.logger.Debugw("unparseable telemetry message", "error", err)
			return
		}
		switch tm.Type {
		case "rtt_report":
			if callbacks.OnRTTReport != nil {
				callbacks.OnRTTReport(tm.RTT)
			}
		case "quality_change":
			if callbacks.OnQualityChange != nil {
				callbacks.OnQualityChange(tm.Quality)
			}
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		if callbacks.OnConnectionStateChange != nil {
			callbacks.OnConnectionStateChange(state.String())
		}
	})
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if callbacks.OnICEStateChange != nil {
			callbacks.OnICEStateChange(state.String())
		}
	})

	go f.readRTCP(transceiver.Sender(), callbacks.OnRTTReport)

	return &peerConnection{pc: pc, track: track}, nil
}

// readRTCP drains the sender's RTCP stream and turns receiver-report delay
// fields into RTT estimates for the quality controller.
func (f *PeerFactory) readRTCP(sender *webrtc.RTPSender, onRTT func(float64)) {
	buf := make([]byte, 1500)
	for {
		n, _, err := sender.Read(buf)
		if err != nil {
			return
		}
		packets, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			f.logger.Debugw("failed to unmarshal rtcp", "error", err)
			continue
		}
		for _, packet := range packets {
			rr, ok := packet.(*rtcp.ReceiverReport)
			if !ok {
				continue
			}
			for _, report := range rr.Reports {
				if report.LastSenderReport == 0 || report.Delay == 0 {
					continue
				}
				// DLSR is expressed in 1/65536 seconds.
				rttMs := float64(report.Delay) / 65536.0 * 1000.0
				if onRTT != nil {
					onRTT(rttMs)
				}
			}
		}
	}
}

type peerConnection struct {
	pc    *webrtc.PeerConnection
	track *webrtc.TrackLocalStaticSample
}

// Negotiate applies the viewer's offer and returns the gathered local answer.
func (p *peerConnection) Negotiate(remoteSDP, remoteType string) (string, string, error) {
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		SDP:  remoteSDP,
		Type: webrtc.NewSDPType(remoteType),
	}); err != nil {
		return "", "", err
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return "", "", err
	}

	// Wait for candidate gathering so the answer is complete; the viewer
	// still trickles its own candidates to us.
	gatherComplete := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return "", "", err
	}
	<-gatherComplete

	local := p.pc.LocalDescription()
	return local.SDP, local.Type.String(), nil
}

// AddICECandidate applies a trickled candidate from the viewer.
func (p *peerConnection) AddICECandidate(candidate domain.ICECandidate) error {
	return p.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        candidate.SDPMid,
		SDPMLineIndex: candidate.SDPMLineIndex,
	})
}

// WriteVideo writes one encoded frame to the outgoing track.
func (p *peerConnection) WriteVideo(payload []byte, duration time.Duration) error {
	return p.track.WriteSample(media.Sample{
		Data:     payload,
		Duration: duration,
	})
}

// ConnectionState returns the peer connection state name.
func (p *peerConnection) ConnectionState() string {
	return p.pc.ConnectionState().String()
}

// ICEState returns the ICE connection state name.
func (p *peerConnection) ICEState() string {
	return p.pc.ICEConnectionState().String()
}

// Close releases the underlying peer connection.
func (p *peerConnection) Close() error {
	return p.pc.Close()
}
