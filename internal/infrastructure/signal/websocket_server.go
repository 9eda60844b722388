package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options tune keepalive and abuse limits for signaling connections.
type Options struct {
	PingInterval      time.Duration
	PongTimeout       time.Duration
	WriteTimeout      time.Duration
	MessagesPerSecond float64
	MessageBurst      int
	MaxMessageSize    int64
}

// WebSocketServer carries signaling operations between viewers and the
// screen service over a JSON websocket protocol.
type WebSocketServer struct {
	service ports.ScreenService
	opts    Options
	logger  *zap.SugaredLogger
}

// SignalMessage is the envelope for both requests and responses.
type SignalMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type OfferPayload struct {
	SDP     string `json:"sdp"`
	SDPType string `json:"type"`
	Quality string `json:"quality,omitempty"`
}

type ICECandidatePayload struct {
	ConnectionID string              `json:"connection_id"`
	Candidate    domain.ICECandidate `json:"candidate"`
}

type QualityChangePayload struct {
	ConnectionID string `json:"connection_id"`
	Quality      string `json:"quality"`
}

type ConnectionPayload struct {
	ConnectionID string `json:"connection_id"`
}

type okResult struct {
	OK      bool                `json:"ok"`
	Quality *domain.QualityInfo `json:"quality,omitempty"`
}

type errorResult struct {
	Error string `json:"error"`
}

// NewWebSocketServer creates the signaling server in front of the gateway.
func NewWebSocketServer(service ports.ScreenService, opts Options, logger *zap.SugaredLogger) *WebSocketServer {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &WebSocketServer{
		service: service,
		opts:    opts,
		logger:  logger,
	}
}

// HandleWebSocket upgrades the request and serves signaling messages until
// the viewer disconnects.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if s.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(s.opts.MaxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))
		return nil
	})

	s.logger.Infow("signaling client connected", "remote", r.RemoteAddr)

	var limiter *rate.Limiter
	if s.opts.MessagesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.MessagesPerSecond), s.opts.MessageBurst)
	}

	// gorilla connections allow a single concurrent writer; responses and
	// pings share the write side under one mutex.
	var writeMu sync.Mutex
	write := func(msg SignalMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debugw("signaling write failed", "error", err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(s.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
				err := conn.WriteMessage(websocket.PingMessage, nil)
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg SignalMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warnw("signaling connection closed unexpectedly", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.opts.PongTimeout))

		if limiter != nil && !limiter.Allow() {
			write(s.errorResponse(msg, "rate limit exceeded"))
			continue
		}

		write(s.dispatch(r.Context(), msg))
	}
}

// dispatch routes one signaling request to the gateway and shapes the
// response. Failures come back as error results, never dropped connections.
func (s *WebSocketServer) dispatch(ctx context.Context, msg SignalMessage) SignalMessage {
	switch msg.Type {
	case "offer":
		var p OfferPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.errorResponse(msg, "malformed offer payload")
		}
		result, err := s.service.CreateOffer(ctx, p.SDP, p.SDPType, p.Quality)
		if err != nil {
			return s.errorResponse(msg, err.Error())
		}
		return s.response(msg, "answer", result)

	case "ice_candidate":
		var p ICECandidatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.errorResponse(msg, "malformed ice payload")
		}
		if err := s.service.AddICECandidate(ctx, p.ConnectionID, p.Candidate); err != nil {
			return s.errorResponse(msg, err.Error())
		}
		return s.response(msg, "ice_result", okResult{OK: true})

	case "change_quality":
		var p QualityChangePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.errorResponse(msg, "malformed quality payload")
		}
		quality, err := s.service.ChangeQuality(ctx, p.ConnectionID, p.Quality)
		if err != nil {
			return s.errorResponse(msg, err.Error())
		}
		return s.response(msg, "quality_result", okResult{OK: true, Quality: &quality})

	case "get_stats":
		var p ConnectionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.errorResponse(msg, "malformed stats payload")
		}
		stats, err := s.service.GetStats(ctx, p.ConnectionID)
		if err != nil {
			return s.errorResponse(msg, err.Error())
		}
		return s.response(msg, "stats_result", stats)

	case "stop_stream":
		var p ConnectionPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return s.errorResponse(msg, "malformed stop payload")
		}
		if err := s.service.StopStream(ctx, p.ConnectionID); err != nil {
			return s.errorResponse(msg, err.Error())
		}
		return s.response(msg, "stop_result", okResult{OK: true})

	default:
		return s.errorResponse(msg, "unknown message type")
	}
}

func (s *WebSocketServer) response(req SignalMessage, msgType string, payload interface{}) SignalMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		return s.errorResponse(req, "failed to encode response")
	}
	return SignalMessage{Type: msgType, RequestID: req.RequestID, Payload: raw}
}

func (s *WebSocketServer) errorResponse(req SignalMessage, message string) SignalMessage {
	raw, _ := json.Marshal(errorResult{Error: message})
	return SignalMessage{Type: "error", RequestID: req.RequestID, Payload: raw}
}
