package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"deskcast/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScreenService struct {
	offerErr   error
	iceErr     error
	qualityErr error
	statsErr   error
	sessions   []domain.SessionSummary
	stopped    []string
}

func (s *stubScreenService) CreateOffer(ctx context.Context, sdp, sdpType, quality string) (*domain.OfferResult, error) {
	if s.offerErr != nil {
		return nil, s.offerErr
	}
	return &domain.OfferResult{
		ConnectionID: "screen_1_1700000000",
		SDP:          "v=0 answer",
		Type:         "answer",
		Quality:      domain.PresetOrDefault(quality).Info(),
	}, nil
}

func (s *stubScreenService) AddICECandidate(ctx context.Context, connectionID string, candidate domain.ICECandidate) error {
	return s.iceErr
}

func (s *stubScreenService) ChangeQuality(ctx context.Context, connectionID, quality string) (domain.QualityInfo, error) {
	if s.qualityErr != nil {
		return domain.QualityInfo{}, s.qualityErr
	}
	preset, err := domain.ParseQualityPreset(quality)
	if err != nil {
		return domain.QualityInfo{}, err
	}
	return preset.Info(), nil
}

func (s *stubScreenService) GetStats(ctx context.Context, connectionID string) (*domain.SessionStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &domain.SessionStats{
		ConnectionState: "connected",
		ICEState:        "completed",
		Quality:         domain.QualityMedium.Info(),
	}, nil
}

func (s *stubScreenService) StopStream(ctx context.Context, connectionID string) error {
	s.stopped = append(s.stopped, connectionID)
	return nil
}

func (s *stubScreenService) Sessions(ctx context.Context) []domain.SessionSummary {
	return s.sessions
}

func (s *stubScreenService) CleanupAll(ctx context.Context) {}

func newTestRouter(service *stubScreenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewScreenHandler(service).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateOffer(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/offer", gin.H{
		"sdp":     "v=0 offer",
		"type":    "offer",
		"quality": "high",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result domain.OfferResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "screen_1_1700000000", result.ConnectionID)
	assert.Equal(t, "answer", result.Type)
	assert.Equal(t, "high", result.Quality.Preset)
}

func TestCreateOffer_MissingSDP(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/offer", gin.H{"type": "offer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOffer_CaptureUnavailable(t *testing.T) {
	router := newTestRouter(&stubScreenService{offerErr: domain.ErrCaptureUnavailable})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/offer", gin.H{"sdp": "v=0 offer"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "CAPTURE_UNAVAILABLE", body["code"])
}

func TestCreateOffer_NegotiationFailed(t *testing.T) {
	router := newTestRouter(&stubScreenService{offerErr: domain.ErrNegotiationFailed})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/offer", gin.H{"sdp": "garbage"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAddICECandidate(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/screen_1_1700000000/ice", gin.H{
		"candidate": gin.H{"candidate": "candidate:1 1 udp", "sdpMid": "0", "sdpMLineIndex": 0},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddICECandidate_SessionNotFound(t *testing.T) {
	router := newTestRouter(&stubScreenService{iceErr: domain.ErrSessionNotFound})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/screen_99_0/ice", gin.H{
		"candidate": gin.H{"candidate": "candidate:1 1 udp"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChangeQuality(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/screen_1_1700000000/quality", gin.H{"quality": "ultra"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK      bool               `json:"ok"`
		Quality domain.QualityInfo `json:"quality"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Equal(t, 1920, body.Quality.Width)
	assert.Equal(t, 4000, body.Quality.BitrateKbps)
}

func TestChangeQuality_InvalidPreset(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodPost, "/api/v1/screen/screen_1_1700000000/quality", gin.H{"quality": "cinema"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStats(t *testing.T) {
	router := newTestRouter(&stubScreenService{})

	w := doJSON(router, http.MethodGet, "/api/v1/screen/screen_1_1700000000/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats domain.SessionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "connected", stats.ConnectionState)
	assert.Equal(t, "medium", stats.Quality.Preset)
}

func TestGetStats_SessionNotFound(t *testing.T) {
	router := newTestRouter(&stubScreenService{statsErr: domain.ErrSessionNotFound})

	w := doJSON(router, http.MethodGet, "/api/v1/screen/screen_99_0/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopStream(t *testing.T) {
	service := &stubScreenService{}
	router := newTestRouter(service)

	w := doJSON(router, http.MethodDelete, "/api/v1/screen/screen_1_1700000000", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"screen_1_1700000000"}, service.stopped)
}

func TestListSessions(t *testing.T) {
	service := &stubScreenService{
		sessions: []domain.SessionSummary{
			{ConnectionID: "screen_1_1700000000", State: "connected", Quality: domain.QualityLow.Info()},
			{ConnectionID: "screen_2_1700000001", State: "negotiating", Quality: domain.QualityHigh.Info()},
		},
	}
	router := newTestRouter(service)

	w := doJSON(router, http.MethodGet, "/api/v1/screens", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sessions []domain.SessionSummary `json:"sessions"`
		Count    int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "screen_2_1700000001", body.Sessions[1].ConnectionID)
}
