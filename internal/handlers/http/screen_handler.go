package http

import (
	"net/http"

	"deskcast/internal/core/domain"
	"deskcast/internal/core/ports"
	apperrors "deskcast/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ScreenHandler exposes the signaling gateway over REST.
type ScreenHandler struct {
	service ports.ScreenService
}

// NewScreenHandler creates the handler in front of the gateway.
func NewScreenHandler(service ports.ScreenService) *ScreenHandler {
	return &ScreenHandler{service: service}
}

// SetupRoutes registers the screen streaming endpoints.
func (h *ScreenHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/screen/offer", h.CreateOffer)
		api.POST("/screen/:id/ice", h.AddICECandidate)
		api.POST("/screen/:id/quality", h.ChangeQuality)
		api.GET("/screen/:id/stats", h.GetStats)
		api.DELETE("/screen/:id", h.StopStream)
		api.GET("/screens", h.ListSessions)
	}
}

func (h *ScreenHandler) CreateOffer(c *gin.Context) {
	var req struct {
		SDP     string `json:"sdp" binding:"required"`
		Type    string `json:"type"`
		Quality string `json:"quality"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = "offer"
	}

	result, err := h.service.CreateOffer(c.Request.Context(), req.SDP, req.Type, req.Quality)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ScreenHandler) AddICECandidate(c *gin.Context) {
	var req struct {
		Candidate domain.ICECandidate `json:"candidate"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AddICECandidate(c.Request.Context(), c.Param("id"), req.Candidate); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ScreenHandler) ChangeQuality(c *gin.Context) {
	var req struct {
		Quality string `json:"quality" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quality, err := h.service.ChangeQuality(c.Request.Context(), c.Param("id"), req.Quality)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "quality": quality})
}

func (h *ScreenHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ScreenHandler) StopStream(c *gin.Context) {
	if err := h.service.StopStream(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *ScreenHandler) ListSessions(c *gin.Context) {
	sessions := h.service.Sessions(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *ScreenHandler) writeError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message, "code": appErr.Code})
}
