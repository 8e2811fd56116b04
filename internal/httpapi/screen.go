package httpapi

import (
	"net/http"

	"companion-platform/internal/calls"
	"companion-platform/internal/capability"
	"companion-platform/internal/metrics"

	"github.com/gin-gonic/gin"
)

type candidateRequest struct {
	Name          string   `json:"name"`
	ImageURL      string   `json:"image_url,omitempty"`
	BackgroundURL string   `json:"background_url,omitempty"`
	MediaPool     []string `json:"media_pool"`
}

type focusRequest struct {
	Candidates []candidateRequest `json:"candidates"`
}

// Focus tells the machine the home screen is visible and re-arms the ring.
func (h Handlers) Focus(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid json")
		return
	}
	cands := make([]calls.Candidate, 0, len(req.Candidates))
	for _, cr := range req.Candidates {
		if cr.Name == "" {
			abort(c, http.StatusBadRequest, "candidate name required")
			return
		}
		cands = append(cands, calls.Candidate{
			Caller:    calls.Caller{Name: cr.Name, ImageURL: cr.ImageURL, BackgroundURL: cr.BackgroundURL},
			MediaPool: cr.MediaPool,
		})
	}
	delay, err := s.Machine.Focus(c.Request.Context(), cands)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ring_in_ms": delay.Milliseconds()})
}

func (h Handlers) Blur(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	if err := s.Machine.Blur(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resumeRequest struct {
	CameraStatus capability.Status `json:"camera_status,omitempty"`
}

// Resume is called when the app returns to the foreground. The device may
// report the current camera permission alongside.
func (h Handlers) Resume(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	var req resumeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if req.CameraStatus != "" {
		if !req.CameraStatus.Valid() {
			abort(c, http.StatusBadRequest, "invalid camera_status")
			return
		}
		s.Permissions.Report(req.CameraStatus)
		metrics.RecordPermissionReport(string(req.CameraStatus))
	}
	snap, err := s.Machine.Resume(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
