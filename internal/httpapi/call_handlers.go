package httpapi

import (
	"context"
	"net/http"

	"companion-platform/internal/calls"

	"github.com/gin-gonic/gin"
)

func (h Handlers) CurrentCall(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	snap, err := s.Machine.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h Handlers) Accept(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	snap, err := s.Machine.Accept(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h Handlers) Decline(c *gin.Context) {
	h.endWith(c, (*calls.Machine).Decline)
}

func (h Handlers) EndCall(c *gin.Context) {
	h.endWith(c, (*calls.Machine).EndCall)
}

func (h Handlers) Teardown(c *gin.Context) {
	h.endWith(c, (*calls.Machine).Teardown)
}

func (h Handlers) endWith(c *gin.Context, fn func(*calls.Machine, context.Context) error) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	if err := fn(s.Machine, c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	snap, err := s.Machine.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Toggle flips one in-call control: mute, speaker or camera.
func (h Handlers) Toggle(c *gin.Context) {
	s, ok := h.seat(c)
	if !ok {
		return
	}
	var fn func(context.Context) (calls.Snapshot, error)
	switch c.Param("control") {
	case "mute":
		fn = s.Machine.ToggleMute
	case "speaker":
		fn = s.Machine.ToggleSpeaker
	case "camera":
		fn = s.Machine.ToggleCamera
	default:
		abort(c, http.StatusNotFound, "unknown control")
		return
	}
	snap, err := fn(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
