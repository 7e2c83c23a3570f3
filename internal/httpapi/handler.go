// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package httpapi

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/postmarketOS/gnss_watch/internal/track"
	"gitlab.com/postmarketOS/gnss_watch/internal/watcher"
)

const (
	// Default span of a track query without a from parameter.
	defaultTrackSpan = time.Hour

	// maxIntervalMs is the largest report interval a time.Duration holds.
	maxIntervalMs = math.MaxInt64 / int64(time.Millisecond)
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type StatusResponse struct {
	Status            watcher.Status `json:"status"`
	MovementThreshold float64        `json:"movement_threshold"`
	ReportIntervalMs  int64          `json:"report_interval_ms"`
}

type ThresholdRequest struct {
	Meters *float64 `json:"meters" binding:"required"`
}

type IntervalRequest struct {
	Milliseconds *int64 `json:"milliseconds" binding:"required"`
}

type TrackResponse struct {
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Positions []track.Position `json:"positions"`
}

type Handler struct {
	w      Watcher
	tracks TrackStore
	log    *zap.Logger
	now    func() time.Time
}

func NewHandler(w Watcher, tracks TrackStore, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{w: w, tracks: tracks, log: log, now: time.Now}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func (h *Handler) Position(c *gin.Context) {
	p := h.w.Position()
	if p.Location.IsUnknown() {
		abort(c, http.StatusNotFound, "NO_POSITION", "no position known yet")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:            h.w.Status(),
		MovementThreshold: h.w.MovementThreshold(),
		ReportIntervalMs:  h.w.ReportInterval().Milliseconds(),
	})
}

func (h *Handler) SetMovementThreshold(c *gin.Context) {
	var req ThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.w.SetMovementThreshold(*req.Meters); err != nil {
		h.setError(c, err)
		return
	}
	h.Status(c)
}

func (h *Handler) SetReportInterval(c *gin.Context) {
	var req IntervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	ms := *req.Milliseconds
	if ms > maxIntervalMs || ms < -maxIntervalMs {
		h.setError(c, &watcher.ArgumentRangeError{Name: "ReportInterval", Value: ms})
		return
	}

	if err := h.w.SetReportInterval(time.Duration(ms) * time.Millisecond); err != nil {
		h.setError(c, err)
		return
	}
	h.Status(c)
}

func (h *Handler) setError(c *gin.Context, err error) {
	if errors.Is(err, watcher.ErrArgumentRange) {
		abort(c, http.StatusUnprocessableEntity, "OUT_OF_RANGE", err.Error())
		return
	}
	h.internalError(c, err)
}

// Track returns the positions logged between the from and to query
// parameters (RFC 3339). to defaults to now and from to an hour before to.
func (h *Handler) Track(c *gin.Context) {
	if h.tracks == nil {
		abort(c, http.StatusNotFound, "TRACK_DISABLED", "track log is not enabled")
		return
	}

	to := h.now()
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			abort(c, http.StatusBadRequest, "VALIDATION_ERROR", "to: "+err.Error())
			return
		}
		to = t
	}
	from := to.Add(-defaultTrackSpan)
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			abort(c, http.StatusBadRequest, "VALIDATION_ERROR", "from: "+err.Error())
			return
		}
		from = t
	}
	if !from.Before(to) {
		abort(c, http.StatusBadRequest, "VALIDATION_ERROR", "from must be before to")
		return
	}

	ps, err := h.tracks.Range(from, to)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if ps == nil {
		ps = []track.Position{}
	}
	c.JSON(http.StatusOK, TrackResponse{From: from, To: to, Positions: ps})
}

func (h *Handler) TrackLatest(c *gin.Context) {
	if h.tracks == nil {
		abort(c, http.StatusNotFound, "TRACK_DISABLED", "track log is not enabled")
		return
	}

	p, ok, err := h.tracks.Latest()
	if err != nil {
		h.internalError(c, err)
		return
	}
	if !ok {
		abort(c, http.StatusNotFound, "NO_POSITION", "track is empty")
		return
	}
	c.JSON(http.StatusOK, p)
}
