package handlers

import (
	"net/http"

	"github.com/abanoub-dev/score-tracker/middleware"
	"github.com/abanoub-dev/score-tracker/services"
)

type TimerHandler struct {
	tracker services.TrackerService
}

func NewTimerHandler(tracker services.TrackerService) *TimerHandler {
	return &TimerHandler{tracker: tracker}
}

func (h *TimerHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := writeJSON(w, http.StatusOK, h.tracker.Timer(userID).State(), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	timer := h.tracker.Timer(userID)
	timer.Pause()
	if err := writeJSON(w, http.StatusOK, timer.State(), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	timer := h.tracker.Timer(userID)
	timer.Resume()
	if err := writeJSON(w, http.StatusOK, timer.State(), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Reset zeroes the countdown without firing expiry.
func (h *TimerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	timer := h.tracker.Timer(userID)
	timer.Reset()
	if err := writeJSON(w, http.StatusOK, timer.State(), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type setTimerInput struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Set godoc
// @Summary Set the countdown to minutes:seconds
// @Tags timer
// @Accept json
// @Produce json
// @Param time body setTimerInput true "Minutes 0-99, seconds 0-59"
// @Success 200 {object} clock.Snapshot
// @Security BearerAuth
// @Router /timer/set [post]
func (h *TimerHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input setTimerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.tracker.SetTimer(userID, input.Minutes, input.Seconds)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, state, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
