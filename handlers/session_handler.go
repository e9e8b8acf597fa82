package handlers

import (
	"net/http"

	"github.com/abanoub-dev/score-tracker/middleware"
	"github.com/abanoub-dev/score-tracker/services"
)

type SessionHandler struct {
	tracker services.TrackerService
}

func NewSessionHandler(tracker services.TrackerService) *SessionHandler {
	return &SessionHandler{tracker: tracker}
}

// Start godoc
// @Summary Start a new game session
// @Tags games
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "A session is already active"
// @Security BearerAuth
// @Router /games/start [post]
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	session, err := h.tracker.StartGame(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type endGameInput struct {
	Save bool `json:"save"`
}

// End godoc
// @Summary End the active game session, optionally saving ranked results
// @Tags games
// @Accept json
// @Produce json
// @Param options body endGameInput true "Whether to save results to history"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "No active session"
// @Security BearerAuth
// @Router /games/end [post]
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input endGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	summary, err := h.tracker.EndGame(r.Context(), userID, input.Save)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"saved": input.Save}
	if summary != nil {
		response["summary"] = summary
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	sessions, err := h.tracker.GameHistory(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tracker.DeleteGame(r.Context(), userID, sessionID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
