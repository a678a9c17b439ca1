package handlers

import (
	"fmt"
	"net/http"

	"clanhall/middleware"
	"clanhall/models"
	"clanhall/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

// RegisterHandler godoc
// @Summary Register for a tournament
// @Tags participants
// @Description The caller files a registration for themselves; it lands in pending.
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 201 {object} map[string]interface{} "Registration created"
// @Failure 403 {object} map[string]string "Registration closed"
// @Failure 409 {object} map[string]string "Already registered or tournament full"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants [post]
func (h *ParticipantHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to register")
		return
	}

	participant, err := h.participantService.Register(r.Context(), tournamentID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddDirectHandler godoc
// @Summary Add a participant directly
// @Tags participants
// @Description An organizer seeds the roster; the entry is approved immediately.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body handlers.addParticipantInput true "User to add"
// @Success 201 {object} map[string]interface{} "Registration created"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 409 {object} map[string]string "Already registered or tournament full"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants/direct [post]
func (h *ParticipantHandler) AddDirectHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input addParticipantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.AddDirect(r.Context(), tournamentID, currentUserID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type addParticipantInput struct {
	UserID int `json:"user_id"`
}

// ListHandler godoc
// @Summary List tournament participants
// @Tags participants
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param status query string false "Filter by application status"
// @Success 200 {object} map[string]interface{} "Participants"
// @Router /tournaments/{tournamentID}/participants [get]
func (h *ParticipantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.ParticipantStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.ParticipantStatus(statusStr)
		if !models.ValidParticipantStatus(status) {
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", statusStr))
			return
		}
		statusFilter = &status
	}

	participants, err := h.participantService.ListByTournament(r.Context(), tournamentID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler godoc
// @Summary Approve or reject a registration
// @Tags participants
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param participantID path int true "Participant Registration ID"
// @Param body body handlers.participantStatusInput true "New status"
// @Success 200 {object} map[string]interface{} "Updated registration"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Registration not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants/{participantID}/status [patch]
func (h *ParticipantHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input participantStatusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.UpdateStatus(r.Context(), tournamentID, participantID, currentUserID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type participantStatusInput struct {
	Status models.ParticipantStatus `json:"status"`
}

// RemoveHandler godoc
// @Summary Remove a registration
// @Tags participants
// @Description A user may remove their own registration; organizers may remove anyone's.
// @Param tournamentID path int true "Tournament ID"
// @Param participantID path int true "Participant Registration ID"
// @Success 204 "Removed"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Registration not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants/{participantID} [delete]
func (h *ParticipantHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.participantService.Remove(r.Context(), tournamentID, participantID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// WithdrawHandler godoc
// @Summary Withdraw own registration
// @Tags participants
// @Param tournamentID path int true "Tournament ID"
// @Success 204 "Withdrawn"
// @Failure 404 {object} map[string]string "No registration for the caller"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/participants/me [delete]
func (h *ParticipantHandler) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.participantService.Withdraw(r.Context(), tournamentID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
