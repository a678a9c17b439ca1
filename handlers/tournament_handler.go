package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"clanhall/middleware"
	"clanhall/models"
	"clanhall/repositories"
	"clanhall/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Description Creates a tournament in draft status owned by the caller.
// @Accept json
// @Produce json
// @Param body body services.CreateTournamentInput true "Tournament fields"
// @Success 201 {object} map[string]interface{} "Created tournament"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create tournament")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Get a tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Tournament"
// @Failure 404 {object} map[string]string "Not found"
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Optional auth: anonymous viewers see public tournaments only.
	currentUserID, _ := middleware.GetUserIDFromContext(r.Context())

	tournament, err := h.tournamentService.GetByID(r.Context(), id, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Param creator_id query int false "Filter by creator"
// @Param limit query int false "Page size (default 20)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{} "Tournaments"
// @Router /tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		if !models.ValidTournamentStatus(status) {
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", statusStr))
			return
		}
		filter.Status = &status
	}
	if creatorIDStr := query.Get("creator_id"); creatorIDStr != "" {
		if id, err := strconv.Atoi(creatorIDStr); err == nil && id > 0 {
			filter.CreatorID = &id
		} else {
			badRequestResponse(w, r, errors.New("invalid creator_id query parameter"))
			return
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	} else {
		filter.Limit = 20
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		} else {
			badRequestResponse(w, r, errors.New("invalid offset query parameter"))
			return
		}
	}

	// Anonymous listings are restricted to public tournaments.
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		filter.PublicOnly = true
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler godoc
// @Summary Update tournament details
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.UpdateTournamentDetailsInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated tournament"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [patch]
func (h *TournamentHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdateTournamentDetailsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateDetails(r.Context(), id, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler godoc
// @Summary Change tournament lifecycle status
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body handlers.updateStatusInput true "New status"
// @Success 200 {object} map[string]interface{} "Updated tournament"
// @Failure 400 {object} map[string]string "Invalid transition"
// @Failure 403 {object} map[string]string "Not allowed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/status [patch]
func (h *TournamentHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input updateStatusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateStatus(r.Context(), id, currentUserID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type updateStatusInput struct {
	Status models.TournamentStatus `json:"status"`
}

// DeleteHandler godoc
// @Summary Delete a tournament
// @Tags tournaments
// @Param tournamentID path int true "Tournament ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.tournamentService.Delete(r.Context(), id, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadBannerHandler godoc
// @Summary Upload a tournament banner image
// @Tags tournaments
// @Accept mpfd
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param banner formData file true "Banner image"
// @Success 200 {object} map[string]interface{} "Updated tournament"
// @Failure 400 {object} map[string]string "Bad upload"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/banner [post]
func (h *TournamentHandler) UploadBannerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		badRequestResponse(w, r, errors.New("banner file is required"))
		return
	}
	defer file.Close()

	tournament, err := h.tournamentService.UploadBanner(r.Context(), id, currentUserID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddAdminHandler godoc
// @Summary Grant a user tournament admin rights
// @Tags tournaments
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body handlers.adminGrantInput true "User to grant"
// @Success 201 {object} map[string]interface{} "Grant"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 409 {object} map[string]string "Already granted"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/admins [post]
func (h *TournamentHandler) AddAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input adminGrantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	grant, err := h.tournamentService.AddAdmin(r.Context(), id, currentUserID, input.UserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"admin": grant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type adminGrantInput struct {
	UserID int `json:"user_id"`
}

// RemoveAdminHandler godoc
// @Summary Revoke a tournament admin grant
// @Tags tournaments
// @Param tournamentID path int true "Tournament ID"
// @Param userID path int true "User ID"
// @Success 204 "Revoked"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Grant not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/admins/{userID} [delete]
func (h *TournamentHandler) RemoveAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.tournamentService.RemoveAdmin(r.Context(), id, currentUserID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAdminsHandler godoc
// @Summary List tournament admin grants
// @Tags tournaments
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{} "Grants"
// @Router /tournaments/{tournamentID}/admins [get]
func (h *TournamentHandler) ListAdminsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	grants, err := h.tournamentService.ListAdmins(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"admins": grants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
