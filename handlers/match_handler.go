package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"clanhall/middleware"
	"clanhall/models"
	"clanhall/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

// CreateHandler godoc
// @Summary Create a match
// @Tags matches
// @Description Records a pairing in the ledger. Omitting player2_id records a bye.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param body body services.CreateMatchInput true "Match fields"
// @Success 201 {object} map[string]interface{} "Created match"
// @Failure 400 {object} map[string]string "Invalid players or round"
// @Failure 403 {object} map[string]string "Not allowed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches [post]
func (h *MatchHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
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

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), tournamentID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{} "Match"
// @Failure 404 {object} map[string]string "Not found"
// @Router /tournaments/{tournamentID}/matches/{matchID} [get]
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), tournamentID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler godoc
// @Summary List tournament matches
// @Tags matches
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param round query int false "Filter by round"
// @Param status query string false "Filter by match status"
// @Success 200 {object} map[string]interface{} "Matches ordered by round and number"
// @Router /tournaments/{tournamentID}/matches [get]
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var roundFilter *int
	if roundStr := r.URL.Query().Get("round"); roundStr != "" {
		if round, convErr := strconv.Atoi(roundStr); convErr == nil && round > 0 {
			roundFilter = &round
		} else {
			badRequestResponse(w, r, errors.New("invalid round query parameter"))
			return
		}
	}

	var statusFilter *models.MatchStatus
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.MatchStatus(statusStr)
		if status != models.MatchScheduled && status != models.MatchCompleted {
			badRequestResponse(w, r, fmt.Errorf("invalid status query parameter: %q", statusStr))
			return
		}
		statusFilter = &status
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, roundFilter, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordResultHandler godoc
// @Summary Record a match result
// @Tags matches
// @Description Marks the match completed. Recording again overwrites the previous result.
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Param body body services.RecordResultInput true "Winner and optional score"
// @Success 200 {object} map[string]interface{} "Completed match"
// @Failure 400 {object} map[string]string "Winner not in match"
// @Failure 403 {object} map[string]string "Not allowed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID}/result [post]
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.RecordResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), tournamentID, matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler godoc
// @Summary Update a match
// @Tags matches
// @Accept json
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Param body body services.UpdateMatchInput true "Fields to change"
// @Success 200 {object} map[string]interface{} "Updated match"
// @Failure 400 {object} map[string]string "Invalid players or winner"
// @Failure 403 {object} map[string]string "Not allowed"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID} [patch]
func (h *MatchHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateMatch(r.Context(), tournamentID, matchID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadReplayHandler godoc
// @Summary Upload a match replay file
// @Tags matches
// @Accept mpfd
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Param replay formData file true "Replay file"
// @Success 200 {object} map[string]interface{} "Updated match"
// @Failure 400 {object} map[string]string "Bad upload"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID}/replay [post]
func (h *MatchHandler) UploadReplayHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("replay")
	if err != nil {
		badRequestResponse(w, r, errors.New("replay file is required"))
		return
	}
	defer file.Close()

	match, err := h.matchService.UploadReplay(r.Context(), tournamentID, matchID, currentUserID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler godoc
// @Summary Delete a match
// @Tags matches
// @Param tournamentID path int true "Tournament ID"
// @Param matchID path int true "Match ID"
// @Success 204 "Deleted"
// @Failure 403 {object} map[string]string "Not allowed"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/{matchID} [delete]
func (h *MatchHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.matchService.DeleteMatch(r.Context(), tournamentID, matchID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
