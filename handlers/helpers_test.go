package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clanhall/repositories"
	"clanhall/services"
	"github.com/stretchr/testify/assert"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tournament not found", services.ErrTournamentNotFound, http.StatusNotFound},
		{"match not found", services.ErrMatchNotFound, http.StatusNotFound},
		{"already registered", services.ErrAlreadyRegistered, http.StatusConflict},
		{"tournament full", services.ErrTournamentFull, http.StatusConflict},
		{"match number conflict", repositories.ErrMatchNumberConflict, http.StatusConflict},
		{"wrapped match number conflict", fmt.Errorf("failed to create match: %w", repositories.ErrMatchNumberConflict), http.StatusConflict},
		{"admin grant conflict", repositories.ErrAdminGrantConflict, http.StatusConflict},
		{"invalid status transition", services.ErrInvalidStatusTransition, http.StatusBadRequest},
		{"invalid player", services.ErrInvalidPlayer, http.StatusBadRequest},
		{"not authorized", services.ErrNotAuthorized, http.StatusForbidden},
		{"registration closed", services.ErrRegistrationClosed, http.StatusForbidden},
		{"unmapped", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/tournaments/1/matches", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
