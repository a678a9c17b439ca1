package services

import "errors"

// Shared error taxonomy returned by the service layer and mapped to
// HTTP statuses in handlers.
var (
	// Not-found errors per entity.
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrUserNotFound        = errors.New("user not found")

	// Registration guards.
	ErrAlreadyRegistered  = errors.New("user is already registered for this tournament")
	ErrRegistrationClosed = errors.New("tournament registration is not open")
	ErrTournamentFull     = errors.New("tournament has reached its participant limit")

	// Ledger guards.
	ErrInvalidWinner = errors.New("winner must be one of the match's players")
	ErrInvalidPlayer = errors.New("player is not an approved participant of the tournament")
	ErrSamePlayers   = errors.New("a match requires two distinct players")
	ErrInvalidRound  = errors.New("round must be a positive number")

	// Authorization.
	ErrNotAuthorized = errors.New("operation not allowed for the current user")

	// Validation and lifecycle.
	ErrTitleRequired            = errors.New("tournament title is required")
	ErrStartDateRequired        = errors.New("tournament start date is required")
	ErrInvalidCapacity          = errors.New("tournament max participants must not be negative")
	ErrInvalidBracketType       = errors.New("invalid bracket type provided")
	ErrInvalidStatus            = errors.New("invalid tournament status provided")
	ErrInvalidStatusTransition  = errors.New("invalid tournament status transition")
	ErrInvalidParticipantStatus = errors.New("invalid participant status provided")
	ErrUnsupportedContentType   = errors.New("unsupported upload content type")
)
