package services

import "errors"

// Shared errors used across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrInvalidScoreChange = errors.New("score change must not be zero")
	ErrInvalidCardType    = errors.New("card type must be yellow or red")
	ErrInvalidTimerValue  = errors.New("timer minutes must be 0-99 and seconds 0-59")

	// Game session state machine. These are reported distinctly from store
	// failures and never touch the database.
	ErrGameAlreadyActive = errors.New("a game session is already active")
	ErrNoActiveGame      = errors.New("no active game session")

	// Authentication and access
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Entity-specific lookups
	ErrTeamNotFound        = errors.New("team not found")
	ErrGameSessionNotFound = errors.New("game session not found")
)
