package engine

import "errors"

// Setup errors — fatal to Game construction.
var (
	ErrTooFewPlayers    = errors.New("at least three players are required")
	ErrDuplicateSuspect = errors.New("suspect identity already taken")
	ErrNoDetective      = errors.New("exactly one player must be the detective")
	ErrHandSize         = errors.New("detective hand size mismatch")
	ErrDuplicateCard    = errors.New("duplicate card in hand")
)

// Validation errors — fatal to one call; the caller may correct and retry.
var (
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrUnknownCard       = errors.New("card not in catalog")
	ErrUnknownTurn       = errors.New("no such turn")
	ErrNoGuess           = errors.New("turn has no guess to replace")
	ErrConflictingStatus = errors.New("cell already holds the opposite status")
	ErrHandFull          = errors.New("player already holds a full hand")
	ErrVerdictReached    = errors.New("category verdict already reached")
	ErrImpossibleShow    = errors.New("shower cannot hold any guessed card")
	ErrShownNotGuessed   = errors.New("revealed card is not part of the guess")
)

// ErrInvalidHistory indicates a genuine contradiction in the supplied
// guesses (or a corrupted persisted turn list) discovered during replay.
// It is never auto-repaired.
var ErrInvalidHistory = errors.New("guess history is contradictory")
