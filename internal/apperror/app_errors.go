package apperror

import "errors"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotJoinable   = errors.New("session is not joinable")
	ErrSessionNotInProgress = errors.New("session is not in progress")
	ErrNotYourTurn          = errors.New("it's not your turn")
	ErrInvalidMove          = errors.New("invalid move")
)
