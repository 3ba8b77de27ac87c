package session

import "errors"

var (
	ErrNotEnoughPlayers     = errors.New("at least two players are required")
	ErrNotEnoughCustomWords = errors.New("custom words only needs at least 10 custom words")
	ErrNotHost              = errors.New("only the host can do that")
	ErrWrongPhase           = errors.New("not allowed in the current phase")
	ErrInvalidSettings      = errors.New("invalid settings")
	ErrSessionFull          = errors.New("session is full")
	ErrUnknownWord          = errors.New("word is not one of the candidates")
	ErrTerminated           = errors.New("session terminated")
)
