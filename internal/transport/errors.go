package transport

import "errors"

var (
	ErrSessionCreation   = errors.New("could not create session")
	ErrSessionNotFound   = errors.New("no such session")
	ErrConnectionTimeout = errors.New("timed out connecting to host")
	ErrPeerDisconnected  = errors.New("disconnected from host")

	// ErrCodeTaken is returned by a Directory when the code is already
	// registered by another hub.
	ErrCodeTaken = errors.New("room code already in use")
	ErrClosed    = errors.New("connection closed")
	ErrSendQueue = errors.New("send queue full")
)
