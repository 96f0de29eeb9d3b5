package coordinator

import "errors"

var (
	ErrDuplicateConnection = errors.New("duplicate connection")
	ErrSessionIdInUse      = errors.New("session id in use")
	ErrSessionNotFound     = errors.New("session not found")
	ErrPoolExhausted       = errors.New("no session ids available")
	ErrUnknownSender       = errors.New("unknown sender")
	ErrMalformedJoin       = errors.New("malformed join")
	ErrNotFound            = errors.New("not found")
)
