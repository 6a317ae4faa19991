package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrChannelNotFound   = fmt.Errorf("channel not found")
	ErrMalformedMessage  = fmt.Errorf("malformed message")
	ErrDuplicateIdentity = fmt.Errorf("identity already registered")
	ErrUnknownIdentity   = fmt.Errorf("identity not registered")
	ErrReservedIdentity  = fmt.Errorf("identity is reserved")
	ErrBusStarted        = fmt.Errorf("bus already started")
	ErrBusStopped        = fmt.Errorf("bus stopped")
	ErrNoParticipants    = fmt.Errorf("no participants registered")

	ErrRoundInProgress       = fmt.Errorf("round in progress")
	ErrUnexpectedParticipant = fmt.Errorf("participant not expected in this round")
	ErrAlreadyAnswered       = fmt.Errorf("participant already answered this round")

	ErrTransport           = fmt.Errorf("model client transport error")
	ErrEmptyCompletion     = fmt.Errorf("empty completion")
	ErrUnsupportedProvider = fmt.Errorf("unsupported llm provider")
	ErrMissingAPIKey       = fmt.Errorf("api key is required")

	ErrInvalidPersona = fmt.Errorf("invalid persona")
	ErrInvalidConfig  = fmt.Errorf("invalid configuration")
)
